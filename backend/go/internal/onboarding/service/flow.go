package service

import (
	"context"

	"OnboardingBuddy/backend/go/internal/models"
)

// --- Preboarding ---

// OpenPreboarding opens the preboarding section. A new user is moved into
// preboarding; everybody else is returned unchanged.
func (s *Service) OpenPreboarding(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status != models.StatusNew {
		s.record(ctx, userID, models.ActionPreboardingStart, "Открыл раздел пребординга", u)
		return u, nil
	}
	u, _, err = s.advance(ctx, userID, models.StageRegistration, status(models.StatusPreboarding),
		models.ActionPreboardingStart, "Начал пребординг")
	return u, err
}

// BeginDocuments starts the document checklist.
func (s *Service) BeginDocuments(ctx context.Context, userID int64) (*models.User, error) {
	u, _, err := s.advance(ctx, userID, models.StageDocumentsIntro, status(models.StatusPreboarding),
		models.ActionDocsIntro, "Начал процесс подготовки документов")
	return u, err
}

// ViewMainDocuments records that the main document list was shown.
func (s *Service) ViewMainDocuments(ctx context.Context, userID int64) {
	s.record(ctx, userID, models.ActionDocsMain, "Просмотрел список основных документов", nil)
}

// ViewLabourDocuments records that the labour code document list was shown.
func (s *Service) ViewLabourDocuments(ctx context.Context, userID int64) {
	s.record(ctx, userID, models.ActionDocsTK, "Просмотрел список документов по ТК РФ", nil)
}

// MarkMainDocsSent confirms that the main documents were emailed.
func (s *Service) MarkMainDocsSent(ctx context.Context, userID int64) (*models.User, error) {
	u, _, err := s.advance(ctx, userID, models.StageDocumentsMain, status(models.StatusPreboarding),
		models.ActionDocsMainSent, "Подтвердил отправку основных документов")
	return u, err
}

// MarkLabourDocsSent confirms that the labour code documents were emailed.
func (s *Service) MarkLabourDocsSent(ctx context.Context, userID int64) (*models.User, error) {
	u, _, err := s.advance(ctx, userID, models.StageDocumentsLabour, status(models.StatusPreboarding),
		models.ActionDocsTKSent, "Подтвердил отправку документов по ТК РФ")
	return u, err
}

// CompletePreboarding closes preboarding: every document has been sent.
func (s *Service) CompletePreboarding(ctx context.Context, userID int64) (*models.User, error) {
	u, _, err := s.advance(ctx, userID, models.StageDocumentsComplete, status(models.StatusPreboarded),
		models.ActionPreboardingDone, "Завершил пребординг")
	return u, err
}

// --- Onboarding ---

// OpenOnboarding opens the onboarding section. A preboarded user is promoted
// to onboarding and promoted is true. Users of other statuses are returned
// unchanged; callers decide what to show from the status.
func (s *Service) OpenOnboarding(ctx context.Context, userID int64) (u *models.User, promoted bool, err error) {
	u, err = s.user(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if u.Status != models.StatusPreboarded {
		s.record(ctx, userID, models.ActionOnboardingOpen, "Обратился к разделу онбординга", u)
		return u, false, nil
	}
	u, promoted, err = s.advance(ctx, userID, models.StageOnboardingStart, status(models.StatusOnboarding),
		models.ActionOnboardingOpen, "Перешел к онбордингу")
	return u, promoted, err
}

// BeginOnboarding starts the onboarding checklist with the corporate email step.
func (s *Service) BeginOnboarding(ctx context.Context, userID int64) (*models.User, error) {
	return s.onboardingStep(ctx, userID, models.StageEmailAccess,
		models.ActionOnboardingStart, "Начал процесс онбординга")
}

// ConfirmEmailAccess records that corporate credentials arrived.
func (s *Service) ConfirmEmailAccess(ctx context.Context, userID int64) (*models.User, error) {
	return s.onboardingStep(ctx, userID, models.StageTeamIntro,
		models.ActionEmailReceived, "Подтвердил получение доступа к почте")
}

// ReportEmailIssue records that corporate credentials did not arrive.
func (s *Service) ReportEmailIssue(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, userID, models.ActionEmailNotReceived, "Не получил доступ к корпоративной почте", u)
	s.logger.WithUser(userID).Warn("user reported missing email access")
	return u, nil
}

// OpenTeamIntro shows the team introduction.
func (s *Service) OpenTeamIntro(ctx context.Context, userID int64) (*models.User, error) {
	return s.onboardingStep(ctx, userID, models.StageMeetings,
		models.ActionTeamIntro, "Изучил информацию о команде")
}

// OpenMeetings shows the recurring meetings.
func (s *Service) OpenMeetings(ctx context.Context, userID int64) (*models.User, error) {
	return s.onboardingStep(ctx, userID, models.StageComplete,
		models.ActionMeetings, "Изучил информацию о планерках")
}

// CompleteOnboarding finishes the adaptation and notifies admins the first
// time it happens.
func (s *Service) CompleteOnboarding(ctx context.Context, userID int64, username string) (*models.User, error) {
	if err := s.requireSignedDocuments(ctx, userID); err != nil {
		return nil, err
	}
	u, changed, err := s.advance(ctx, userID, models.StageComplete, status(models.StatusCompleted),
		models.ActionOnboardingComplete, "Успешно завершил онбординг")
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyAdmins(ctx, completionNotice(u, username, s.now()))
	}
	return u, nil
}

func (s *Service) onboardingStep(ctx context.Context, userID int64, stage int, action, details string) (*models.User, error) {
	if err := s.requireSignedDocuments(ctx, userID); err != nil {
		return nil, err
	}
	u, _, err := s.advance(ctx, userID, stage, status(models.StatusOnboarding), action, details)
	return u, err
}

// requireSignedDocuments rejects onboarding steps before preboarding is done.
func (s *Service) requireSignedDocuments(ctx context.Context, userID int64) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if u.Status.Before(models.StatusPreboarded) {
		return ErrPreboardingIncomplete
	}
	return nil
}
