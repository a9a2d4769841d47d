package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
)

type stepFunc func(ctx context.Context, userID int64) (*models.User, error)

type step struct {
	run    stepFunc
	text   func(d *Dispatcher, u Update) string
	inline func() [][]Button
}

// steps maps the preboarding and onboarding buttons to their service call
// and the screen shown afterwards.
func (d *Dispatcher) steps() map[string]step {
	return map[string]step{
		CbStartPreboarding: {d.svc.BeginDocuments, func(d *Dispatcher, _ Update) string { return documentsIntroText(d.cfg) }, documentCategoriesKeyboard},
		CbDocsMain:         {d.viewMain, func(d *Dispatcher, _ Update) string { return mainDocumentsText(d.cfg) }, docsMainKeyboard},
		CbDocsTK:           {d.viewLabour, func(d *Dispatcher, _ Update) string { return labourDocumentsText(d.cfg) }, docsTKKeyboard},
		CbDocsMainSent:     {d.svc.MarkMainDocsSent, func(d *Dispatcher, _ Update) string { return mainDocsSentText(d.cfg) }, docsCompletionKeyboard},
		CbDocsTKSent:       {d.svc.MarkLabourDocsSent, func(d *Dispatcher, _ Update) string { return labourDocsSentText(d.cfg) }, docsCompletionKeyboard},
		CbAllDocsSent:      {d.svc.CompletePreboarding, func(d *Dispatcher, _ Update) string { return preboardingCompleteText(d.cfg) }, documentsReceivedKeyboard},
		CbStartOnboarding:  {d.svc.BeginOnboarding, func(d *Dispatcher, _ Update) string { return emailStepText(d.cfg) }, emailAccessKeyboard},
		CbEmailReceived:    {d.svc.ConfirmEmailAccess, func(d *Dispatcher, _ Update) string { return emailReceivedText(d.cfg) }, onboardingNextKeyboard},
		CbEmailNotReceived: {d.svc.ReportEmailIssue, func(d *Dispatcher, u Update) string { return emailIssueText(d.cfg, u.From.UserID) }, emailRetryKeyboard},
		CbTeamIntro:        {d.svc.OpenTeamIntro, func(d *Dispatcher, _ Update) string { return teamIntroText(d.cfg) }, teamIntroNextKeyboard},
		CbMeetings:         {d.svc.OpenMeetings, func(d *Dispatcher, _ Update) string { return meetingsText(d.cfg) }, meetingsNextKeyboard},
	}
}

func (d *Dispatcher) viewMain(ctx context.Context, userID int64) (*models.User, error) {
	d.svc.ViewMainDocuments(ctx, userID)
	return d.svc.User(ctx, userID)
}

func (d *Dispatcher) viewLabour(ctx context.Context, userID int64) (*models.User, error) {
	d.svc.ViewLabourDocuments(ctx, userID)
	return d.svc.User(ctx, userID)
}

func (d *Dispatcher) handleCallback(ctx context.Context, u Update) error {
	data := u.CallbackData

	if isAdminCallback(data) {
		if !d.cfg.IsAdmin(u.From.UserID) {
			d.answer(ctx, u, "❌ Нет доступа")
			return nil
		}
		d.answer(ctx, u, "")
		return d.adminCallback(ctx, u)
	}
	d.answer(ctx, u, "")

	if st, ok := d.steps()[data]; ok {
		_, err := st.run(ctx, u.From.UserID)
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return d.notRegistered(ctx, u)
		case errors.Is(err, service.ErrPreboardingIncomplete):
			return d.respond(ctx, u, Reply{Text: onboardingNeedsDocumentsText})
		case err != nil:
			return err
		}
		return d.respond(ctx, u, Reply{Text: st.text(d, u), Inline: st.inline()})
	}

	switch data {
	case CbCompleteOnboard:
		_, err := d.svc.CompleteOnboarding(ctx, u.From.UserID, u.From.Username)
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return d.notRegistered(ctx, u)
		case errors.Is(err, service.ErrPreboardingIncomplete):
			return d.respond(ctx, u, Reply{Text: onboardingNeedsDocumentsText})
		case err != nil:
			return err
		}
		return d.respond(ctx, u, Reply{Text: onboardingCompleteText(d.cfg)})
	case CbBackToMain:
		return d.start(ctx, u)
	case CbCancel:
		d.clearMode(ctx, u.From.UserID)
		return d.respond(ctx, u, Reply{Text: "❌ Действие отменено."})
	case CbNoop:
		return nil
	}

	d.logger.WithUser(u.From.UserID).Warn("unknown callback: " + data)
	return d.respond(ctx, u, Reply{Text: "❓ Неизвестная команда. Возможно, эта функция еще не реализована.\n\n" +
		"Используйте /start для возврата в главное меню."})
}

func isAdminCallback(data string) bool {
	return strings.HasPrefix(data, "admin_") ||
		data == CbConfirmCleanup ||
		strings.HasPrefix(data, cbUsersPagePrefix) ||
		strings.HasPrefix(data, cbFeedbackPrefix) ||
		strings.HasPrefix(data, cbFilterPrefix)
}

// parsePage splits "N" or "N_<status>" taken from pagination callback data.
// A malformed page number yields page 1.
func parsePage(rest string) (int, models.UserStatus) {
	num, filter, _ := strings.Cut(rest, "_")
	page, err := strconv.Atoi(num)
	if err != nil {
		page = 1
	}
	return page, parseFilter(filter)
}

// parseFilter maps "all" and unknown values to the empty filter.
func parseFilter(s string) models.UserStatus {
	st, ok := models.ParseStatus(s)
	if !ok {
		return ""
	}
	return st
}
