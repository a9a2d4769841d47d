package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/events"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
	"OnboardingBuddy/backend/go/pkg/logger"
)

const defaultPublishTimeout = 500 * time.Millisecond

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrNotAdmin              = errors.New("not an administrator")
	ErrMessageTooLong        = errors.New("message too long")
	ErrEmptyMessage          = errors.New("empty message")
	ErrPreboardingIncomplete = errors.New("preboarding is not complete")
)

// Sender delivers plain text messages to a chat. Admin notifications,
// broadcasts and reminders go through it.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Service holds the onboarding flow and the admin operations.
type Service struct {
	store  *store.Store
	cfg    *config.AppConfig
	events events.Publisher
	sender Sender
	logger *logger.Logger
	now    func() time.Time

	// publishTimeout bounds how long a user action waits for the event stream.
	publishTimeout time.Duration
}

// NewService wires the service. pub and sender may be nil: events are then
// dropped and notifications skipped.
func NewService(s *store.Store, cfg *config.AppConfig, pub events.Publisher, sender Sender, log *logger.Logger) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		store:  s,
		cfg:    cfg,
		events: pub,
		sender: sender,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },

		publishTimeout: defaultPublishTimeout,
	}
}

// SetSender attaches the chat transport once it is available.
func (s *Service) SetSender(sender Sender) {
	s.sender = sender
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.AppConfig {
	return s.cfg
}

// --- Registration ---

// Register creates the user on first contact or refreshes the profile of a
// returning one. Progress of a returning user is kept.
func (s *Service) Register(ctx context.Context, p models.Profile) (*models.User, bool, error) {
	_, err := s.store.GetUser(ctx, p.UserID)
	created := errors.Is(err, store.ErrNotFound)
	if err != nil && !created {
		return nil, false, err
	}

	if err := s.store.CreateUser(ctx, &models.User{
		UserID:   p.UserID,
		Username: p.Username,
		FullName: p.FullName(),
	}); err != nil {
		return nil, false, err
	}

	u, err := s.user(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	details := "Возврат в главное меню"
	if created {
		details = "Первый запуск бота"
		s.logger.WithUser(p.UserID).Info("new user registered")
	}
	s.record(ctx, u.UserID, models.ActionStart, details, u)
	return u, created, nil
}

// User loads a registered user.
func (s *Service) User(ctx context.Context, userID int64) (*models.User, error) {
	return s.user(ctx, userID)
}

// Track writes a plain activity entry for a registered or unknown user.
func (s *Service) Track(ctx context.Context, userID int64, action, details string) {
	s.record(ctx, userID, action, details, nil)
}

// ProgressReport is what the "my progress" screen shows.
type ProgressReport struct {
	User       *models.User
	LastAction *models.UserAction
}

// Progress returns the user with the latest recorded activity.
func (s *Service) Progress(ctx context.Context, userID int64) (*ProgressReport, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		s.record(ctx, userID, models.ActionProgress, "Проверил свой прогресс", nil)
		return nil, err
	}
	actions, err := s.store.UserActions(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	rep := &ProgressReport{User: u}
	if len(actions) > 0 {
		rep.LastAction = &actions[0]
	}
	s.record(ctx, userID, models.ActionProgress, "Проверил свой прогресс", u)
	return rep, nil
}

// --- Feedback ---

// StartFeedback records that the user opened the feedback form.
func (s *Service) StartFeedback(ctx context.Context, userID int64) {
	s.record(ctx, userID, models.ActionFeedbackStart, "Начал оставлять обратную связь", nil)
}

// SubmitFeedback stores a feedback message and notifies admins when enabled.
func (s *Service) SubmitFeedback(ctx context.Context, p models.Profile, text string) (*models.Feedback, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.cfg.Broadcast.MaxMessageLength {
		return nil, fmt.Errorf("%w: %d characters", ErrMessageTooLong, utf8.RuneCountInString(text))
	}

	f, err := s.store.SaveFeedback(ctx, p.UserID, text)
	if err != nil {
		return nil, err
	}
	s.record(ctx, p.UserID, models.ActionFeedback, "Отправил обратную связь: "+truncate(text, 50), nil)

	if s.cfg.Notifications.Feedback {
		u, err := s.store.GetUser(ctx, p.UserID)
		if err != nil {
			u = nil
		}
		s.notifyAdmins(ctx, feedbackNotice(s.cfg, u, p, text, s.now()))
	}
	return f, nil
}

// --- Helpers ---

func (s *Service) user(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// advance moves the user forward and records the step.
func (s *Service) advance(ctx context.Context, userID int64, stage int, status *models.UserStatus, action, details string) (*models.User, bool, error) {
	u, changed, err := s.store.UpdateStage(ctx, userID, stage, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, ErrUserNotFound
	}
	if err != nil {
		return nil, false, err
	}
	if changed {
		s.logger.WithUser(userID).WithPayload(map[string]interface{}{
			"stage":  u.Stage,
			"status": u.Status,
		}).Info("user progressed")
	}
	s.record(ctx, userID, action, details, u)
	return u, changed, nil
}

// record writes the activity row and mirrors it to the event stream. Failures
// are logged, they never break the conversation.
func (s *Service) record(ctx context.Context, userID int64, action, details string, u *models.User) {
	a, err := s.store.LogAction(ctx, userID, action, details)
	if err != nil {
		s.logger.WithUser(userID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).
			Error("failed to log user action")
		return
	}
	e := events.Event{UserID: userID, Action: action, Details: details, CreatedAt: a.CreatedAt}
	if u != nil {
		e.Stage = u.Stage
		e.Status = string(u.Status)
	}
	pctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, e); err != nil {
		s.logger.WithUser(userID).Debug("activity event not published")
	}
}

func (s *Service) notifyAdmins(ctx context.Context, text string) {
	if s.sender == nil || !s.cfg.Notifications.Enabled {
		return
	}
	for _, id := range s.cfg.Telegram.AdminIDs {
		if err := s.sender.SendText(ctx, id, text); err != nil {
			s.logger.WithUser(id).
				WithError(models.ErrorInfo{Message: err.Error(), Type: "send_error"}).
				Error("failed to notify administrator")
		}
	}
}

func status(st models.UserStatus) *models.UserStatus {
	return &st
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
