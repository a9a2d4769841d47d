package service

import (
	"context"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
)

// RemindStale nudges unfinished users who made no progress for the configured
// number of days. A user is reminded at most once per interval. It returns the
// number of delivered reminders.
func (s *Service) RemindStale(ctx context.Context) (int, error) {
	if !s.cfg.Onboarding.AutoReminders || s.sender == nil {
		return 0, nil
	}
	days := s.cfg.Onboarding.ReminderIntervalDays
	if days <= 0 {
		days = 3
	}
	users, err := s.store.StaleUsers(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		u := &users[i]
		if err := s.sender.SendText(ctx, u.UserID, reminderMessage(u, s.cfg.Contacts.HRTelegram)); err != nil {
			s.logger.WithUser(u.UserID).
				WithError(models.ErrorInfo{Message: err.Error(), Type: "send_error"}).
				Warn("reminder not delivered")
			continue
		}
		s.record(ctx, u.UserID, models.ActionReminder, models.NextStepHint(u.Stage), u)
		sent++
	}
	if sent > 0 {
		s.logger.WithPayload(map[string]interface{}{"reminded": sent, "stale": len(users)}).Info("reminders sent")
	}
	return sent, nil
}
