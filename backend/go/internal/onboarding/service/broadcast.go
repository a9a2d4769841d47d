package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"OnboardingBuddy/backend/go/internal/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

// BroadcastProgress is reported while a broadcast is running.
type BroadcastProgress struct {
	Done   int
	Total  int
	Sent   int
	Failed int
}

// Percent is the share of processed recipients.
func (p BroadcastProgress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// CheckBroadcast validates broadcast text without sending anything.
func (s *Service) CheckBroadcast(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.Broadcast.MaxMessageLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrMessageTooLong, n, s.cfg.Broadcast.MaxMessageLength)
	}
	return nil
}

// Broadcast sends text to every registered user, pacing the sends by the
// configured delay. progress, when not nil, is called every ProgressEvery
// recipients. Failed sends are counted, never retried. The outcome is stored
// even when ctx is cancelled halfway.
func (s *Service) Broadcast(ctx context.Context, adminID int64, text string, progress func(BroadcastProgress)) (*models.Broadcast, error) {
	if err := s.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := s.CheckBroadcast(text); err != nil {
		return nil, err
	}
	if s.sender == nil {
		return nil, fmt.Errorf("broadcast: no chat transport configured")
	}
	text = strings.TrimSpace(text)

	ids, err := s.store.UserIDs(ctx)
	if err != nil {
		return nil, err
	}

	b := &models.Broadcast{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		Text:      text,
		Total:     len(ids),
		StartedAt: s.now(),
	}
	s.record(ctx, adminID, models.ActionBroadcastStart, "Начал рассылку: "+truncate(text, 50), nil)
	log := s.logger.WithUser(adminID).WithPayload(map[string]interface{}{"broadcast_id": b.ID, "recipients": b.Total})
	log.Info("broadcast started")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d := s.cfg.Broadcast.DelayDuration(); d > 0 {
		limiter = rate.NewLimiter(rate.Every(d), 1)
	}
	every := s.cfg.Broadcast.ProgressEvery
	if every <= 0 {
		every = 10
	}

	message := broadcastMessage(s.cfg.Company.Name, text)
	var failedIDs []int64
	var runErr error
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}
		if err := s.sender.SendText(ctx, id, message); err != nil {
			b.Failed++
			failedIDs = append(failedIDs, id)
			s.logger.WithUser(id).
				WithError(models.ErrorInfo{Message: err.Error(), Type: "send_error"}).
				Warn("broadcast message not delivered")
		} else {
			b.Sent++
		}
		if progress != nil && (i+1)%every == 0 && i+1 < len(ids) {
			progress(BroadcastProgress{Done: i + 1, Total: b.Total, Sent: b.Sent, Failed: b.Failed})
		}
	}

	if len(failedIDs) > 0 {
		raw, err := json.Marshal(failedIDs)
		if err != nil {
			return nil, fmt.Errorf("marshal failed recipients: %w", err)
		}
		b.FailedUserIDs = datatypes.JSON(raw)
	}
	b.FinishedAt = s.now()

	// the context may already be done, the record is still worth keeping
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.SaveBroadcast(saveCtx, b); err != nil {
		return nil, err
	}
	s.record(saveCtx, adminID, models.ActionBroadcastDone,
		fmt.Sprintf("Завершил рассылку: %d отправлено, %d ошибок", b.Sent, b.Failed), nil)
	log.WithPayload(map[string]interface{}{"sent": b.Sent, "failed": b.Failed}).Info("broadcast finished")

	if runErr != nil {
		return b, fmt.Errorf("broadcast interrupted: %w", runErr)
	}
	return b, nil
}
