package telegram

import (
	"context"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/bot"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler consumes converted updates.
type Handler interface {
	Handle(ctx context.Context, u bot.Update)
}

const retryDelay = 3 * time.Second

// DropPending discards updates that arrived while the bot was offline.
func (c *Client) DropPending(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true})
	return err
}

// Run long-polls for updates and hands them to h one at a time until ctx is
// cancelled. Poll failures are logged and retried.
func (c *Client) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = c.pollTimeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	c.logger.WithPayload(map[string]interface{}{"timeout": c.pollTimeout}).Info("polling for updates")
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := c.api.GetUpdates(cfg)
		if err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "poll_error"}).
				Warn("failed to get updates, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}
		for _, up := range updates {
			if up.UpdateID >= cfg.Offset {
				cfg.Offset = up.UpdateID + 1
			}
			u, ok := convert(up)
			if !ok {
				continue
			}
			h.Handle(ctx, u)
		}
	}
}
