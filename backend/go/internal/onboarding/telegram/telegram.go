// Package telegram connects the onboarding dispatcher to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/bot"
	"OnboardingBuddy/backend/go/pkg/circuitbreaker"
	bhttp "OnboardingBuddy/backend/go/pkg/http"
	"OnboardingBuddy/backend/go/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of tgbotapi.BotAPI the adapter uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Client sends replies through the Bot API and receives updates by long polling.
type Client struct {
	api         API
	pollTimeout int
	logger      *logger.Logger
}

// Connect authenticates the token with getMe. Outgoing calls go through a
// circuit breaker when cfg.Breaker is enabled.
func Connect(cfg config.TelegramConfig, debug bool, log *logger.Logger) (*Client, error) {
	timeout := time.Duration(cfg.PollTimeout+10) * time.Second
	httpClient, err := bhttp.NewClient(cfg.Breaker, timeout,
		circuitbreaker.OnStateChange(func(from, to circuitbreaker.State) {
			log.WithPayload(map[string]interface{}{"from": from.String(), "to": to.String()}).
				Warn("telegram circuit breaker state changed")
		}))
	if err != nil {
		return nil, fmt.Errorf("create telegram http client: %w", err)
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = debug
	log.WithPayload(map[string]interface{}{"bot": api.Self.UserName}).Info("authorized on telegram")
	return NewClient(api, cfg.PollTimeout, log), nil
}

// NewClient wraps an already connected API.
func NewClient(api API, pollTimeout int, log *logger.Logger) *Client {
	if pollTimeout <= 0 {
		pollTimeout = 20
	}
	return &Client{api: api, pollTimeout: pollTimeout, logger: log}
}

// Send posts a new message and returns its id.
func (c *Client) Send(ctx context.Context, chatID int64, r bot.Reply) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.DisableWebPagePreview = true
	switch {
	case r.Menu != nil:
		msg.ReplyMarkup = replyKeyboard(r.Menu)
	case r.Inline != nil:
		msg.ReplyMarkup = inlineKeyboard(r.Inline)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// SendText posts a plain message. It is used for notifications and broadcasts.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.Send(ctx, chatID, bot.Reply{Text: text})
	return err
}

// Edit replaces the text and inline keyboard of a message. Edits that do not
// change anything are not errors.
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, r bot.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	edit.DisableWebPagePreview = true
	if r.Inline != nil {
		markup := inlineKeyboard(r.Inline)
		edit.ReplyMarkup = &markup
	}
	if _, err := c.api.Request(edit); err != nil && !notModified(err) {
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback stops the loading indicator of a pressed button. A non-empty
// text is shown as a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SendDocument uploads a local file.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("send document %s: %w", path, err)
	}
	return nil
}

func notModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}

func replyKeyboard(menu [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(menu))
	for _, row := range menu {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		rows = append(rows, buttons)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func inlineKeyboard(inline [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(inline))
	for _, row := range inline {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// convert maps a Bot API update to a dispatcher update. Updates the bot does
// not handle (edited messages, channel posts, stickers) are reported as false.
func convert(up tgbotapi.Update) (bot.Update, bool) {
	switch {
	case up.CallbackQuery != nil:
		q := up.CallbackQuery
		u := bot.Update{
			From:         profile(q.From),
			CallbackID:   q.ID,
			CallbackData: q.Data,
		}
		if q.Message != nil {
			u.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				u.ChatID = q.Message.Chat.ID
			}
		}
		if u.ChatID == 0 {
			u.ChatID = u.From.UserID
		}
		return u, true
	case up.Message != nil:
		m := up.Message
		if m.Chat == nil || m.From == nil {
			return bot.Update{}, false
		}
		u := bot.Update{
			ChatID:    m.Chat.ID,
			MessageID: m.MessageID,
			From:      profile(m.From),
		}
		if m.IsCommand() {
			u.Command = strings.ToLower(m.Command())
			u.Args = strings.TrimSpace(m.CommandArguments())
			return u, true
		}
		if m.Text == "" {
			return bot.Update{}, false
		}
		u.Text = m.Text
		return u, true
	}
	return bot.Update{}, false
}

func profile(from *tgbotapi.User) models.Profile {
	if from == nil {
		return models.Profile{}
	}
	return models.Profile{
		UserID:    from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
}
