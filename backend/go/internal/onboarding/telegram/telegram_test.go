package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/bot"
	"OnboardingBuddy/backend/go/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	batches  [][]tgbotapi.Update
	offsets  []int
	reqErr   error
	cancel   context.CancelFunc
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, cfg.Offset)
	if len(f.batches) == 0 {
		f.cancel()
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

type recorder struct {
	got []bot.Update
}

func (r *recorder) Handle(_ context.Context, u bot.Update) {
	r.got = append(r.got, u)
}

func newClient(api API) *Client {
	return NewClient(api, 0, logger.New("telegram_test", "", ""))
}

func commandMessage(text string) *tgbotapi.Message {
	cmd := len(text)
	for i, r := range text {
		if r == ' ' {
			cmd = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 42, UserName: "anna", FirstName: "Анна", LastName: "Петрова"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmd}},
	}
}

func TestConvert(t *testing.T) {
	from := models.Profile{UserID: 42, Username: "anna", FirstName: "Анна", LastName: "Петрова"}
	tests := []struct {
		name string
		in   tgbotapi.Update
		want bot.Update
		ok   bool
	}{
		{
			name: "command with arguments",
			in:   tgbotapi.Update{Message: commandMessage("/broadcast Всем привет ")},
			want: bot.Update{ChatID: 42, MessageID: 7, From: from, Command: "broadcast", Args: "Всем привет"},
			ok:   true,
		},
		{
			name: "command addressed to the bot",
			in:   tgbotapi.Update{Message: commandMessage("/Start@onboarding_buddy_bot")},
			want: bot.Update{ChatID: 42, MessageID: 7, From: from, Command: "start"},
			ok:   true,
		},
		{
			name: "plain text",
			in: tgbotapi.Update{Message: &tgbotapi.Message{
				MessageID: 8,
				Chat:      &tgbotapi.Chat{ID: 42},
				From:      &tgbotapi.User{ID: 42, UserName: "anna", FirstName: "Анна", LastName: "Петрова"},
				Text:      "📋 Пребординг",
			}},
			want: bot.Update{ChatID: 42, MessageID: 8, From: from, Text: "📋 Пребординг"},
			ok:   true,
		},
		{
			name: "callback",
			in: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb1",
				From:    &tgbotapi.User{ID: 42, UserName: "anna", FirstName: "Анна", LastName: "Петрова"},
				Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: 42}},
				Data:    "docs_main",
			}},
			want: bot.Update{ChatID: 42, MessageID: 99, From: from, CallbackID: "cb1", CallbackData: "docs_main"},
			ok:   true,
		},
		{
			name: "sticker",
			in: tgbotapi.Update{Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: 42},
				From: &tgbotapi.User{ID: 42},
			}},
		},
		{
			name: "edited message",
			in:   tgbotapi.Update{EditedMessage: commandMessage("/start")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := convert(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSendKeyboards(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api)
	ctx := context.Background()

	id, err := c.Send(ctx, 42, bot.Reply{Text: "меню", Menu: [][]string{{"a", "b"}, {"c"}}})
	if err != nil || id != 1 {
		t.Fatalf("Send = %d, %v", id, err)
	}
	if _, err := c.Send(ctx, 42, bot.Reply{Text: "шаг", Inline: [][]bot.Button{
		{{Text: "Далее", Data: "next"}},
		{{Text: "Сайт", URL: "https://example.com"}},
	}}); err != nil {
		t.Fatal(err)
	}

	menu := api.sent[0].(tgbotapi.MessageConfig)
	kb, ok := menu.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || !kb.ResizeKeyboard || len(kb.Keyboard) != 2 || kb.Keyboard[0][1].Text != "b" {
		t.Errorf("unexpected reply keyboard: %#v", menu.ReplyMarkup)
	}

	step := api.sent[1].(tgbotapi.MessageConfig)
	inline, ok := step.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(inline.InlineKeyboard) != 2 {
		t.Fatalf("unexpected inline keyboard: %#v", step.ReplyMarkup)
	}
	if d := inline.InlineKeyboard[0][0].CallbackData; d == nil || *d != "next" {
		t.Errorf("callback data = %v", d)
	}
	if u := inline.InlineKeyboard[1][0].URL; u == nil || *u != "https://example.com" {
		t.Errorf("url = %v", u)
	}
}

func TestEditIgnoresNotModified(t *testing.T) {
	api := &fakeAPI{reqErr: &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}}
	c := newClient(api)
	if err := c.Edit(context.Background(), 42, 5, bot.Reply{Text: "same"}); err != nil {
		t.Errorf("Edit = %v, want nil", err)
	}

	api.reqErr = errors.New("Bad Request: message to edit not found")
	if err := c.Edit(context.Background(), 42, 5, bot.Reply{Text: "x"}); err == nil {
		t.Error("expected error for a missing message")
	}
}

func TestRunAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := &fakeAPI{cancel: cancel, batches: [][]tgbotapi.Update{
		{
			{UpdateID: 10, Message: commandMessage("/start")},
			{UpdateID: 11, EditedMessage: commandMessage("/help")},
		},
		{
			{UpdateID: 12, Message: commandMessage("/status")},
		},
	}}
	rec := &recorder{}

	if err := newClient(api).Run(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 12, 13}, api.offsets); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
	var commands []string
	for _, u := range rec.got {
		commands = append(commands, u.Command)
	}
	if diff := cmp.Diff([]string{"start", "status"}, commands); diff != "" {
		t.Errorf("handled commands mismatch (-want +got):\n%s", diff)
	}
}
