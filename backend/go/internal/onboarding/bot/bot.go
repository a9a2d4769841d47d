package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/export"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/internal/onboarding/session"
	"OnboardingBuddy/backend/go/pkg/logger"
	"OnboardingBuddy/backend/go/pkg/ratelimiter"
)

// Update is one incoming chat event, independent of the transport.
type Update struct {
	ChatID    int64
	MessageID int // message carrying the pressed inline button
	From      models.Profile

	Text    string // message text, empty for callbacks
	Command string // command name without the slash, e.g. "start"
	Args    string // text after the command

	CallbackID   string
	CallbackData string
}

// IsCallback reports whether the update is an inline button press.
func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}

// Button is an inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Reply is an outgoing message. Inline buttons are attached to the message;
// Menu replaces the reply keyboard and is ignored on edits.
type Reply struct {
	Text   string
	Inline [][]Button
	Menu   [][]string
}

// Messenger sends replies through the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, r Reply) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, r Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Exporter produces a data export on demand.
type Exporter interface {
	Run(ctx context.Context) (*export.Result, error)
}

// Dispatcher routes updates to the onboarding handlers.
type Dispatcher struct {
	svc      *service.Service
	cfg      *config.AppConfig
	msg      Messenger
	sessions session.Store
	flood    *ratelimiter.PerUser
	exporter Exporter
	logger   *logger.Logger

	background sync.WaitGroup
	baseCtx    context.Context
}

// New creates a dispatcher. exporter may be nil, the export button then
// reports that exports are unavailable.
func New(svc *service.Service, msg Messenger, sessions session.Store, exporter Exporter, log *logger.Logger) *Dispatcher {
	cfg := svc.Config()
	limit := cfg.FloodControl.Limit
	if limit <= 0 {
		limit = 10
	}
	return &Dispatcher{
		svc:      svc,
		cfg:      cfg,
		msg:      msg,
		sessions: sessions,
		flood:    ratelimiter.NewPerUser(limit, cfg.FloodWindow()),
		exporter: exporter,
		logger:   log,
		baseCtx:  context.Background(),
	}
}

// SetBaseContext sets the context long running jobs (broadcasts) derive from.
func (d *Dispatcher) SetBaseContext(ctx context.Context) {
	d.baseCtx = ctx
}

// Wait blocks until background jobs started by handlers have finished.
func (d *Dispatcher) Wait() {
	d.background.Wait()
}

// SweepFlood drops idle flood control entries.
func (d *Dispatcher) SweepFlood() int {
	return d.flood.Sweep()
}

// Handle processes one update. Handler errors and panics are logged and
// answered with an apology naming the support contact.
func (d *Dispatcher) Handle(ctx context.Context, u Update) {
	log := d.logger.WithUser(u.From.UserID)
	defer func() {
		if r := recover(); r != nil {
			log.WithError(models.ErrorInfo{
				Message: fmt.Sprint(r),
				Stack:   string(debug.Stack()),
				Type:    "panic",
			}).Error("panic while handling update")
			d.apologize(ctx, u)
		}
	}()

	if u.From.UserID == 0 {
		return
	}
	if !d.cfg.IsAdmin(u.From.UserID) && !d.flood.Allow(u.From.UserID) {
		d.slowDown(ctx, u)
		return
	}

	var err error
	switch {
	case u.IsCallback():
		err = d.handleCallback(ctx, u)
	case u.Command != "":
		err = d.handleCommand(ctx, u)
	default:
		err = d.handleText(ctx, u)
	}
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: errorType(err)}).
			WithPayload(map[string]interface{}{"command": u.Command, "callback": u.CallbackData}).
			Error("failed to handle update")
		d.apologize(ctx, u)
	}
}

func (d *Dispatcher) slowDown(ctx context.Context, u Update) {
	wait := d.flood.RetryAfter(u.From.UserID)
	d.logger.WithUser(u.From.UserID).
		WithPayload(map[string]interface{}{"retry_after": wait.String()}).
		Debug("request throttled")
	text := fmt.Sprintf("⏳ Слишком много запросов. Подождите %d сек. и попробуйте снова.", int(wait.Seconds())+1)
	if u.IsCallback() {
		d.answer(ctx, u, text)
		return
	}
	d.send(ctx, u.ChatID, Reply{Text: text})
}

// apologize sends a new message. Callbacks were already answered by
// handleCallback.
func (d *Dispatcher) apologize(ctx context.Context, u Update) {
	text := "😔 Произошла ошибка при обработке вашего запроса.\n" +
		"Пожалуйста, попробуйте еще раз или обратитесь в поддержку.\n\n" +
		"Поддержка: " + d.cfg.Contacts.SupportTelegram
	d.send(ctx, u.ChatID, Reply{Text: text})
}

// respond edits the message of a pressed button, or sends a new message.
func (d *Dispatcher) respond(ctx context.Context, u Update, r Reply) error {
	if u.IsCallback() && u.MessageID != 0 && r.Menu == nil {
		return d.msg.Edit(ctx, u.ChatID, u.MessageID, r)
	}
	_, err := d.msg.Send(ctx, u.ChatID, r)
	return err
}

func (d *Dispatcher) reply(ctx context.Context, u Update, r Reply) error {
	_, err := d.msg.Send(ctx, u.ChatID, r)
	return err
}

// send is used where a failure can only be logged.
func (d *Dispatcher) send(ctx context.Context, chatID int64, r Reply) {
	if _, err := d.msg.Send(ctx, chatID, r); err != nil {
		d.logger.WithUser(chatID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "send_error"}).
			Error("failed to send message")
	}
}

func (d *Dispatcher) answer(ctx context.Context, u Update, text string) {
	if err := d.msg.AnswerCallback(ctx, u.CallbackID, text); err != nil {
		d.logger.WithUser(u.From.UserID).Debug("callback answer failed: " + err.Error())
	}
}

// notRegistered answers users who never pressed /start.
func (d *Dispatcher) notRegistered(ctx context.Context, u Update) error {
	return d.respond(ctx, u, Reply{Text: "⚠️ Пользователь не найден. Используйте /start для регистрации."})
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, service.ErrUserNotFound):
		return "not_found"
	default:
		return "handler_error"
	}
}

func isMenuButton(text string) bool {
	for _, menu := range [][][]string{mainMenu, infoMenu, faqMenu} {
		for _, row := range menu {
			for _, b := range row {
				if b == text {
					return true
				}
			}
		}
	}
	return false
}
