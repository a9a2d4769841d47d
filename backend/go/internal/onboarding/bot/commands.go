package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/internal/onboarding/session"
)

func (d *Dispatcher) handleCommand(ctx context.Context, u Update) error {
	// Any command ends a pending feedback prompt.
	if d.mode(ctx, u.From.UserID) == session.ModeFeedback {
		d.clearMode(ctx, u.From.UserID)
		if err := d.reply(ctx, u, Reply{Text: feedbackCancelledText}); err != nil {
			return err
		}
		if u.Command == "cancel" {
			return nil
		}
	}

	switch u.Command {
	case "start":
		return d.start(ctx, u)
	case "help":
		d.svc.Track(ctx, u.From.UserID, models.ActionHelp, "Запросил справку")
		return d.reply(ctx, u, Reply{Text: helpText(d.cfg)})
	case "status":
		return d.status(ctx, u)
	case "contacts":
		d.svc.Track(ctx, u.From.UserID, models.ActionContacts, "Запросил контакты")
		return d.reply(ctx, u, Reply{Text: contactsText(d.cfg)})
	case "admin":
		return d.adminPanel(ctx, u)
	case "broadcast":
		return d.broadcast(ctx, u)
	case "users":
		return d.usersList(ctx, u)
	case "reset":
		return d.resetRequest(ctx, u)
	case "cancel":
		d.clearMode(ctx, u.From.UserID)
		return d.reply(ctx, u, Reply{Text: "❌ Действие отменено.", Menu: mainMenu})
	default:
		d.svc.Track(ctx, u.From.UserID, models.ActionUnknownMessage, "Неизвестная команда: /"+u.Command)
		return d.reply(ctx, u, Reply{Text: unknownCommandText})
	}
}

// start registers the user and shows the main menu.
func (d *Dispatcher) start(ctx context.Context, u Update) error {
	d.clearMode(ctx, u.From.UserID)
	user, created, err := d.svc.Register(ctx, u.From)
	if err != nil {
		return err
	}
	firstName := u.From.FirstName
	if firstName == "" {
		firstName = user.DisplayName()
	}
	text := welcomeBackText(user, firstName)
	if created {
		text = welcomeNewText(d.cfg, firstName)
	}
	return d.reply(ctx, u, Reply{Text: text, Menu: mainMenu})
}

func (d *Dispatcher) status(ctx context.Context, u Update) error {
	user, err := d.svc.User(ctx, u.From.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return d.reply(ctx, u, Reply{Text: "❓ Вы еще не зарегистрированы.\nИспользуйте /start для начала работы."})
	}
	if err != nil {
		return err
	}
	d.svc.Track(ctx, u.From.UserID, models.ActionStatus, "Проверил статус")
	return d.reply(ctx, u, Reply{Text: statusText(user)})
}

func (d *Dispatcher) broadcast(ctx context.Context, u Update) error {
	if !d.cfg.IsAdmin(u.From.UserID) {
		return d.reply(ctx, u, Reply{Text: "❌ У вас нет прав для рассылки."})
	}
	text := strings.TrimSpace(u.Args)
	err := d.svc.CheckBroadcast(text)
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return d.reply(ctx, u, Reply{Text: "❌ Укажите текст сообщения после команды /broadcast\n\n" +
			"Пример:\n/broadcast Уважаемые коллеги! Завтра в офисе будет проходить team building."})
	case errors.Is(err, service.ErrMessageTooLong):
		return d.reply(ctx, u, Reply{Text: fmt.Sprintf("❌ Сообщение слишком длинное (%d символов).\nМаксимум: %d символов.",
			len([]rune(text)), d.cfg.Broadcast.MaxMessageLength)})
	case err != nil:
		return err
	}
	return d.startBroadcast(ctx, u, text)
}

func (d *Dispatcher) mode(ctx context.Context, userID int64) session.Mode {
	m, err := d.sessions.Mode(ctx, userID)
	if err != nil {
		d.logger.WithUser(userID).Warn("session lookup failed: " + err.Error())
		return session.ModeNone
	}
	return m
}

func (d *Dispatcher) clearMode(ctx context.Context, userID int64) {
	if err := d.sessions.Clear(ctx, userID); err != nil {
		d.logger.WithUser(userID).Warn("session clear failed: " + err.Error())
	}
}
