package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/internal/onboarding/session"
)

// handleText routes reply keyboard buttons and free text. Menu buttons win
// over a pending feedback prompt.
func (d *Dispatcher) handleText(ctx context.Context, u Update) error {
	text := strings.TrimSpace(u.Text)
	pending := d.mode(ctx, u.From.UserID)

	if isMenuButton(text) {
		if pending != session.ModeNone {
			d.clearMode(ctx, u.From.UserID)
		}
		return d.menu(ctx, u, text)
	}
	if pending == session.ModeFeedback {
		return d.submitFeedback(ctx, u)
	}
	if text == "" {
		return nil
	}
	d.svc.Track(ctx, u.From.UserID, models.ActionUnknownMessage, "Неизвестная команда: "+shorten(text, 50))
	return d.reply(ctx, u, Reply{Text: unknownCommandText})
}

func (d *Dispatcher) menu(ctx context.Context, u Update, text string) error {
	switch text {
	case BtnPreboarding:
		return d.preboarding(ctx, u)
	case BtnOnboarding:
		return d.onboarding(ctx, u)
	case BtnInfo:
		d.svc.Track(ctx, u.From.UserID, models.ActionInfo, "Открыл полезную информацию")
		return d.reply(ctx, u, Reply{Text: infoIntroText(d.cfg), Menu: infoMenu})
	case BtnFAQ:
		d.svc.Track(ctx, u.From.UserID, models.ActionFAQ, "Открыл FAQ")
		return d.reply(ctx, u, Reply{Text: faqIntroText, Menu: faqMenu})
	case BtnContacts:
		d.svc.Track(ctx, u.From.UserID, models.ActionContacts, "Открыл контакты сотрудников")
		return d.reply(ctx, u, Reply{Text: employeeContactsText(d.cfg)})
	case BtnSupport:
		d.svc.Track(ctx, u.From.UserID, models.ActionSupport, "Открыл поддержку")
		return d.reply(ctx, u, Reply{Text: supportText(d.cfg)})
	case BtnFeedback:
		d.svc.StartFeedback(ctx, u.From.UserID)
		if err := d.sessions.SetMode(ctx, u.From.UserID, session.ModeFeedback); err != nil {
			return err
		}
		return d.reply(ctx, u, Reply{Text: feedbackPromptText(d.cfg)})
	case BtnProgress:
		return d.progress(ctx, u)
	case BtnMainMenu:
		return d.start(ctx, u)
	}

	if answer, ok := infoAnswers[text]; ok {
		d.svc.Track(ctx, u.From.UserID, models.ActionInfo, text)
		return d.reply(ctx, u, Reply{Text: answer(d.cfg)})
	}
	if answer, ok := faqAnswers[text]; ok {
		d.svc.Track(ctx, u.From.UserID, models.ActionFAQ, text)
		return d.reply(ctx, u, Reply{Text: answer(d.cfg)})
	}
	return d.reply(ctx, u, Reply{Text: unknownCommandText})
}

func (d *Dispatcher) preboarding(ctx context.Context, u Update) error {
	user, err := d.svc.OpenPreboarding(ctx, u.From.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return d.notRegistered(ctx, u)
	}
	if err != nil {
		return err
	}
	switch user.Status {
	case models.StatusCompleted:
		return d.reply(ctx, u, Reply{Text: preboardingFinishedText})
	case models.StatusPreboarded, models.StatusOnboarding:
		return d.reply(ctx, u, Reply{Text: preboardingDoneText})
	}
	return d.reply(ctx, u, Reply{
		Text:   preboardingIntroText(d.cfg, u.From.FirstName),
		Inline: preboardingStartKeyboard(),
	})
}

func (d *Dispatcher) onboarding(ctx context.Context, u Update) error {
	user, promoted, err := d.svc.OpenOnboarding(ctx, u.From.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return d.notRegistered(ctx, u)
	}
	if err != nil {
		return err
	}
	switch {
	case promoted:
		return d.reply(ctx, u, Reply{Text: onboardingWelcomeText(d.cfg), Inline: startOnboardingKeyboard()})
	case user.Status == models.StatusNew:
		return d.reply(ctx, u, Reply{Text: onboardingLockedNewText})
	case user.Status == models.StatusPreboarding:
		return d.reply(ctx, u, Reply{Text: onboardingLockedPreboardingText(d.cfg)})
	case user.Status == models.StatusCompleted:
		return d.reply(ctx, u, Reply{Text: onboardingFinishedText})
	}
	return d.reply(ctx, u, Reply{Text: onboardingResumeText(user), Inline: resumeKeyboard(user.Stage)})
}

// resumeKeyboard offers the step following the last reached stage.
func resumeKeyboard(stage int) [][]Button {
	switch {
	case stage < models.StageEmailAccess:
		return startOnboardingKeyboard()
	case stage == models.StageEmailAccess:
		return emailAccessKeyboard()
	case stage == models.StageTeamIntro:
		return onboardingNextKeyboard()
	case stage == models.StageMeetings:
		return teamIntroNextKeyboard()
	default:
		return meetingsNextKeyboard()
	}
}

// submitFeedback consumes the pending prompt unless the text is blank.
func (d *Dispatcher) submitFeedback(ctx context.Context, u Update) error {
	if strings.HasPrefix(u.Text, "/") {
		d.clearMode(ctx, u.From.UserID)
		return d.reply(ctx, u, Reply{Text: feedbackCancelledText})
	}
	_, err := d.svc.SubmitFeedback(ctx, u.From, u.Text)
	if errors.Is(err, service.ErrEmptyMessage) {
		return d.reply(ctx, u, Reply{Text: feedbackEmptyText})
	}
	d.clearMode(ctx, u.From.UserID)
	switch {
	case errors.Is(err, service.ErrMessageTooLong):
		return d.reply(ctx, u, Reply{Text: fmt.Sprintf(
			"❌ Сообщение слишком длинное.\nМаксимум: %d символов.\n\nСократите текст и снова нажмите \"%s\".",
			d.cfg.Broadcast.MaxMessageLength, BtnFeedback)})
	case err != nil:
		d.logger.WithUser(u.From.UserID).Error("failed to save feedback: " + err.Error())
		return d.reply(ctx, u, Reply{Text: feedbackFailedText(d.cfg)})
	}
	return d.reply(ctx, u, Reply{Text: feedbackThanksText(d.cfg)})
}

func (d *Dispatcher) progress(ctx context.Context, u Update) error {
	rep, err := d.svc.Progress(ctx, u.From.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return d.reply(ctx, u, Reply{Text: "❓ Данные о прогрессе не найдены.\nИспользуйте /start для регистрации."})
	}
	if err != nil {
		return err
	}
	return d.reply(ctx, u, Reply{Text: progressText(d.cfg, rep, u.From, time.Now().UTC())})
}

func progressText(cfg *config.AppConfig, rep *service.ProgressReport, p models.Profile, now time.Time) string {
	user := rep.User
	lastActivity := "Нет данных"
	if rep.LastAction != nil {
		lastActivity = rep.LastAction.Action + " - " + formatShortDateTime(rep.LastAction.CreatedAt)
	}
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return fmt.Sprintf(`📊 Ваш прогресс в %s

👤 Информация о профиле:
• Имя: %s
• Username: @%s
• Должность: %s

---

🎯 Текущий статус:
%s %s

📈 Прогресс адаптации:
Этап %d из %d (%.0f%%)

%s

Текущий этап: %s

---

🎯 Следующие шаги:
%s

---

📅 Временная статистика:
• Дата регистрации: %s
• Время в системе: %s
• Последнее обновление: %s

📋 Последняя активность:
%s

---

%s

📞 Нужна помощь?
• HR-отдел: %s
• Техподдержка: %s
• Обратная связь: используйте раздел "%s"`,
		cfg.Company.Name,
		orDefault(user.FullName, "Не указано"), orDefault(p.Username, "Не указан"), orDefault(user.Position, "Не указана"),
		user.Status.Emoji(), user.Status.DisplayName(),
		user.Stage, models.MaxStage, user.ProgressPercent(),
		progressBar(user.Stage, models.MaxStage, 20),
		models.StageName(user.Stage),
		nextStepDescription(user),
		formatDate(user.CreatedAt), timeInSystem(user.CreatedAt, now), formatShortDateTime(user.UpdatedAt),
		lastActivity,
		recommendationsText(user.Status),
		cfg.Contacts.HRTelegram, cfg.Contacts.SupportTelegram, BtnFeedback)
}

// --- Useful information and FAQ ---

func infoIntroText(cfg *config.AppConfig) string {
	return fmt.Sprintf(`📚 Полезная информация

Здесь собраны основные материалы о %s.
Выберите раздел в меню ниже.

🌐 Сайт компании: %s
📖 Справочник сотрудника: %s`, cfg.Company.Name, cfg.Links.CompanySite, cfg.Links.Handbook)
}

const faqIntroText = `❓ Часто задаваемые вопросы

Выберите тему в меню ниже.
Не нашли ответ? Напишите в раздел "💬 Обратная связь" или обратитесь в HR-отдел.`

var infoAnswers = map[string]func(*config.AppConfig) string{
	BtnAbout: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`🏢 О компании %s

Мы создаем IT-решения для бизнеса и ценим профессионализм, открытость и взаимопомощь.

🌐 Подробнее о компании: %s
👥 Наша команда: %s`, cfg.Company.Name, cfg.Links.CompanySite, cfg.Links.TeamPage)
	},
	BtnCulture: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`📜 Корпоративная культура

• Мы открыто делимся знаниями и помогаем новичкам
• Вопросы приветствуются: лучше спросить, чем ошибиться
• Обратная связь помогает нам становиться лучше

📖 Правила и стандарты компании описаны в справочнике сотрудника:
%s`, cfg.Links.Handbook)
	},
	BtnTools: func(cfg *config.AppConfig) string {
		portal := cfg.Links.Portal
		if portal == "" {
			portal = cfg.Links.CompanySite
		}
		return fmt.Sprintf(`🔧 Инструменты и ресурсы

📧 Корпоративная почта - основной канал коммуникации
💬 Корпоративные чаты - общение с командой
📁 Облачное хранилище - рабочие документы

🌐 Портал сотрудника: %s
💻 Доступы и настройка: %s`, portal, cfg.Contacts.SupportEmail)
	},
	BtnCalendar: func(cfg *config.AppConfig) string {
		calendar := cfg.Links.Calendar
		if calendar == "" {
			calendar = "В корпоративной почте"
		}
		return fmt.Sprintf(`📅 Календарь мероприятий

🏢 Общая планерка - понедельник, 10:00
💻 IT-отдел - среда, 11:00
📈 Маркетинг - пятница, 14:00
👥 HR-встречи - первая пятница месяца, 15:00

📅 Календарь событий: %s`, calendar)
	},
}

var faqAnswers = map[string]func(*config.AppConfig) string{
	BtnSalary: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`💰 Зарплата и льготы

• Зарплата выплачивается дважды в месяц на карту из банковских реквизитов
• Реквизиты можно изменить, написав в HR-отдел
• Список льгот описан в справочнике сотрудника: %s

По индивидуальным вопросам: %s`, cfg.Links.Handbook, cfg.Contacts.HRTelegram)
	},
	BtnHours: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`🕐 Рабочее время

• Рабочие дни: Пн-Пт
• Основное время: 9:00 - 18:00
• Об опозданиях и отсутствии предупреждайте руководителя заранее

Вопросы по графику: %s`, cfg.Contacts.HRTelegram)
	},
	BtnVacation: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`🏖️ Отпуска и больничные

• Заявление на отпуск подается в HR-отдел не позднее чем за 2 недели
• О больничном сообщите руководителю и HR в первый день
• Электронный больничный лист оформляется автоматически

📧 %s
📱 %s`, cfg.Contacts.HREmail, cfg.Contacts.HRTelegram)
	},
	BtnTraining: func(cfg *config.AppConfig) string {
		return fmt.Sprintf(`🎓 Обучение

• План развития составляется вместе с руководителем
• Внутренние материалы и курсы доступны на портале сотрудника
• Предложения по обучению отправляйте через "💬 Обратная связь"

📖 Справочник сотрудника: %s`, cfg.Links.Handbook)
	},
}
