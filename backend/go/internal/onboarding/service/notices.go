package service

import (
	"fmt"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
)

const dateTimeLayout = "02.01.2006 15:04:05"

func completionNotice(u *models.User, username string, at time.Time) string {
	handle := "нет"
	if username != "" {
		handle = username
	}
	return fmt.Sprintf(`🎉 Онбординг завершен!

👤 Сотрудник: %s (@%s)
📊 Статус: %s
📅 Дата завершения: %s
🎯 Этапов пройдено: %d/%d

Новый сотрудник готов к работе!`,
		u.DisplayName(), handle, u.Status.DisplayName(), at.Format(dateTimeLayout), u.Stage, models.MaxStage)
}

func feedbackNotice(cfg *config.AppConfig, u *models.User, p models.Profile, text string, at time.Time) string {
	name, statusName := "Неизвестный пользователь", "Неизвестно"
	if u != nil {
		name = u.DisplayName()
		statusName = u.Status.DisplayName()
	}
	handle := "Нет username"
	if p.Username != "" {
		handle = "@" + p.Username
	}
	return fmt.Sprintf(`🔔 Новая обратная связь

👤 От пользователя: %s (%s)
📅 Время: %s
📊 Статус пользователя: %s

💬 Сообщение:
%s

---
💡 Ответить пользователю можно через %s`,
		name, handle, at.Format(dateTimeLayout), statusName, text, cfg.Contacts.HRTelegram)
}

func broadcastMessage(company, text string) string {
	return fmt.Sprintf(`📢 Сообщение от администрации %s:

%s

---
Это автоматическое сообщение от OnboardingBuddy.
Для отключения уведомлений обратитесь в HR.`, company, text)
}

func reminderMessage(u *models.User, hrTelegram string) string {
	return fmt.Sprintf(`👋 Напоминание от OnboardingBuddy

%s Ваш статус: %s
📊 Прогресс: %d/%d этапов

🎯 Следующий шаг: %s

Если возникли вопросы, напишите HR-менеджеру: %s`,
		u.Status.Emoji(), u.Status.DisplayName(), u.Stage, models.MaxStage,
		models.NextStepHint(u.Stage), hrTelegram)
}
