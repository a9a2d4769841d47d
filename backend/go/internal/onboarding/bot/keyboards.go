package bot

import (
	"fmt"
	"strings"

	"OnboardingBuddy/backend/go/internal/models"
)

// Reply keyboard labels. Incoming text is matched against them verbatim.
const (
	BtnPreboarding = "🚀 Пребординг"
	BtnOnboarding  = "📋 Онбординг"
	BtnInfo        = "📚 Полезная информация"
	BtnFAQ         = "❓ FAQ"
	BtnContacts    = "👥 Контакты сотрудников"
	BtnSupport     = "📞 Поддержка"
	BtnFeedback    = "💬 Обратная связь"
	BtnProgress    = "📊 Мой прогресс"
	BtnMainMenu    = "🏠 Главное меню"

	BtnAbout    = "🏢 О компании"
	BtnCulture  = "📜 Корпоративная культура"
	BtnTools    = "🔧 Инструменты и ресурсы"
	BtnCalendar = "📅 Календарь мероприятий"

	BtnSalary   = "💰 Зарплата и льготы"
	BtnHours    = "🕐 Рабочее время"
	BtnVacation = "🏖️ Отпуска и больничные"
	BtnTraining = "🎓 Обучение"
)

// Callback data values.
const (
	CbStartPreboarding = "start_preboarding"
	CbDocsMain         = "docs_main"
	CbDocsTK           = "docs_tk"
	CbDocsMainSent     = "docs_main_sent"
	CbDocsTKSent       = "docs_tk_sent"
	CbAllDocsSent      = "all_docs_sent"
	CbStartOnboarding  = "start_onboarding"
	CbEmailReceived    = "email_received"
	CbEmailNotReceived = "email_not_received"
	CbTeamIntro        = "team_intro"
	CbMeetings         = "meetings"
	CbCompleteOnboard  = "complete_onboarding"
	CbAdminRefresh     = "admin_refresh"
	CbAdminExport      = "admin_export"
	CbAdminBroadcast   = "admin_broadcast"
	CbAdminCleanup     = "admin_cleanup"
	CbAdminAnalytics   = "admin_analytics"
	CbAdminFeedback    = "admin_feedback"
	CbConfirmCleanup   = "confirm_cleanup"
	CbBackToMain       = "back_to_main"
	CbCancel           = "cancel"
	CbNoop             = "noop"
	cbUsersPagePrefix  = "users_page_"
	cbFeedbackPrefix   = "feedback_page_"
	cbFilterPrefix     = "filter_"
	cbResetPrefix      = "admin_reset_"
)

var (
	mainMenu = [][]string{
		{BtnPreboarding, BtnOnboarding},
		{BtnInfo, BtnFAQ},
		{BtnContacts, BtnSupport},
		{BtnFeedback, BtnProgress},
	}
	infoMenu = [][]string{
		{BtnAbout, BtnCulture},
		{BtnTools, BtnCalendar},
		{BtnMainMenu},
	}
	faqMenu = [][]string{
		{BtnSalary, BtnHours},
		{BtnVacation, BtnTraining},
		{BtnMainMenu},
	}
)

func cb(text, data string) Button { return Button{Text: text, Data: data} }

func rows(buttons ...Button) [][]Button {
	out := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, []Button{b})
	}
	return out
}

func preboardingStartKeyboard() [][]Button {
	return rows(cb("✅ Готов начать!", CbStartPreboarding))
}

func documentCategoriesKeyboard() [][]Button {
	return rows(
		cb("📄 Основные документы (1-5)", CbDocsMain),
		cb("📑 Документы по ТК РФ (6-9)", CbDocsTK),
	)
}

func docsMainKeyboard() [][]Button {
	return rows(
		cb("✅ Документы отправлены", CbDocsMainSent),
		cb("📑 Документы по ТК РФ", CbDocsTK),
		cb("◀️ Назад", CbStartPreboarding),
	)
}

func docsTKKeyboard() [][]Button {
	return rows(
		cb("✅ Документы отправлены", CbDocsTKSent),
		cb("📄 Основные документы", CbDocsMain),
		cb("◀️ Назад", CbStartPreboarding),
	)
}

func docsCompletionKeyboard() [][]Button {
	return rows(
		cb("📄 Основные документы", CbDocsMain),
		cb("📑 Документы по ТК РФ", CbDocsTK),
		cb("✅ Все документы отправлены", CbAllDocsSent),
	)
}

func startOnboardingKeyboard() [][]Button {
	return rows(cb("🚀 Начать онбординг", CbStartOnboarding))
}

func documentsReceivedKeyboard() [][]Button {
	return rows(cb("📄 Получил подписанные документы", CbStartOnboarding))
}

func emailAccessKeyboard() [][]Button {
	return rows(
		cb("✅ Получил доступ", CbEmailReceived),
		cb("❌ Не получил доступ", CbEmailNotReceived),
	)
}

func emailRetryKeyboard() [][]Button {
	return rows(
		cb("✅ Получил доступ", CbEmailReceived),
		cb("🔄 Проверить еще раз", CbStartOnboarding),
	)
}

func onboardingNextKeyboard() [][]Button {
	return rows(
		cb("👥 Знакомство с командой", CbTeamIntro),
		cb("📅 Планерки отделов", CbMeetings),
	)
}

func teamIntroNextKeyboard() [][]Button {
	return rows(
		cb("📅 Планерки отделов", CbMeetings),
		cb("✅ Завершить онбординг", CbCompleteOnboard),
	)
}

func meetingsNextKeyboard() [][]Button {
	return rows(
		cb("👥 Знакомство с командой", CbTeamIntro),
		cb("✅ Завершить онбординг", CbCompleteOnboard),
	)
}

func adminPanelKeyboard() [][]Button {
	return [][]Button{
		{cb("📊 Экспорт данных", CbAdminExport), cb("📢 Рассылка", CbAdminBroadcast)},
		{cb("🔄 Обновить статистику", CbAdminRefresh), cb("🗑️ Очистка данных", CbAdminCleanup)},
		{cb("📈 Подробная аналитика", CbAdminAnalytics), cb("💬 Отзывы", CbAdminFeedback)},
	}
}

func statusFilterKeyboard() [][]Button {
	return [][]Button{
		{cb("🆕 Новые", cbFilterPrefix+string(models.StatusNew)), cb("🔄 Пребординг", cbFilterPrefix+string(models.StatusPreboarding))},
		{cb("✅ Готовы к онбордингу", cbFilterPrefix+string(models.StatusPreboarded)), cb("🚀 Онбординг", cbFilterPrefix+string(models.StatusOnboarding))},
		{cb("🎉 Завершили", cbFilterPrefix+string(models.StatusCompleted)), cb("📊 Все", cbFilterPrefix+"all")},
	}
}

func confirmationKeyboard(action, confirmData, cancelData string) [][]Button {
	return [][]Button{{
		cb("✅ Подтвердить "+action, confirmData),
		cb("❌ Отмена", cancelData),
	}}
}

// paginationKeyboard builds "<prefix>_page_N[_suffix]" navigation.
func paginationKeyboard(page, pages int, prefix, suffix string) [][]Button {
	data := func(p int) string {
		d := fmt.Sprintf("%s_page_%d", prefix, p)
		if suffix != "" {
			d += "_" + suffix
		}
		return d
	}
	var nav []Button
	if page > 1 {
		nav = append(nav, cb("⬅️", data(page-1)))
	}
	nav = append(nav, cb(fmt.Sprintf("%d/%d", page, pages), CbNoop))
	if page < pages {
		nav = append(nav, cb("➡️", data(page+1)))
	}
	return [][]Button{nav, {cb(BtnMainMenu, CbBackToMain)}}
}

// progressBar renders stage/max as a bar of the given width.
func progressBar(stage, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	p := float64(stage) / float64(max)
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	filled := int(p * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// progressLine is the short bar with a percentage used in status messages.
func progressLine(stage int) string {
	p := float64(stage) / float64(models.MaxStage)
	if p > 1 {
		p = 1
	}
	return fmt.Sprintf("%s %.0f%%", progressBar(stage, models.MaxStage, 10), p*100)
}
