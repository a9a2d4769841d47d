package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/export"
	"OnboardingBuddy/backend/go/internal/onboarding/service"

	"github.com/dustin/go-humanize"
)

const (
	usersPerPage    = 10
	feedbackPerPage = 5
)

var adminStatusNames = []struct {
	status models.UserStatus
	name   string
}{
	{models.StatusNew, "🆕 Новые"},
	{models.StatusPreboarding, "🔄 Пребординг"},
	{models.StatusPreboarded, "✅ Готовы к онбордингу"},
	{models.StatusOnboarding, "🚀 Проходят онбординг"},
	{models.StatusCompleted, "🎉 Завершили онбординг"},
}

func (d *Dispatcher) adminPanel(ctx context.Context, u Update) error {
	dash, err := d.svc.Dashboard(ctx, u.From.UserID)
	if errors.Is(err, service.ErrNotAdmin) {
		return d.reply(ctx, u, Reply{Text: "❌ У вас нет прав администратора."})
	}
	if err != nil {
		return err
	}
	return d.reply(ctx, u, Reply{Text: dashboardText(dash), Inline: adminPanelKeyboard()})
}

func dashboardText(dash *service.Dashboard) string {
	st := dash.Statistics
	var b strings.Builder
	fmt.Fprintf(&b, `📊 Административная панель OnboardingBuddy

👥 Общая статистика:
• Всего пользователей: %d
• Активных за неделю: %d
• Процент завершения: %.1f%%
• Средний прогресс: %.2f/%d

📈 Распределение по статусам:
`, st.TotalUsers, st.ActiveWeek, st.CompletionRate, st.AvgProgress, models.MaxStage)
	for _, s := range adminStatusNames {
		n := st.Count(s.status)
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", s.name, n, percent(n, st.TotalUsers))
	}
	if len(dash.PopularActions) > 0 {
		b.WriteString("\n🔥 Популярные действия (неделя):\n")
		for _, a := range dash.PopularActions {
			fmt.Fprintf(&b, "• %s: %d\n", a.Action, a.Count)
		}
	}
	if len(dash.RecentFeedback) > 0 {
		b.WriteString("\n📝 Последние отзывы:\n")
		for i, f := range dash.RecentFeedback {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "👤 %s: %s\n", f.Author(), shorten(f.Message, 50))
		}
	}
	fmt.Fprintf(&b, "\n🕐 Обновлено: %s", formatShortDateTime(dash.GeneratedAt))
	return b.String()
}

func (d *Dispatcher) adminCallback(ctx context.Context, u Update) error {
	data := u.CallbackData
	switch {
	case data == CbAdminRefresh:
		return d.adminRefresh(ctx, u)
	case data == CbAdminExport:
		return d.adminExport(ctx, u)
	case data == CbAdminBroadcast:
		return d.adminBroadcastInfo(ctx, u)
	case data == CbAdminCleanup:
		days := d.cfg.Onboarding.CleanupDays
		return d.respond(ctx, u, Reply{
			Text: fmt.Sprintf("🗑️ Очистка данных\n\nБудут удалены записи действий пользователей старше %d дней.\n"+
				"Данные пользователей и обратная связь сохранятся.\n\nПодтвердите действие:", days),
			Inline: confirmationKeyboard("очистку", CbConfirmCleanup, CbCancel),
		})
	case data == CbConfirmCleanup:
		return d.adminCleanup(ctx, u)
	case data == CbAdminAnalytics:
		return d.adminAnalytics(ctx, u)
	case data == CbAdminFeedback:
		return d.feedbackPage(ctx, u, 1)
	case strings.HasPrefix(data, cbUsersPagePrefix):
		page, st := parsePage(strings.TrimPrefix(data, cbUsersPagePrefix))
		return d.usersPage(ctx, u, st, page)
	case strings.HasPrefix(data, cbFeedbackPrefix):
		page, _ := parsePage(strings.TrimPrefix(data, cbFeedbackPrefix))
		return d.feedbackPage(ctx, u, page)
	case strings.HasPrefix(data, cbResetPrefix):
		return d.adminReset(ctx, u, strings.TrimPrefix(data, cbResetPrefix))
	case strings.HasPrefix(data, cbFilterPrefix):
		return d.usersPage(ctx, u, parseFilter(strings.TrimPrefix(data, cbFilterPrefix)), 1)
	}
	return d.respond(ctx, u, Reply{Text: "❓ Неизвестная команда. Возможно, эта функция еще не реализована.\n\n" +
		"Используйте /start для возврата в главное меню."})
}

func (d *Dispatcher) adminRefresh(ctx context.Context, u Update) error {
	d.svc.RecordAdmin(ctx, u.From.UserID, models.ActionAdminRefresh, "Обновил статистику")
	st, err := d.svc.Statistics(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, `🔄 Статистика обновлена

👥 Актуальные данные:
• Всего пользователей: %d
• Активных за неделю: %d
• Завершили онбординг: %.1f%%
• Общий фидбек: %d сообщений

📊 Конверсия по этапам:
`, st.TotalUsers, st.ActiveWeek, st.CompletionRate, st.TotalFeedback)
	if st.TotalUsers > 0 {
		funnel := service.BuildFunnel(st)
		fmt.Fprintf(&b, "• Начали пребординг: %.1f%%\n", funnel.Steps[1].Conversion)
		fmt.Fprintf(&b, "• Перешли к онбордингу: %.1f%%\n", funnel.Steps[3].Conversion)
		fmt.Fprintf(&b, "• Завершили адаптацию: %.1f%%\n", st.CompletionRate)
	}
	fmt.Fprintf(&b, "\n🕐 Обновлено: %s", formatShortDateTime(time.Now().UTC()))
	return d.respond(ctx, u, Reply{Text: b.String(), Inline: adminPanelKeyboard()})
}

func (d *Dispatcher) adminExport(ctx context.Context, u Update) error {
	d.svc.RecordAdmin(ctx, u.From.UserID, models.ActionAdminExport, "Запросил экспорт данных")
	if d.exporter == nil {
		return d.respond(ctx, u, Reply{Text: "❌ Экспорт данных не настроен."})
	}
	res, err := d.exporter.Run(ctx)
	if err != nil {
		d.logger.WithUser(u.From.UserID).Error("export failed: " + err.Error())
		return d.respond(ctx, u, Reply{Text: "❌ Ошибка при экспорте данных:\n" + err.Error()})
	}
	if err := d.respond(ctx, u, Reply{Text: exportText(res)}); err != nil {
		return err
	}
	if f, ok := res.File(export.KindFull); ok {
		if err := d.msg.SendDocument(ctx, u.ChatID, f.Path, "📁 "+f.Name); err != nil {
			d.logger.WithUser(u.From.UserID).Warn("failed to send export file: " + err.Error())
		}
	}
	return nil
}

func exportText(res *export.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, `📥 Экспорт данных завершен

📊 Экспортированные данные:
• Пользователи: %d
• Обратная связь: %d
• Действия пользователей: %d

📁 Файлов: %d (%s)
📅 Дата экспорта: %s

💾 Сводка по статусам:
`, res.Users, res.Feedback, res.Actions, len(res.Files), humanize.Bytes(uint64(res.TotalSize())), formatDateTime(res.ExportedAt))
	for _, st := range models.AllStatuses {
		if n := res.StatusCounts[st]; n > 0 {
			fmt.Fprintf(&b, "• %s: %d\n", st, n)
		}
	}
	if res.Uploaded > 0 {
		fmt.Fprintf(&b, "\n☁️ Загружено в хранилище: %d файлов", res.Uploaded)
	}
	fmt.Fprintf(&b, "\n✅ Данные сохранены в папку %s", res.Dir)
	return b.String()
}

func (d *Dispatcher) adminBroadcastInfo(ctx context.Context, u Update) error {
	d.svc.RecordAdmin(ctx, u.From.UserID, models.ActionAdminBroadcastInfo, "Просмотрел информацию о рассылке")
	st, err := d.svc.Statistics(ctx)
	if err != nil {
		return err
	}
	recent, err := d.svc.RecentBroadcasts(ctx, 3)
	if err != nil {
		return err
	}
	notify := "❌"
	if d.cfg.Notifications.Enabled {
		notify = "✅"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `📢 Система рассылки сообщений

👥 Целевая аудитория:
• Всего пользователей: %d
• Активных за неделю: %d

📝 Как отправить рассылку:
Используйте команду:
/broadcast [ваше сообщение]

Пример:
/broadcast Уважаемые коллеги! Завтра в офисе будет проходить team building. Начало в 18:00.

⚙️ Настройки рассылки:
• Задержка между отправками: %.1f сек
• Максимальная длина сообщения: %d символов
• Автоматические уведомления: %s

⚠️ Важно:
• Рассылка отправляется всем зарегистрированным пользователям
• Заблокированные боты получат ошибку (это нормально)
• Результат рассылки будет показан после завершения

📊 Статистика последних рассылок:
`, st.TotalUsers, st.ActiveWeek, d.cfg.Broadcast.Delay, d.cfg.Broadcast.MaxMessageLength, notify)
	if len(recent) == 0 {
		b.WriteString("Рассылок еще не было.")
	}
	for _, r := range recent {
		fmt.Fprintf(&b, "• %s: %d/%d доставлено (%.1f%%) - %s\n",
			formatShortDateTime(r.StartedAt), r.Sent, r.Total, r.DeliveryRate(), shorten(r.Text, 30))
	}
	return d.respond(ctx, u, Reply{Text: strings.TrimRight(b.String(), "\n")})
}

func (d *Dispatcher) adminCleanup(ctx context.Context, u Update) error {
	days := d.cfg.Onboarding.CleanupDays
	n, err := d.svc.Cleanup(ctx, u.From.UserID, days)
	if err != nil {
		return d.respond(ctx, u, Reply{Text: "❌ Ошибка при очистке данных:\n" + err.Error()})
	}
	return d.respond(ctx, u, Reply{Text: fmt.Sprintf(`🗑️ Очистка данных завершена

📊 Результат:
• Удалено записей действий: %d
• Период очистки: старше %d дней
• Дата очистки: %s

🔒 Что сохранено:
• Данные пользователей (users)
• Обратная связь (feedback)
• Записи последних %d дней

✅ База данных оптимизирована!`, n, days, formatDateTime(time.Now().UTC()), days)})
}

func (d *Dispatcher) adminAnalytics(ctx context.Context, u Update) error {
	d.svc.RecordAdmin(ctx, u.From.UserID, models.ActionAdminAnalytics, "Просмотрел подробную аналитику")
	a, err := d.svc.Analytics(ctx, 30)
	if err != nil {
		return d.respond(ctx, u, Reply{Text: "❌ Ошибка при получении аналитики:\n" + err.Error()})
	}
	return d.respond(ctx, u, Reply{Text: analyticsText(a)})
}

func analyticsText(a *models.Analytics) string {
	var activeDays int
	var usersSum int64
	for _, day := range a.DailyActivity {
		if day.UniqueUsers > 0 {
			activeDays++
		}
		usersSum += day.UniqueUsers
	}
	avg := 0.0
	if len(a.DailyActivity) > 0 {
		avg = float64(usersSum) / float64(len(a.DailyActivity))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `📈 Подробная аналитика (%d дней)

👥 Пользователи:
• Всего: %d
• Дней с активностью: %d
• Средняя активность: %.1f польз/день

📊 Конверсия воронки:
`, a.Days, a.Statistics.TotalUsers, activeDays, avg)
	if a.Statistics.TotalUsers > 0 {
		for _, s := range a.Funnel.Steps {
			fmt.Fprintf(&b, "• %s: %d (%.1f%%)\n", s.Name, s.Users, s.Conversion)
		}
	}

	b.WriteString("\n🔥 Популярные действия:\n")
	for i, act := range a.PopularActions {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "• %s: %d\n", act.Action, act.Count)
	}

	// Daily activity is ordered newest first.
	b.WriteString("\n📅 Активность (последние 7 дней):\n")
	recent := a.DailyActivity
	if len(recent) > 7 {
		recent = recent[:7]
	}
	var recentSum int64
	for _, day := range recent {
		recentSum += day.UniqueUsers
		label := day.Date
		if t, err := time.Parse("2006-01-02", day.Date); err == nil {
			label = t.Format("02.01")
		}
		fmt.Fprintf(&b, "• %s: %d польз, %d действий\n", label, day.UniqueUsers, day.Actions)
	}

	if len(a.DailyActivity) >= 7 {
		recentAvg := float64(recentSum) / float64(len(recent))
		trend := "➡️ Стабильно"
		switch {
		case recentAvg > avg:
			trend = "📈 Растет"
		case recentAvg < avg:
			trend = "📉 Снижается"
		}
		fmt.Fprintf(&b, "\n📊 Тренд активности: %s", trend)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) usersList(ctx context.Context, u Update) error {
	if !d.cfg.IsAdmin(u.From.UserID) {
		return d.reply(ctx, u, Reply{Text: "❌ У вас нет прав администратора."})
	}
	page, err := d.svc.Users(ctx, "", 1, usersPerPage)
	if err != nil {
		return err
	}
	inline := append(statusFilterKeyboard(), paginationKeyboard(page.Page, page.Pages, "users", "")...)
	return d.reply(ctx, u, Reply{Text: usersPageText(page, ""), Inline: inline})
}

// resetRequest handles "/reset <user_id>" and asks for confirmation.
func (d *Dispatcher) resetRequest(ctx context.Context, u Update) error {
	if !d.cfg.IsAdmin(u.From.UserID) {
		return d.reply(ctx, u, Reply{Text: "❌ У вас нет прав администратора."})
	}
	id, err := strconv.ParseInt(strings.TrimSpace(u.Args), 10, 64)
	if err != nil {
		return d.reply(ctx, u, Reply{Text: resetUsageText})
	}
	user, err := d.svc.User(ctx, id)
	if errors.Is(err, service.ErrUserNotFound) {
		return d.reply(ctx, u, Reply{Text: fmt.Sprintf("❓ Пользователь %d не найден.", id)})
	}
	if err != nil {
		return err
	}
	return d.reply(ctx, u, Reply{
		Text: fmt.Sprintf("♻️ Сброс прогресса\n\n👤 %s (ID %d)\nСейчас: %s, этап %d/%d\n\n"+
			"Пользователь вернется к началу пребординга. Подтвердите действие:",
			user.DisplayName(), user.UserID, user.Status.DisplayName(), user.Stage, models.MaxStage),
		Inline: confirmationKeyboard("сброс", cbResetPrefix+strconv.FormatInt(id, 10), CbCancel),
	})
}

func (d *Dispatcher) adminReset(ctx context.Context, u Update, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return d.respond(ctx, u, Reply{Text: resetUsageText})
	}
	user, err := d.svc.ResetProgress(ctx, u.From.UserID, id)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return d.respond(ctx, u, Reply{Text: fmt.Sprintf("❓ Пользователь %d не найден.", id)})
	case err != nil:
		return d.respond(ctx, u, Reply{Text: "❌ Ошибка при сбросе прогресса:\n" + err.Error()})
	}
	return d.respond(ctx, u, Reply{Text: fmt.Sprintf("✅ Прогресс пользователя %s сброшен.\nСтатус: %s %s, этап %d/%d",
		user.DisplayName(), user.Status.Emoji(), user.Status.DisplayName(), user.Stage, models.MaxStage)})
}

func (d *Dispatcher) usersPage(ctx context.Context, u Update, st models.UserStatus, n int) error {
	page, err := d.svc.Users(ctx, st, n, usersPerPage)
	if err != nil {
		return err
	}
	inline := append(statusFilterKeyboard(), paginationKeyboard(page.Page, page.Pages, "users", string(st))...)
	return d.respond(ctx, u, Reply{Text: usersPageText(page, st), Inline: inline})
}

func usersPageText(page *service.UsersPage, st models.UserStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Пользователи (страница %d/%d, всего %d)", page.Page, page.Pages, page.Total)
	if st != "" {
		fmt.Fprintf(&b, "\nФильтр: %s %s", st.Emoji(), st.DisplayName())
	}
	b.WriteString(":\n\n")
	if len(page.Users) == 0 {
		b.WriteString("Пользователей нет.")
	}
	for _, user := range page.Users {
		username := "Нет username"
		if user.Username != "" {
			username = "@" + user.Username
		}
		fmt.Fprintf(&b, "%s %s (%s, ID %d)\n", user.Status.Emoji(), user.DisplayName(), username, user.UserID)
		fmt.Fprintf(&b, "   └ %s, этап %d/%d\n\n", user.Status.DisplayName(), user.Stage, models.MaxStage)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Dispatcher) feedbackPage(ctx context.Context, u Update, n int) error {
	page, err := d.svc.Feedback(ctx, n, feedbackPerPage)
	if err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "💬 Обратная связь (страница %d/%d):\n\n", page.Page, page.Pages)
	if len(page.Items) == 0 {
		b.WriteString("Отзывов пока нет.")
	}
	for _, f := range page.Items {
		username := "Нет username"
		if f.Username != "" {
			username = "@" + f.Username
		}
		fmt.Fprintf(&b, "👤 %s (%s)\n📅 %s\n💬 %s\n\n%s\n\n",
			f.Author(), username, formatShortDateTime(f.CreatedAt), f.Message, strings.Repeat("─", 30))
	}
	return d.respond(ctx, u, Reply{
		Text:   strings.TrimRight(b.String(), "\n"),
		Inline: paginationKeyboard(page.Page, page.Pages, "feedback", ""),
	})
}

// startBroadcast sends the status message and runs the mailing in the
// background so the update loop keeps serving other users.
func (d *Dispatcher) startBroadcast(ctx context.Context, u Update, text string) error {
	st, err := d.svc.Statistics(ctx)
	if err != nil {
		return err
	}
	statusID, err := d.msg.Send(ctx, u.ChatID, Reply{Text: fmt.Sprintf(
		"📤 Начинаю рассылку сообщения %d пользователям...\n📝 Текст: %s", st.TotalUsers, shorten(text, 100))})
	if err != nil {
		return err
	}

	adminID, chatID := u.From.UserID, u.ChatID
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		jobCtx := d.baseCtx
		progress := func(p service.BroadcastProgress) {
			msg := fmt.Sprintf("📤 Рассылка в процессе...\n📊 Прогресс: %d/%d (%.0f%%)\n✅ Отправлено: %d\n❌ Ошибок: %d",
				p.Done, p.Total, p.Percent(), p.Sent, p.Failed)
			if err := d.msg.Edit(jobCtx, chatID, statusID, Reply{Text: msg}); err != nil {
				d.logger.WithUser(adminID).Debug("broadcast progress edit failed: " + err.Error())
			}
		}
		res, err := d.svc.Broadcast(jobCtx, adminID, text, progress)
		if res == nil {
			d.logger.WithUser(adminID).Error("broadcast failed: " + err.Error())
			d.send(context.WithoutCancel(jobCtx), chatID, Reply{Text: "❌ Ошибка рассылки: " + err.Error()})
			return
		}
		summary := broadcastResultText(res)
		if err != nil {
			summary += "\n\n⚠️ Рассылка прервана: " + err.Error()
		}
		if err := d.msg.Edit(context.WithoutCancel(jobCtx), chatID, statusID, Reply{Text: summary}); err != nil {
			d.send(context.WithoutCancel(jobCtx), chatID, Reply{Text: summary})
		}
	}()
	return nil
}

func broadcastResultText(b *models.Broadcast) string {
	return fmt.Sprintf(`📊 Результат рассылки:

✅ Успешно отправлено: %d
❌ Не удалось отправить: %d
📈 Процент доставки: %.1f%%

📝 Текст сообщения:
%s

🕐 Время завершения: %s`, b.Sent, b.Failed, b.DeliveryRate(), b.Text, formatDateTime(b.FinishedAt))
}
