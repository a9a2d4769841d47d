package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
)

// Dashboard is the admin panel summary.
type Dashboard struct {
	Statistics     *models.Statistics    `json:"statistics"`
	Funnel         models.Funnel         `json:"conversion_funnel"`
	PopularActions []models.ActionCount  `json:"popular_actions"`
	RecentFeedback []models.FeedbackView `json:"recent_feedback"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// RequireAdmin returns ErrNotAdmin for ids outside the configured admin list.
func (s *Service) RequireAdmin(ctx context.Context, userID int64) error {
	if s.cfg.IsAdmin(userID) {
		return nil
	}
	s.record(ctx, userID, models.ActionAdminDenied, "Попытка доступа к админ-панели", nil)
	s.logger.WithUser(userID).Warn("admin access denied")
	return ErrNotAdmin
}

// Dashboard collects the admin panel numbers for the last week.
func (s *Service) Dashboard(ctx context.Context, adminID int64) (*Dashboard, error) {
	if err := s.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	st, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.store.PopularActions(ctx, 7, 5)
	if err != nil {
		return nil, err
	}
	feedback, err := s.store.RecentFeedback(ctx, 5, 0)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, models.ActionAdminAccess, "Вошел в админ-панель", nil)
	return &Dashboard{
		Statistics:     st,
		Funnel:         BuildFunnel(st),
		PopularActions: popular,
		RecentFeedback: feedback,
		GeneratedAt:    s.now(),
	}, nil
}

// Statistics returns the raw dashboard aggregate without access checks.
// It backs the CLI and the authenticated HTTP API.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	return s.store.Statistics(ctx)
}

// Analytics builds the extended report over the last days.
func (s *Service) Analytics(ctx context.Context, days int) (*models.Analytics, error) {
	if days <= 0 {
		days = 30
	}
	st, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.store.PopularActions(ctx, days, 10)
	if err != nil {
		return nil, err
	}
	daily, err := s.store.DailyActivity(ctx, days)
	if err != nil {
		return nil, err
	}
	weekday, err := s.store.WeekdayActivity(ctx, days)
	if err != nil {
		return nil, err
	}
	return &models.Analytics{
		Statistics:      *st,
		Funnel:          BuildFunnel(st),
		PopularActions:  popular,
		DailyActivity:   daily,
		WeekdayActivity: weekday,
		Days:            days,
	}, nil
}

// BuildFunnel derives the conversion funnel from status counts: a user in a
// later status has passed every earlier step.
func BuildFunnel(st *models.Statistics) models.Funnel {
	steps := []struct {
		name string
		from models.UserStatus
	}{
		{"Зарегистрировались", models.StatusNew},
		{"Начали пребординг", models.StatusPreboarding},
		{"Завершили пребординг", models.StatusPreboarded},
		{"Начали онбординг", models.StatusOnboarding},
		{"Завершили онбординг", models.StatusCompleted},
	}
	f := models.Funnel{Steps: make([]models.FunnelStep, 0, len(steps))}
	for _, step := range steps {
		var n int64
		for _, status := range models.AllStatuses {
			if !status.Before(step.from) {
				n += st.Count(status)
			}
		}
		conv := 0.0
		if st.TotalUsers > 0 {
			conv = float64(n) / float64(st.TotalUsers) * 100
		}
		f.Steps = append(f.Steps, models.FunnelStep{Name: step.name, Users: n, Conversion: conv})
	}
	return f
}

// Cleanup removes activity rows older than days. days <= 0 uses the
// configured retention.
func (s *Service) Cleanup(ctx context.Context, adminID int64, days int) (int64, error) {
	if days <= 0 {
		days = s.cfg.Onboarding.CleanupDays
	}
	n, err := s.store.CleanupActions(ctx, days)
	if err != nil {
		return 0, err
	}
	s.record(ctx, adminID, models.ActionAdminCleanup, fmt.Sprintf("Удалено записей: %d (старше %d дней)", n, days), nil)
	s.logger.WithUser(adminID).WithPayload(map[string]interface{}{"deleted": n, "days": days}).Info("activity cleanup finished")
	return n, nil
}

// ResetProgress sends a user back to the start of preboarding. Both the admin
// and the user get an activity entry.
func (s *Service) ResetProgress(ctx context.Context, adminID, userID int64) (*models.User, error) {
	if err := s.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	u, err := s.store.ResetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, models.ActionAdminReset, fmt.Sprintf("Сбросил прогресс пользователя %d", userID), nil)
	s.record(ctx, userID, models.ActionProgressReset, "Прогресс сброшен администратором", u)
	s.logger.WithUser(adminID).WithPayload(map[string]interface{}{"target": userID}).Info("user progress reset")
	return u, nil
}

// UsersPage is one page of the admin user list.
type UsersPage struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// Users lists users page by page, optionally filtered by status. The page
// number is clamped into the valid range.
func (s *Service) Users(ctx context.Context, st models.UserStatus, page, size int) (*UsersPage, error) {
	if size < 1 {
		size = 10
	}
	_, total, err := s.store.UsersPage(ctx, st, 1, 1)
	if err != nil {
		return nil, err
	}
	pages := pageCount(total, size)
	page = clampPage(page, pages)
	users, total, err := s.store.UsersPage(ctx, st, page, size)
	if err != nil {
		return nil, err
	}
	return &UsersPage{Users: users, Total: total, Page: page, Pages: pages}, nil
}

// SearchUsers finds users by a glob over username, name and id.
func (s *Service) SearchUsers(ctx context.Context, pattern string) ([]models.User, error) {
	return s.store.SearchUsers(ctx, pattern)
}

// UserDetails returns a user with the latest activity.
func (s *Service) UserDetails(ctx context.Context, userID int64, actions int) (*models.User, []models.UserAction, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.store.UserActions(ctx, userID, actions)
	if err != nil {
		return nil, nil, err
	}
	return u, list, nil
}

// FeedbackPage is one page of feedback.
type FeedbackPage struct {
	Items []models.FeedbackView `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Pages int                   `json:"pages"`
}

// Feedback pages through the feedback, newest first.
func (s *Service) Feedback(ctx context.Context, page, size int) (*FeedbackPage, error) {
	if size < 1 {
		size = 5
	}
	total, err := s.store.CountFeedback(ctx)
	if err != nil {
		return nil, err
	}
	pages := pageCount(total, size)
	page = clampPage(page, pages)
	items, err := s.store.RecentFeedback(ctx, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &FeedbackPage{Items: items, Total: total, Page: page, Pages: pages}, nil
}

// RecentBroadcasts lists the latest broadcasts.
func (s *Service) RecentBroadcasts(ctx context.Context, limit int) ([]models.Broadcast, error) {
	return s.store.RecentBroadcasts(ctx, limit)
}

// RecordAdmin writes an admin activity entry.
func (s *Service) RecordAdmin(ctx context.Context, adminID int64, action, details string) {
	s.record(ctx, adminID, action, details, nil)
}

func pageCount(total int64, size int) int {
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		return 1
	}
	return pages
}

func clampPage(page, pages int) int {
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}
