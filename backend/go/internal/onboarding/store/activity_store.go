package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
)

// SaveFeedback stores a feedback message.
func (s *Store) SaveFeedback(ctx context.Context, userID int64, message string) (*models.Feedback, error) {
	f := &models.Feedback{UserID: userID, Message: message, CreatedAt: s.now()}
	if err := s.db(ctx).Create(f).Error; err != nil {
		return nil, fmt.Errorf("save feedback of user %d: %w", userID, err)
	}
	return f, nil
}

// RecentFeedback returns the latest feedback joined with author names.
func (s *Store) RecentFeedback(ctx context.Context, limit, offset int) ([]models.FeedbackView, error) {
	var rows []models.FeedbackView
	err := s.db(ctx).Table("feedback AS f").
		Select("f.id, f.user_id, f.message, f.created_at, u.full_name, u.username").
		Joins("LEFT JOIN users u ON u.user_id = f.user_id").
		Order("f.created_at DESC, f.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}
	return rows, nil
}

// CountFeedback returns the number of feedback rows.
func (s *Store) CountFeedback(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db(ctx).Model(&models.Feedback{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

// LogAction appends a row to the activity log.
func (s *Store) LogAction(ctx context.Context, userID int64, action, details string) (*models.UserAction, error) {
	a := &models.UserAction{UserID: userID, Action: action, Details: details, CreatedAt: s.now()}
	if err := s.db(ctx).Create(a).Error; err != nil {
		return nil, fmt.Errorf("log action %s of user %d: %w", action, userID, err)
	}
	return a, nil
}

// UserActions returns the latest actions of one user.
func (s *Store) UserActions(ctx context.Context, userID int64, limit int) ([]models.UserAction, error) {
	var actions []models.UserAction
	err := s.db(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("actions of user %d: %w", userID, err)
	}
	return actions, nil
}

// PopularActions counts actions of the last days, most frequent first.
func (s *Store) PopularActions(ctx context.Context, days, limit int) ([]models.ActionCount, error) {
	since := s.now().AddDate(0, 0, -days)
	var rows []models.ActionCount
	err := s.db(ctx).Model(&models.UserAction{}).
		Select("action, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("action").
		Order("count DESC, action").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("popular actions: %w", err)
	}
	return rows, nil
}

// Statistics aggregates the dashboard numbers.
func (s *Store) Statistics(ctx context.Context) (*models.Statistics, error) {
	st := &models.Statistics{StatusCounts: make(map[models.UserStatus]int64)}
	db := s.db(ctx)

	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	var byStatus []struct {
		Status models.UserStatus
		Count  int64
	}
	if err := db.Model(&models.User{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("count users by status: %w", err)
	}
	for _, row := range byStatus {
		st.StatusCounts[row.Status] = row.Count
	}

	weekAgo := s.now().AddDate(0, 0, -7)
	if err := db.Model(&models.UserAction{}).Where("created_at >= ?", weekAgo).
		Distinct("user_id").Count(&st.ActiveWeek).Error; err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	if err := db.Model(&models.Feedback{}).Count(&st.TotalFeedback).Error; err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	var avg struct{ Avg float64 }
	if err := db.Model(&models.User{}).Select("COALESCE(AVG(stage), 0) AS avg").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average stage: %w", err)
	}
	st.AvgProgress = round2(avg.Avg)
	if st.TotalUsers > 0 {
		st.CompletionRate = round2(float64(st.StatusCounts[models.StatusCompleted]) / float64(st.TotalUsers) * 100)
	}
	return st, nil
}

// DailyActivity returns per-day action and distinct user counts for the last
// days, most recent day first. Days are UTC calendar days.
func (s *Store) DailyActivity(ctx context.Context, days int) ([]models.DailyActivity, error) {
	since := s.now().AddDate(0, 0, -days)
	var rows []struct {
		UserID    int64
		CreatedAt time.Time
	}
	err := s.db(ctx).Model(&models.UserAction{}).
		Select("user_id, created_at").
		Where("created_at >= ?", since).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily activity: %w", err)
	}

	type bucket struct {
		actions int64
		users   map[int64]struct{}
	}
	byDay := make(map[string]*bucket)
	for _, r := range rows {
		day := r.CreatedAt.UTC().Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{users: make(map[int64]struct{})}
			byDay[day] = b
		}
		b.actions++
		b.users[r.UserID] = struct{}{}
	}

	out := make([]models.DailyActivity, 0, len(byDay))
	for day, b := range byDay {
		out = append(out, models.DailyActivity{Date: day, Actions: b.actions, UniqueUsers: int64(len(b.users))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// WeekdayActivity counts actions of the last days per weekday name.
func (s *Store) WeekdayActivity(ctx context.Context, days int) (map[string]int64, error) {
	since := s.now().AddDate(0, 0, -days)
	var stamps []time.Time
	err := s.db(ctx).Model(&models.UserAction{}).Where("created_at >= ?", since).Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, fmt.Errorf("weekday activity: %w", err)
	}
	out := make(map[string]int64, 7)
	for _, t := range stamps {
		out[t.UTC().Weekday().String()]++
	}
	return out, nil
}

// CleanupActions deletes activity older than days and returns the number of rows removed.
func (s *Store) CleanupActions(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	res := s.db(ctx).Where("created_at < ?", cutoff).Delete(&models.UserAction{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup actions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveBroadcast persists a finished broadcast.
func (s *Store) SaveBroadcast(ctx context.Context, b *models.Broadcast) error {
	if err := s.db(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("save broadcast %s: %w", b.ID, err)
	}
	return nil
}

// RecentBroadcasts lists the latest broadcasts.
func (s *Store) RecentBroadcasts(ctx context.Context, limit int) ([]models.Broadcast, error) {
	var out []models.Broadcast
	if err := s.db(ctx).Order("started_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recent broadcasts: %w", err)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
