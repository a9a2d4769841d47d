package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/models"

	"github.com/gobwas/glob"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUser loads a user by Telegram id.
func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	if err := s.db(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CreateUser inserts a user. For an existing id only the profile fields are
// refreshed, progress is kept.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now()
	if u.Status == "" {
		u.Status = models.StatusNew
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "full_name", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("create user %d: %w", u.UserID, err)
	}
	return nil
}

// UpdateUser saves every field of u.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = s.now()
	res := s.db(ctx).Model(&models.User{}).Where("user_id = ?", u.UserID).Updates(map[string]interface{}{
		"username":   u.Username,
		"full_name":  u.FullName,
		"position":   u.Position,
		"status":     u.Status,
		"stage":      u.Stage,
		"updated_at": u.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", u.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStage moves the user to at least stage and, when status is given, to
// at least that status. Neither ever goes back. The stored user is returned
// together with whether anything changed.
func (s *Store) UpdateStage(ctx context.Context, userID int64, stage int, status *models.UserStatus) (*models.User, bool, error) {
	var (
		u       models.User
		changed bool
	)
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			return notFound(err)
		}
		if stage > models.MaxStage {
			stage = models.MaxStage
		}
		if stage > u.Stage {
			u.Stage = stage
			changed = true
		}
		if status != nil && u.Status.Before(*status) {
			u.Status = *status
			changed = true
		}
		if !changed {
			return nil
		}
		u.UpdatedAt = s.now()
		return tx.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
			"stage":      u.Stage,
			"status":     u.Status,
			"updated_at": u.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("update stage of user %d: %w", userID, err)
	}
	return &u, changed, nil
}

// ResetUser puts the user back to stage 0 with status new. Unlike
// UpdateStage this goes backwards.
func (s *Store) ResetUser(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			return notFound(err)
		}
		u.Stage = 0
		u.Status = models.StatusNew
		u.UpdatedAt = s.now()
		return tx.Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
			"stage":      u.Stage,
			"status":     u.Status,
			"updated_at": u.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("reset user %d: %w", userID, err)
	}
	return &u, nil
}

// UsersByStatus lists users in one status, newest first.
func (s *Store) UsersByStatus(ctx context.Context, status models.UserStatus) ([]models.User, error) {
	var users []models.User
	if err := s.db(ctx).Where("status = ?", status).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("users by status: %w", err)
	}
	return users, nil
}

// AllUsers lists every user, newest first.
func (s *Store) AllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db(ctx).Order("created_at DESC, user_id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("all users: %w", err)
	}
	return users, nil
}

// UserIDs returns the ids of every user, used for broadcasts.
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db(ctx).Model(&models.User{}).Order("created_at").Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("user ids: %w", err)
	}
	return ids, nil
}

// UsersPage returns one page (1-based) of users, optionally filtered by
// status, with the total count of matching users.
func (s *Store) UsersPage(ctx context.Context, status models.UserStatus, page, size int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	q := s.db(ctx).Model(&models.User{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []models.User
	err := q.Order("created_at DESC, user_id DESC").Offset((page - 1) * size).Limit(size).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("users page: %w", err)
	}
	return users, total, nil
}

// SearchUsers matches a case-insensitive glob ("ivan*", "*@dev*") against
// the username, full name and id of every user.
func (s *Store) SearchUsers(ctx context.Context, pattern string) ([]models.User, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*" + pattern + "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad search pattern %q: %w", pattern, err)
	}
	users, err := s.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range users {
		if g.Match(strings.ToLower(u.Username)) ||
			g.Match("@"+strings.ToLower(u.Username)) ||
			g.Match(strings.ToLower(u.FullName)) ||
			g.Match(strconv.FormatInt(u.UserID, 10)) {
			out = append(out, u)
		}
	}
	return out, nil
}

// StaleUsers returns unfinished users without progress for olderThan that
// have not been reminded within the same period.
func (s *Store) StaleUsers(ctx context.Context, olderThan time.Duration) ([]models.User, error) {
	cutoff := s.now().Add(-olderThan)
	reminded := s.db(ctx).Model(&models.UserAction{}).
		Select("user_id").
		Where("action = ? AND created_at >= ?", models.ActionReminder, cutoff)

	var users []models.User
	err := s.db(ctx).
		Where("status <> ? AND updated_at < ?", models.StatusCompleted, cutoff).
		Where("user_id NOT IN (?)", reminded).
		Order("updated_at").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("stale users: %w", err)
	}
	return users, nil
}
