package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"OnboardingBuddy/backend/go/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the SQLite persistence layer of the bot.
type Store struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewStore wraps an opened database.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source used for timestamps and time windows.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Feedback{},
		&models.UserAction{},
		&models.Broadcast{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Dump is the full data snapshot used by exports.
type Dump struct {
	Users      []models.User       `json:"users"`
	Feedback   []models.Feedback   `json:"feedback"`
	Actions    []models.UserAction `json:"actions"`
	ExportedAt time.Time           `json:"exported_at"`
}

// Dump returns every user and feedback row plus the latest actionsLimit actions.
func (s *Store) Dump(ctx context.Context, actionsLimit int) (*Dump, error) {
	users, err := s.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dump{Users: users, ExportedAt: s.now()}
	if err := s.db(ctx).Order("created_at DESC, id DESC").Find(&d.Feedback).Error; err != nil {
		return nil, fmt.Errorf("dump feedback: %w", err)
	}
	if err := s.db(ctx).Order("created_at DESC, id DESC").Limit(actionsLimit).Find(&d.Actions).Error; err != nil {
		return nil, fmt.Errorf("dump actions: %w", err)
	}
	return d, nil
}
