package session

import (
	"context"
	"sync"
	"time"
)

// Mode is what the bot expects from the user's next plain text message.
type Mode string

const (
	ModeNone     Mode = ""
	ModeFeedback Mode = "feedback" // next text is stored as feedback
)

// Store keeps per-user conversation modes. Entries expire after a TTL so an
// abandoned prompt does not capture text forever.
type Store interface {
	Mode(ctx context.Context, userID int64) (Mode, error)
	SetMode(ctx context.Context, userID int64, mode Mode) error
	Clear(ctx context.Context, userID int64) error
}

type entry struct {
	mode    Mode
	expires time.Time
}

// Memory is an in-process Store.
type Memory struct {
	ttl     time.Duration
	entries map[int64]entry
	now     func() time.Time
	mu      sync.Mutex
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[int64]entry), now: time.Now}
}

func (m *Memory) Mode(_ context.Context, userID int64) (Mode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return ModeNone, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, userID)
		return ModeNone, nil
	}
	return e.mode, nil
}

func (m *Memory) SetMode(_ context.Context, userID int64, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mode == ModeNone {
		delete(m.entries, userID)
		return nil
	}
	m.entries[userID] = entry{mode: mode, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}
