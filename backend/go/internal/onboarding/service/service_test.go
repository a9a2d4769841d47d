package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/database/sqlite"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/events"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/google/go-cmp/cmp"
	gormlogger "gorm.io/gorm/logger"
)

const adminID = int64(900001)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	failed map[int64]bool
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed[chatID] {
		return errors.New("forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) to(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc    *Service
	store  *store.Store
	sender *fakeSender
	pub    *recordingPublisher
	cfg    *config.AppConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "svc.db"), gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	st := store.NewStore(db)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Default()
	cfg.Telegram.AdminIDs = []int64{adminID}
	cfg.Broadcast.Delay = 0
	cfg.Broadcast.ProgressEvery = 2
	cfg.Auth.JwtSecret = "test-secret"

	sender := &fakeSender{failed: map[int64]bool{}}
	pub := &recordingPublisher{}
	svc := NewService(st, cfg, pub, sender, logger.New("service_test", "", ""))
	return &fixture{svc: svc, store: st, sender: sender, pub: pub, cfg: cfg}
}

func (f *fixture) register(t *testing.T, id int64, first string) *models.User {
	t.Helper()
	u, _, err := f.svc.Register(context.Background(), models.Profile{UserID: id, Username: strings.ToLower(first), FirstName: first})
	if err != nil {
		t.Fatalf("register %d: %v", id, err)
	}
	return u
}

func TestRegisterKeepsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, created, err := f.svc.Register(ctx, models.Profile{UserID: 1, Username: "anna", FirstName: "Анна", LastName: "Петрова"})
	if err != nil {
		t.Fatal(err)
	}
	if !created || u.Status != models.StatusNew || u.FullName != "Анна Петрова" {
		t.Fatalf("first register: created=%v user=%+v", created, u)
	}

	if _, err := f.svc.OpenPreboarding(ctx, 1); err != nil {
		t.Fatal(err)
	}
	u, created, err = f.svc.Register(ctx, models.Profile{UserID: 1, Username: "anna_p", FirstName: "Анна"})
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second register must not report creation")
	}
	if u.Status != models.StatusPreboarding || u.Stage != models.StageRegistration || u.Username != "anna_p" {
		t.Errorf("returning user = %+v, want progress kept and profile refreshed", u)
	}
}

func TestPreboardingFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 7, "Ivan")

	steps := []struct {
		name   string
		run    func() (*models.User, error)
		stage  int
		status models.UserStatus
	}{
		{"open", func() (*models.User, error) { return f.svc.OpenPreboarding(ctx, 7) }, 1, models.StatusPreboarding},
		{"begin", func() (*models.User, error) { return f.svc.BeginDocuments(ctx, 7) }, 2, models.StatusPreboarding},
		{"labour first", func() (*models.User, error) { return f.svc.MarkLabourDocsSent(ctx, 7) }, 4, models.StatusPreboarding},
		{"main after labour", func() (*models.User, error) { return f.svc.MarkMainDocsSent(ctx, 7) }, 4, models.StatusPreboarding},
		{"complete", func() (*models.User, error) { return f.svc.CompletePreboarding(ctx, 7) }, 5, models.StatusPreboarded},
		{"back button", func() (*models.User, error) { return f.svc.BeginDocuments(ctx, 7) }, 5, models.StatusPreboarded},
	}
	for _, step := range steps {
		u, err := step.run()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if u.Stage != step.stage || u.Status != step.status {
			t.Errorf("%s: got stage %d status %s, want %d %s", step.name, u.Stage, u.Status, step.stage, step.status)
		}
	}
}

func TestOnboardingRequiresPreboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 3, "Olga")

	u, promoted, err := f.svc.OpenOnboarding(ctx, 3)
	if err != nil || promoted || u.Status != models.StatusNew {
		t.Fatalf("OpenOnboarding for new user: %+v %v %v", u, promoted, err)
	}
	if _, err := f.svc.BeginOnboarding(ctx, 3); !errors.Is(err, ErrPreboardingIncomplete) {
		t.Errorf("BeginOnboarding err = %v, want ErrPreboardingIncomplete", err)
	}
	if _, err := f.svc.CompleteOnboarding(ctx, 3, "olga"); !errors.Is(err, ErrPreboardingIncomplete) {
		t.Errorf("CompleteOnboarding err = %v, want ErrPreboardingIncomplete", err)
	}
	if _, err := f.svc.OpenPreboarding(ctx, 404); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user err = %v, want ErrUserNotFound", err)
	}
}

func TestOnboardingFlowNotifiesAdminsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 5, "Petr")
	if _, err := f.svc.CompletePreboarding(ctx, 5); err != nil {
		t.Fatal(err)
	}

	u, promoted, err := f.svc.OpenOnboarding(ctx, 5)
	if err != nil || !promoted {
		t.Fatalf("OpenOnboarding: promoted=%v err=%v", promoted, err)
	}
	if u.Status != models.StatusOnboarding || u.Stage != models.StageOnboardingStart {
		t.Fatalf("after open: %+v", u)
	}

	for _, step := range []func(context.Context, int64) (*models.User, error){
		f.svc.BeginOnboarding, f.svc.ConfirmEmailAccess, f.svc.ReportEmailIssue, f.svc.OpenMeetings, f.svc.OpenTeamIntro,
	} {
		if _, err := step(ctx, 5); err != nil {
			t.Fatal(err)
		}
	}
	u, err = f.svc.User(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if u.Stage != models.StageComplete || u.Status != models.StatusOnboarding {
		t.Errorf("before completion: stage %d status %s", u.Stage, u.Status)
	}

	for i := 0; i < 2; i++ {
		u, err = f.svc.CompleteOnboarding(ctx, 5, "petr")
		if err != nil {
			t.Fatal(err)
		}
	}
	if u.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", u.Status)
	}
	notes := f.sender.to(adminID)
	if len(notes) != 1 || !strings.Contains(notes[0], "Онбординг завершен") || !strings.Contains(notes[0], "@petr") {
		t.Errorf("admin notifications = %q", notes)
	}

	// a repeated open does not demote a finished user
	u, promoted, err = f.svc.OpenOnboarding(ctx, 5)
	if err != nil || promoted || u.Status != models.StatusCompleted {
		t.Errorf("reopen: %+v %v %v", u, promoted, err)
	}
}

func TestActionsArePublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 11, "Lena")
	if _, err := f.svc.OpenPreboarding(ctx, 11); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, e := range f.pub.events {
		got = append(got, e.Action)
	}
	want := []string{models.ActionStart, models.ActionPreboardingStart}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("published actions mismatch (-want +got):\n%s", diff)
	}
	last := f.pub.events[len(f.pub.events)-1]
	if last.Stage != models.StageRegistration || last.Status != string(models.StatusPreboarding) {
		t.Errorf("event carries stage %d status %q", last.Stage, last.Status)
	}

	actions, err := f.store.UserActions(ctx, 11, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 2 {
		t.Errorf("stored %d actions, want 2", len(actions))
	}
}

// stalledPublisher blocks like a writer whose broker went away.
type stalledPublisher struct {
	calls int
}

func (p *stalledPublisher) Publish(ctx context.Context, _ events.Event) error {
	p.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *stalledPublisher) Close() error { return nil }

func TestStalledEventStreamDoesNotBlockActions(t *testing.T) {
	f := newFixture(t)
	pub := &stalledPublisher{}
	f.svc.events = pub
	f.svc.publishTimeout = 20 * time.Millisecond
	ctx := context.Background()

	start := time.Now()
	f.register(t, 12, "Oleg")
	if _, err := f.svc.OpenPreboarding(ctx, 12); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("two actions took %v with a stalled event stream", elapsed)
	}
	if pub.calls != 2 {
		t.Errorf("publish calls = %d, want 2", pub.calls)
	}
	actions, err := f.store.UserActions(ctx, 12, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 2 {
		t.Errorf("stored %d actions, want 2", len(actions))
	}
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 21, "Dima")
	p := models.Profile{UserID: 21, Username: "dima", FirstName: "Dima"}

	if _, err := f.svc.SubmitFeedback(ctx, p, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank feedback err = %v", err)
	}
	if _, err := f.svc.SubmitFeedback(ctx, p, strings.Repeat("я", f.cfg.Broadcast.MaxMessageLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("long feedback err = %v", err)
	}

	fb, err := f.svc.SubmitFeedback(ctx, p, "  Спасибо за бота!  ")
	if err != nil {
		t.Fatal(err)
	}
	if fb.Message != "Спасибо за бота!" {
		t.Errorf("message = %q", fb.Message)
	}
	notes := f.sender.to(adminID)
	if len(notes) != 1 || !strings.Contains(notes[0], "Спасибо за бота!") || !strings.Contains(notes[0], "@dima") {
		t.Errorf("admin notifications = %q", notes)
	}

	f.cfg.Notifications.Feedback = false
	if _, err := f.svc.SubmitFeedback(ctx, p, "ещё"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.sender.to(adminID)); n != 1 {
		t.Errorf("notifications with feedback alerts off = %d, want 1", n)
	}
}

func TestBroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		f.register(t, i, "User")
	}
	f.sender.failed[3] = true

	if _, err := f.svc.Broadcast(ctx, 1, "hi", nil); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("non-admin broadcast err = %v", err)
	}
	if _, err := f.svc.Broadcast(ctx, adminID, strings.Repeat("x", 4001), nil); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("long broadcast err = %v", err)
	}

	var reports []BroadcastProgress
	b, err := f.svc.Broadcast(ctx, adminID, "Завтра тимбилдинг", func(p BroadcastProgress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.Total != 5 || b.Sent != 4 || b.Failed != 1 {
		t.Errorf("broadcast counters = %d/%d/%d", b.Total, b.Sent, b.Failed)
	}
	var failed []int64
	if err := json.Unmarshal(b.FailedUserIDs, &failed); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{3}, failed); diff != "" {
		t.Errorf("failed ids (-want +got):\n%s", diff)
	}
	wantReports := []BroadcastProgress{{Done: 2, Total: 5, Sent: 2}, {Done: 4, Total: 5, Sent: 3, Failed: 1}}
	if diff := cmp.Diff(wantReports, reports); diff != "" {
		t.Errorf("progress reports (-want +got):\n%s", diff)
	}
	if msgs := f.sender.to(1); len(msgs) != 1 || !strings.Contains(msgs[0], "Завтра тимбилдинг") {
		t.Errorf("recipient got %q", msgs)
	}

	stored, err := f.svc.RecentBroadcasts(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ID != b.ID {
		t.Errorf("stored broadcasts = %+v", stored)
	}
}

func TestBroadcastCancelledKeepsRecord(t *testing.T) {
	f := newFixture(t)
	for i := int64(1); i <= 3; i++ {
		f.register(t, i, "User")
	}
	f.cfg.Broadcast.Delay = 10

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	b, err := f.svc.Broadcast(ctx, adminID, "hello", nil)
	if err == nil {
		t.Fatal("expected an interruption error")
	}
	if b == nil || b.Sent != 1 {
		t.Fatalf("partial broadcast = %+v", b)
	}
	stored, err := f.svc.RecentBroadcasts(context.Background(), 5)
	if err != nil || len(stored) != 1 {
		t.Errorf("stored = %v, err = %v", stored, err)
	}
}

func TestDashboardAndFunnel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 1, "A")
	f.register(t, 2, "B")
	f.register(t, 3, "C")
	f.register(t, 4, "D")
	f.svc.OpenPreboarding(ctx, 2)
	f.svc.CompletePreboarding(ctx, 3)
	f.svc.CompletePreboarding(ctx, 4)
	f.svc.CompleteOnboarding(ctx, 4, "d")

	if _, err := f.svc.Dashboard(ctx, 1); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("dashboard for user: %v", err)
	}
	d, err := f.svc.Dashboard(ctx, adminID)
	if err != nil {
		t.Fatal(err)
	}
	var users []int64
	var conv []float64
	for _, s := range d.Funnel.Steps {
		users = append(users, s.Users)
		conv = append(conv, s.Conversion)
	}
	if diff := cmp.Diff([]int64{4, 3, 2, 1, 1}, users); diff != "" {
		t.Errorf("funnel users (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 75, 50, 25, 25}, conv); diff != "" {
		t.Errorf("funnel conversion (-want +got):\n%s", diff)
	}
	if d.Statistics.CompletionRate != 25 {
		t.Errorf("completion rate = %v", d.Statistics.CompletionRate)
	}

	a, err := f.svc.Analytics(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.Days != 30 || len(a.DailyActivity) != 1 || len(a.PopularActions) == 0 {
		t.Errorf("analytics = %+v", a)
	}
}

func TestUsersPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := int64(1); i <= 12; i++ {
		f.register(t, i, "U")
	}
	p, err := f.svc.Users(ctx, "", 9, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Page != 3 || p.Pages != 3 || p.Total != 12 || len(p.Users) != 2 {
		t.Errorf("clamped page = %d/%d total %d len %d", p.Page, p.Pages, p.Total, len(p.Users))
	}
	p, err = f.svc.Users(ctx, models.StatusCompleted, 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Pages != 1 || len(p.Users) != 0 {
		t.Errorf("empty filter = %+v", p)
	}
}

func TestResetProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, 5, "Eva")
	if _, err := f.svc.CompletePreboarding(ctx, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ResetProgress(ctx, 5, 5); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("reset by a non-admin: %v", err)
	}
	if _, err := f.svc.ResetProgress(ctx, adminID, 404); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("reset of unknown user: %v", err)
	}

	u, err := f.svc.ResetProgress(ctx, adminID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if u.Stage != 0 || u.Status != models.StatusNew {
		t.Errorf("after reset: %+v", u)
	}

	last := func(id int64) string {
		list, err := f.store.UserActions(ctx, id, 1)
		if err != nil || len(list) == 0 {
			t.Fatalf("actions of %d: %v %v", id, list, err)
		}
		return list[0].Action
	}
	if got := last(adminID); got != models.ActionAdminReset {
		t.Errorf("admin action = %q", got)
	}
	if got := last(5); got != models.ActionProgressReset {
		t.Errorf("user action = %q", got)
	}

	// the flow starts over from the first step
	u, err = f.svc.OpenPreboarding(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != models.StatusPreboarding {
		t.Errorf("after restart: %+v", u)
	}
}

func TestRemindStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f.store.SetClock(func() time.Time { return clock })

	f.register(t, 1, "Stale")
	f.register(t, 2, "Done")
	f.svc.CompletePreboarding(ctx, 2)
	f.svc.CompleteOnboarding(ctx, 2, "done")

	if n, err := f.svc.RemindStale(ctx); err != nil || n != 0 {
		t.Fatalf("reminders disabled: n=%d err=%v", n, err)
	}
	f.cfg.Onboarding.AutoReminders = true
	f.cfg.Onboarding.ReminderIntervalDays = 3

	clock = clock.Add(4 * 24 * time.Hour)
	n, err := f.svc.RemindStale(ctx)
	if err != nil || n != 1 {
		t.Fatalf("first run: n=%d err=%v", n, err)
	}
	if msgs := f.sender.to(1); len(msgs) != 1 || !strings.Contains(msgs[0], models.NextStepHint(0)) {
		t.Errorf("reminder = %q", msgs)
	}
	if n, _ := f.svc.RemindStale(ctx); n != 0 {
		t.Errorf("second run reminded %d users, want 0", n)
	}
}

func TestAdminTokens(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.IssueAdminToken(1, time.Hour); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("token for non-admin: %v", err)
	}
	tok, err := f.svc.IssueAdminToken(adminID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	id, err := f.svc.ParseAdminToken(tok)
	if err != nil || id != adminID {
		t.Fatalf("ParseAdminToken = %d, %v", id, err)
	}

	// a non-positive ttl falls back to the configured one
	fallback, err := f.svc.IssueAdminToken(adminID, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ParseAdminToken(fallback); err != nil {
		t.Errorf("fallback ttl token rejected: %v", err)
	}

	f.cfg.Telegram.AdminIDs = []int64{42}
	if _, err := f.svc.ParseAdminToken(tok); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("revoked admin err = %v", err)
	}
	f.cfg.Auth.JwtSecret = "other"
	if _, err := f.svc.ParseAdminToken(tok); err == nil {
		t.Error("token signed with another secret accepted")
	}
}
