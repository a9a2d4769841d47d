package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/internal/database/sqlite"
	"OnboardingBuddy/backend/go/internal/models"

	"github.com/google/go-cmp/cmp"
	gormlogger "gorm.io/gorm/logger"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time           { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s := NewStore(db)
	clk := &testClock{t: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	s.now = clk.now
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s, clk
}

func mustCreate(t *testing.T, s *Store, id int64, username, name string) {
	t.Helper()
	if err := s.CreateUser(context.Background(), &models.User{UserID: id, Username: username, FullName: name}); err != nil {
		t.Fatalf("create user %d: %v", id, err)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser on empty db: err = %v, want ErrNotFound", err)
	}

	mustCreate(t, s, 1, "anna", "Анна Петрова")
	u, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != models.StatusNew || u.Stage != 0 || u.FullName != "Анна Петрова" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestCreateUserKeepsProgress(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "anna", "Анна")
	status := models.StatusPreboarding
	if _, _, err := s.UpdateStage(ctx, 1, 3, &status); err != nil {
		t.Fatal(err)
	}

	mustCreate(t, s, 1, "anna_p", "Анна Петрова")
	u, err := s.GetUser(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if u.Stage != 3 || u.Status != models.StatusPreboarding {
		t.Errorf("re-registration reset progress: %+v", u)
	}
	if u.Username != "anna_p" || u.FullName != "Анна Петрова" {
		t.Errorf("profile not refreshed: %+v", u)
	}
}

func TestUpdateStageNeverRegresses(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 7, "", "")

	onboarding := models.StatusOnboarding
	u, changed, err := s.UpdateStage(ctx, 7, 6, &onboarding)
	if err != nil || !changed {
		t.Fatalf("advance: changed=%v err=%v", changed, err)
	}
	if u.Stage != 6 || u.Status != models.StatusOnboarding {
		t.Fatalf("after advance: %+v", u)
	}

	preboarding := models.StatusPreboarding
	u, changed, err = s.UpdateStage(ctx, 7, 2, &preboarding)
	if err != nil {
		t.Fatal(err)
	}
	if changed || u.Stage != 6 || u.Status != models.StatusOnboarding {
		t.Errorf("regression applied: changed=%v user=%+v", changed, u)
	}

	u, _, err = s.UpdateStage(ctx, 7, 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	if u.Stage != models.MaxStage {
		t.Errorf("stage = %d, want capped at %d", u.Stage, models.MaxStage)
	}

	if _, _, err := s.UpdateStage(ctx, 404, 1, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestResetUser(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 7, "", "")

	completed := models.StatusCompleted
	if _, _, err := s.UpdateStage(ctx, 7, models.MaxStage, &completed); err != nil {
		t.Fatal(err)
	}
	clock.advance(time.Hour)

	u, err := s.ResetUser(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetUser(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stage != 0 || got.Status != models.StatusNew || !got.UpdatedAt.Equal(u.UpdatedAt) {
		t.Errorf("after reset: %+v", got)
	}
	if !u.UpdatedAt.Equal(clock.now()) {
		t.Errorf("updated_at = %v, want %v", u.UpdatedAt, clock.now())
	}

	if _, err := s.ResetUser(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "anna", "Анна")

	u, _ := s.GetUser(ctx, 1)
	u.Position = "Аналитик"
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetUser(ctx, 1)
	if got.Position != "Аналитик" {
		t.Errorf("position = %q", got.Position)
	}
	if err := s.UpdateUser(ctx, &models.User{UserID: 99}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing user: err = %v", err)
	}
}

func TestListingAndPaging(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		mustCreate(t, s, i, "", "")
		clk.advance(time.Minute)
	}
	done := models.StatusCompleted
	s.UpdateStage(ctx, 2, 10, &done)
	s.UpdateStage(ctx, 4, 10, &done)

	all, err := s.AllUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, u := range all {
		ids = append(ids, u.UserID)
	}
	if diff := cmp.Diff([]int64{5, 4, 3, 2, 1}, ids); diff != "" {
		t.Errorf("AllUsers order (-want +got):\n%s", diff)
	}

	completed, err := s.UsersByStatus(ctx, models.StatusCompleted)
	if err != nil || len(completed) != 2 {
		t.Fatalf("UsersByStatus = %d users, err %v", len(completed), err)
	}

	page, total, err := s.UsersPage(ctx, "", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page) != 2 || page[0].UserID != 3 {
		t.Errorf("page 2: total=%d users=%+v", total, page)
	}
	page, total, err = s.UsersPage(ctx, models.StatusNew, 1, 10)
	if err != nil || total != 3 || len(page) != 3 {
		t.Errorf("filtered page: total=%d len=%d err=%v", total, len(page), err)
	}
}

func TestSearchUsers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1001, "ivan_dev", "Иван Смирнов")
	mustCreate(t, s, 1002, "maria", "Мария Иванова")
	mustCreate(t, s, 1003, "petr", "Пётр Сидоров")

	cases := map[string][]int64{
		"ivan":     {1001},
		"@maria":   {1002},
		"*иван*":   {1002, 1001},
		"100?":     {1003, 1002, 1001},
		"nobody":   nil,
		"сидоров*": nil,
	}
	for pattern, want := range cases {
		got, err := s.SearchUsers(ctx, pattern)
		if err != nil {
			t.Fatalf("SearchUsers(%q): %v", pattern, err)
		}
		var ids []int64
		for _, u := range got {
			ids = append(ids, u.UserID)
		}
		if diff := cmp.Diff(want, ids); diff != "" {
			t.Errorf("SearchUsers(%q) (-want +got):\n%s", pattern, diff)
		}
	}
}

func TestFeedback(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "anna", "Анна")

	if _, err := s.SaveFeedback(ctx, 1, "Всё понятно"); err != nil {
		t.Fatal(err)
	}
	clk.advance(time.Second)
	if _, err := s.SaveFeedback(ctx, 1, "Спасибо!"); err != nil {
		t.Fatal(err)
	}

	rows, err := s.RecentFeedback(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Message != "Спасибо!" || rows[0].Author() != "Анна" {
		t.Errorf("unexpected feedback rows: %+v", rows)
	}
	if n, _ := s.CountFeedback(ctx); n != 2 {
		t.Errorf("CountFeedback = %d", n)
	}
}

func TestStatisticsAndActivity(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 4; i++ {
		mustCreate(t, s, i, "", "")
	}
	done := models.StatusCompleted
	s.UpdateStage(ctx, 1, 10, &done)
	pre := models.StatusPreboarding
	s.UpdateStage(ctx, 2, 3, &pre)

	// Old activity, outside the 7 day window.
	s.LogAction(ctx, 3, models.ActionStart, "")
	clk.advance(10 * 24 * time.Hour)

	s.LogAction(ctx, 1, models.ActionStart, "")
	s.LogAction(ctx, 1, models.ActionHelp, "")
	s.LogAction(ctx, 2, models.ActionStart, "")
	clk.advance(24 * time.Hour)
	s.LogAction(ctx, 2, models.ActionStart, "")
	s.SaveFeedback(ctx, 2, "ok")

	st, err := s.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := &models.Statistics{
		TotalUsers: 4,
		StatusCounts: map[models.UserStatus]int64{
			models.StatusCompleted:   1,
			models.StatusPreboarding: 1,
			models.StatusNew:         2,
		},
		ActiveWeek:     2,
		TotalFeedback:  1,
		AvgProgress:    3.25,
		CompletionRate: 25,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Statistics (-want +got):\n%s", diff)
	}

	popular, err := s.PopularActions(ctx, 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	wantPopular := []models.ActionCount{{Action: "start", Count: 3}, {Action: "help", Count: 1}}
	if diff := cmp.Diff(wantPopular, popular); diff != "" {
		t.Errorf("PopularActions (-want +got):\n%s", diff)
	}

	daily, err := s.DailyActivity(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	wantDaily := []models.DailyActivity{
		{Date: "2024-03-15", Actions: 1, UniqueUsers: 1},
		{Date: "2024-03-14", Actions: 3, UniqueUsers: 2},
		{Date: "2024-03-04", Actions: 1, UniqueUsers: 1},
	}
	if diff := cmp.Diff(wantDaily, daily); diff != "" {
		t.Errorf("DailyActivity (-want +got):\n%s", diff)
	}

	weekdays, err := s.WeekdayActivity(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if weekdays["Thursday"] != 3 || weekdays["Friday"] != 1 || weekdays["Monday"] != 1 {
		t.Errorf("WeekdayActivity = %v", weekdays)
	}

	removed, err := s.CleanupActions(ctx, 7)
	if err != nil || removed != 1 {
		t.Errorf("CleanupActions removed %d, err %v", removed, err)
	}
	actions, _ := s.UserActions(ctx, 3, 10)
	if len(actions) != 0 {
		t.Errorf("old actions survived cleanup: %+v", actions)
	}
}

func TestStaleUsers(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "", "")
	mustCreate(t, s, 2, "", "")
	mustCreate(t, s, 3, "", "")
	done := models.StatusCompleted
	s.UpdateStage(ctx, 3, 10, &done)

	clk.advance(4 * 24 * time.Hour)
	s.UpdateStage(ctx, 2, 2, nil)

	stale, err := s.StaleUsers(ctx, 3*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 || stale[0].UserID != 1 {
		t.Fatalf("StaleUsers = %+v, want only user 1", stale)
	}

	s.LogAction(ctx, 1, models.ActionReminder, "")
	stale, err = s.StaleUsers(ctx, 3*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 0 {
		t.Errorf("reminded user reported again: %+v", stale)
	}
}

func TestBroadcastsAndDump(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, 1, "anna", "Анна")
	s.SaveFeedback(ctx, 1, "hello")
	for i := 0; i < 5; i++ {
		s.LogAction(ctx, 1, models.ActionHelp, "")
	}

	b := &models.Broadcast{ID: "b-1", AdminID: 99999, Text: "Привет", Total: 1, Sent: 1, StartedAt: clk.t, FinishedAt: clk.t}
	if err := s.SaveBroadcast(ctx, b); err != nil {
		t.Fatal(err)
	}
	list, err := s.RecentBroadcasts(ctx, 5)
	if err != nil || len(list) != 1 || list[0].Text != "Привет" {
		t.Fatalf("RecentBroadcasts = %+v, err %v", list, err)
	}

	d, err := s.Dump(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Users) != 1 || len(d.Feedback) != 1 || len(d.Actions) != 3 {
		t.Errorf("dump sizes: users=%d feedback=%d actions=%d", len(d.Users), len(d.Feedback), len(d.Actions))
	}
	if !d.ExportedAt.Equal(clk.t) {
		t.Errorf("ExportedAt = %v", d.ExportedAt)
	}
}
