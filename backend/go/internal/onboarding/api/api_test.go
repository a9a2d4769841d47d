package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/database/sqlite"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/events"
	"OnboardingBuddy/backend/go/internal/onboarding/export"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testAdmin = int64(900001)

type countingSender struct {
	mu   sync.Mutex
	sent map[int64]int
}

func (s *countingSender) SendText(_ context.Context, chatID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[chatID]++
	return nil
}

type stubExporter struct {
	err error
}

func (e stubExporter) Run(context.Context) (*export.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &export.Result{Stamp: "20240506_070809", Users: 3, Files: []export.File{{Kind: export.KindFull, Name: "full.json", Size: 10}}}, nil
}

type fixture struct {
	router  *gin.Engine
	handler *Handler
	db      *gorm.DB
	svc     *service.Service
	sender  *countingSender
	token   string
}

func newFixture(t *testing.T, exporter Exporter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), gormlogger.Silent)
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
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Telegram.AdminIDs = []int64{testAdmin}
	cfg.Auth.JwtSecret = "test-secret"
	cfg.Broadcast.Delay = 0

	sender := &countingSender{sent: map[int64]int{}}
	log := logger.New("api_test", "", "")
	svc := service.NewService(st, cfg, events.Noop{}, sender, log)

	ctx := context.Background()
	for _, p := range []models.Profile{
		{UserID: 1, Username: "anna", FirstName: "Анна"},
		{UserID: 2, Username: "boris", FirstName: "Борис"},
		{UserID: 3, Username: "vera", FirstName: "Вера"},
	} {
		if _, _, err := svc.Register(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.OpenPreboarding(ctx, 2); err != nil {
		t.Fatal(err)
	}

	token, err := svc.IssueAdminToken(testAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc, exporter)
	return &fixture{
		router:  SetupRouter(h, svc, log),
		handler: h,
		db:      db,
		svc:     svc,
		sender:  sender,
		token:   token,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.doAs(t, f.token, method, path, body)
}

func (f *fixture) doAs(t *testing.T, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestAuth(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.doAs(t, "", http.MethodGet, "/api/v1/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + f.token, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestTokenOfRemovedAdminIsForbidden(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.Config().Telegram.AdminIDs = []int64{42}
	if w := f.do(t, http.MethodGet, "/api/v1/stats", ""); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Statistics models.Statistics `json:"statistics"`
	}
	decode(t, w, &body)
	if body.Statistics.TotalUsers != 3 {
		t.Errorf("total users = %d", body.Statistics.TotalUsers)
	}
	if got := body.Statistics.Count(models.StatusPreboarding); got != 1 {
		t.Errorf("preboarding = %d", got)
	}
}

func TestUsers(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/users?status=preboarding", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var page service.UsersPage
	decode(t, w, &page)
	if page.Total != 1 || len(page.Users) != 1 || page.Users[0].UserID != 2 {
		t.Errorf("unexpected page: %+v", page)
	}

	w = f.do(t, http.MethodGet, "/api/v1/users?limit=2&page=2", "")
	decode(t, w, &page)
	if diff := cmp.Diff(service.UsersPage{Users: page.Users, Total: 3, Page: 2, Pages: 2}, page); diff != "" || len(page.Users) != 1 {
		t.Errorf("second page mismatch (-want +got):\n%s", diff)
	}

	w = f.do(t, http.MethodGet, "/api/v1/users?q=bor*", "")
	var found struct {
		Users []models.User `json:"users"`
	}
	decode(t, w, &found)
	if len(found.Users) != 1 || found.Users[0].Username != "boris" {
		t.Errorf("search = %+v", found.Users)
	}

	for _, bad := range []string{"?status=fired", "?page=0", "?limit=1000", "?page=x"} {
		if w := f.do(t, http.MethodGet, "/api/v1/users"+bad, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, w.Code)
		}
	}
}

func TestUserDetails(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/users/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		User    models.User         `json:"user"`
		Actions []models.UserAction `json:"actions"`
	}
	decode(t, w, &body)
	if body.User.Status != models.StatusPreboarding || len(body.Actions) == 0 {
		t.Errorf("unexpected details: %+v", body)
	}

	if w := f.do(t, http.MethodGet, "/api/v1/users/404", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/v1/users/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", w.Code)
	}
}

func TestBroadcast(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(t, http.MethodPost, "/api/v1/broadcast", `{"text":"   "}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank text: status = %d", w.Code)
	}
	long := strings.Repeat("я", f.svc.Config().Broadcast.MaxMessageLength+1)
	if w := f.do(t, http.MethodPost, "/api/v1/broadcast", `{"text":"`+long+`"}`); w.Code != http.StatusBadRequest {
		t.Errorf("long text: status = %d", w.Code)
	}

	w := f.do(t, http.MethodPost, "/api/v1/broadcast", `{"text":"Завтра общее собрание"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var b models.Broadcast
	decode(t, w, &b)
	if b.Total != 3 || b.Sent != 3 || b.Failed != 0 || b.AdminID != testAdmin {
		t.Errorf("unexpected broadcast: %+v", b)
	}
	if diff := cmp.Diff(map[int64]int{1: 1, 2: 1, 3: 1}, f.sender.sent); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}

	w = f.do(t, http.MethodGet, "/api/v1/broadcasts", "")
	var list struct {
		Broadcasts []models.Broadcast `json:"broadcasts"`
	}
	decode(t, w, &list)
	if len(list.Broadcasts) != 1 {
		t.Errorf("broadcast history = %d entries", len(list.Broadcasts))
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)
	if w := f.do(t, http.MethodPost, "/api/v1/export", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("no exporter: status = %d", w.Code)
	}

	f = newFixture(t, stubExporter{})
	w := f.do(t, http.MethodPost, "/api/v1/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res export.Result
	decode(t, w, &res)
	if res.Stamp != "20240506_070809" || len(res.Files) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}

	f = newFixture(t, stubExporter{err: errors.New("disk full")})
	if w := f.do(t, http.MethodPost, "/api/v1/export", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("failing exporter: status = %d", w.Code)
	}
}

func TestResetUser(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/users/2/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		User models.User `json:"user"`
	}
	decode(t, w, &body)
	if body.User.UserID != 2 || body.User.Status != models.StatusNew || body.User.Stage != 0 {
		t.Errorf("reset user = %+v", body.User)
	}

	if w := f.do(t, http.MethodPost, "/api/v1/users/404/reset", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/api/v1/users/abc/reset", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", w.Code)
	}
	if w := f.doAs(t, "", http.MethodPost, "/api/v1/users/2/reset", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
}

func TestCleanupAndFeedback(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(t, http.MethodPost, "/api/v1/cleanup?days=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative days: status = %d", w.Code)
	}
	w := f.do(t, http.MethodPost, "/api/v1/cleanup?days=30", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var cleaned struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &cleaned)
	if cleaned.Deleted != 0 {
		t.Errorf("fresh actions deleted: %d", cleaned.Deleted)
	}

	ctx := context.Background()
	if _, err := f.svc.SubmitFeedback(ctx, models.Profile{UserID: 1, FirstName: "Анна"}, "Всё отлично"); err != nil {
		t.Fatal(err)
	}
	w = f.do(t, http.MethodGet, "/api/v1/feedback?limit=5", "")
	var page service.FeedbackPage
	decode(t, w, &page)
	if page.Total != 1 || page.Items[0].Message != "Всё отлично" {
		t.Errorf("unexpected feedback page: %+v", page)
	}
}

func TestAnalyticsValidatesDays(t *testing.T) {
	f := newFixture(t, nil)
	if w := f.do(t, http.MethodGet, "/api/v1/analytics?days=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("days=0: status = %d", w.Code)
	}
	w := f.do(t, http.MethodGet, "/api/v1/analytics?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var a models.Analytics
	decode(t, w, &a)
	if a.Days != 7 {
		t.Errorf("days = %d", a.Days)
	}
}

func TestHealthReportsBackends(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.AddHealthCheck("sqlite", func(ctx context.Context) error {
		return sqlite.Ping(ctx, f.db)
	})

	var body struct {
		Status   string            `json:"status"`
		Backends map[string]string `json:"backends"`
	}
	w := f.doAs(t, "", http.MethodGet, "/api/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &body)
	if body.Status != "ok" || body.Backends["sqlite"] != "ok" {
		t.Errorf("healthy body = %+v", body)
	}

	f.handler.AddHealthCheck("redis", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("check without deadline")
		}
		return errors.New("redis ping: connection refused")
	})
	w = f.doAs(t, "", http.MethodGet, "/api/v1/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz with a failing backend = %d", w.Code)
	}
	body.Backends = nil
	decode(t, w, &body)
	want := map[string]string{"sqlite": "ok", "redis": "redis ping: connection refused"}
	if diff := cmp.Diff(want, body.Backends); diff != "" || body.Status != "degraded" {
		t.Errorf("status %q, backends (-want +got):\n%s", body.Status, diff)
	}
}
