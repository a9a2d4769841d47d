// Package export writes the onboarding data to files for HR analysis.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/store"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/djherbis/times"
	"github.com/dustin/go-humanize"
)

// StampLayout is the timestamp embedded in export file names.
const StampLayout = "20060102_150405"

// File kinds produced by Run.
const (
	KindFull      = "full_json"
	KindUsers     = "users_csv"
	KindFeedback  = "feedback_csv"
	KindActions   = "actions_csv"
	KindStats     = "statistics_csv"
	KindDaily     = "daily_activity_csv"
	KindWorkbook  = "xlsx"
	KindAnalytics = "analytics_json"
	KindReport    = "report_txt"
)

// ErrUserNotFound is returned by UserExport for unknown ids.
var ErrUserNotFound = errors.New("user not found")

// File is one written export file.
type File struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Result describes a finished export run.
type Result struct {
	Stamp        string                    `json:"stamp"`
	Dir          string                    `json:"dir"`
	Files        []File                    `json:"files"`
	Users        int                       `json:"users"`
	Feedback     int                       `json:"feedback"`
	Actions      int                       `json:"actions"`
	StatusCounts map[models.UserStatus]int `json:"status_counts"`
	ExportedAt   time.Time                 `json:"exported_at"`
	Uploaded     int                       `json:"uploaded"`
}

// File returns the file of the given kind.
func (r *Result) File(kind string) (File, bool) {
	for _, f := range r.Files {
		if f.Kind == kind {
			return f, true
		}
	}
	return File{}, false
}

// TotalSize is the combined size of all files in bytes.
func (r *Result) TotalSize() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Size
	}
	return n
}

// Summary is a one-line description for logs and the CLI.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d files, %s in %s (users=%d feedback=%d actions=%d)",
		len(r.Files), humanize.Bytes(uint64(r.TotalSize())), r.Dir, r.Users, r.Feedback, r.Actions)
}

// Exporter writes the data set into the export directory and optionally
// uploads every file to object storage.
type Exporter struct {
	store    *store.Store
	cfg      config.ExportConfig
	uploader Uploader
	logger   *logger.Logger
	now      func() time.Time
	stat     func(path string) (times.Timespec, error)
}

// New creates an exporter. uploader may be nil.
func New(st *store.Store, cfg config.ExportConfig, uploader Uploader, log *logger.Logger) *Exporter {
	if cfg.Dir == "" {
		cfg.Dir = "data/exports"
	}
	if cfg.ActionsLimit <= 0 {
		cfg.ActionsLimit = 1000
	}
	return &Exporter{
		store:    st,
		cfg:      cfg,
		uploader: uploader,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
		stat:     times.Stat,
	}
}

// SetClock replaces the time source.
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}

// Dir is the directory exports are written to.
func (e *Exporter) Dir() string {
	return e.cfg.Dir
}

// snapshot is everything a run reads from the store.
type snapshot struct {
	dump     *store.Dump
	feedback []models.FeedbackView
	stats    *models.Statistics
	popular  []models.ActionCount
	daily    []models.DailyActivity
}

func (e *Exporter) load(ctx context.Context) (*snapshot, error) {
	var (
		s   snapshot
		err error
	)
	if s.dump, err = e.store.Dump(ctx, e.cfg.ActionsLimit); err != nil {
		return nil, err
	}
	total, err := e.store.CountFeedback(ctx)
	if err != nil {
		return nil, err
	}
	if s.feedback, err = e.store.RecentFeedback(ctx, int(total), 0); err != nil {
		return nil, err
	}
	if s.stats, err = e.store.Statistics(ctx); err != nil {
		return nil, err
	}
	if s.popular, err = e.store.PopularActions(ctx, analyticsDays, 100); err != nil {
		return nil, err
	}
	if s.daily, err = e.store.DailyActivity(ctx, analyticsDays); err != nil {
		return nil, err
	}
	return &s, nil
}

// Run writes a complete export: the JSON dump, the CSV tables, an XLSX
// workbook, the analytics report and a text report listing the files.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(e.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	snap, err := e.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load export data: %w", err)
	}

	at := e.now()
	stamp := at.Format(StampLayout)
	res := &Result{
		Stamp:        stamp,
		Dir:          e.cfg.Dir,
		Users:        len(snap.dump.Users),
		Feedback:     len(snap.dump.Feedback),
		Actions:      len(snap.dump.Actions),
		StatusCounts: make(map[models.UserStatus]int),
		ExportedAt:   at,
	}
	for _, u := range snap.dump.Users {
		res.StatusCounts[u.Status]++
	}

	writers := []struct {
		kind, name string
		write      func(path string) error
	}{
		{KindFull, "onboarding_full_export_%s.json", func(p string) error { return writeJSON(p, fullExport(snap.dump, stamp)) }},
		{KindUsers, "users_%s.csv", func(p string) error { return writeUsersCSV(p, snap.dump.Users) }},
		{KindFeedback, "feedback_%s.csv", func(p string) error { return writeFeedbackCSV(p, snap.feedback) }},
		{KindActions, "user_actions_%s.csv", func(p string) error { return writeActionsCSV(p, snap.popular) }},
		{KindStats, "statistics_%s.csv", func(p string) error { return writeStatisticsCSV(p, snap.stats) }},
		{KindDaily, "daily_activity_%s.csv", func(p string) error { return writeDailyCSV(p, snap.daily) }},
		{KindWorkbook, "onboarding_%s.xlsx", func(p string) error { return writeXLSX(p, snap) }},
		{KindAnalytics, "analytics_report_%s.json", func(p string) error { return writeJSON(p, analyticsReport(snap, stamp, at)) }},
	}
	for _, w := range writers {
		name := fmt.Sprintf(w.name, stamp)
		path := filepath.Join(e.cfg.Dir, name)
		if err := w.write(path); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		if err := res.add(w.kind, name, path); err != nil {
			return nil, err
		}
	}

	reportName := fmt.Sprintf("export_report_%s.txt", stamp)
	reportPath := filepath.Join(e.cfg.Dir, reportName)
	if err := os.WriteFile(reportPath, []byte(textReport(res, snap.stats)), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", reportName, err)
	}
	if err := res.add(KindReport, reportName, reportPath); err != nil {
		return nil, err
	}

	if e.uploader != nil {
		for _, f := range res.Files {
			if err := e.uploader.Upload(ctx, stamp+"/"+f.Name, f.Path); err != nil {
				e.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "upload_error"}).
					Warn("failed to upload export file " + f.Name)
				continue
			}
			res.Uploaded++
		}
	}

	e.logger.WithPayload(map[string]interface{}{
		"stamp":    stamp,
		"files":    len(res.Files),
		"uploaded": res.Uploaded,
	}).Info("export finished: " + res.Summary())
	return res, nil
}

func (r *Result) add(kind, name, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	r.Files = append(r.Files, File{Kind: kind, Name: name, Path: path, Size: info.Size()})
	return nil
}

// UserData is the personal export of one user.
type UserData struct {
	UserInfo        *models.User        `json:"user_info"`
	Actions         []models.UserAction `json:"actions"`
	ExportTimestamp time.Time           `json:"export_timestamp"`
}

// UserExport collects a user's profile and latest 100 actions.
func (e *Exporter) UserExport(ctx context.Context, userID int64) (*UserData, error) {
	u, err := e.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	actions, err := e.store.UserActions(ctx, userID, 100)
	if err != nil {
		return nil, err
	}
	return &UserData{UserInfo: u, Actions: actions, ExportTimestamp: e.now()}, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
