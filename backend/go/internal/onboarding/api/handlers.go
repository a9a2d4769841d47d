package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/export"
	"OnboardingBuddy/backend/go/internal/onboarding/service"

	"github.com/gin-gonic/gin"
)

const (
	healthTimeout   = 2 * time.Second
	defaultPageSize = 20
	maxPageSize     = 100
	userActions     = 20
)

// Exporter runs a data export.
type Exporter interface {
	Run(ctx context.Context) (*export.Result, error)
}

// HealthCheck reports whether a backend answers.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Handler holds the dashboard endpoints.
type Handler struct {
	service  *service.Service
	exporter Exporter
	checks   []namedCheck
	started  time.Time
}

// NewHandler creates the handler. exporter may be nil, POST /export then
// answers 503.
func NewHandler(s *service.Service, exporter Exporter) *Handler {
	return &Handler{service: s, exporter: exporter, started: time.Now()}
}

// AddHealthCheck registers a backend reported by /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// Health runs every registered check without authentication. Any failing
// backend turns the answer into 503.
func (h *Handler) Health(c *gin.Context) {
	code, status := http.StatusOK, "ok"
	backends := make(map[string]string, len(h.checks))
	for _, nc := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := nc.check(ctx)
		cancel()
		if err != nil {
			backends[nc.name] = err.Error()
			code, status = http.StatusServiceUnavailable, "degraded"
			continue
		}
		backends[nc.name] = "ok"
	}
	c.JSON(code, gin.H{
		"status":   status,
		"backends": backends,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

// Stats returns the aggregate counters and the conversion funnel.
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"statistics":        st,
		"conversion_funnel": service.BuildFunnel(st),
	})
}

// Analytics returns the activity report for ?days= (default 30).
func (h *Handler) Analytics(c *gin.Context) {
	days, ok := intQuery(c, "days", 30)
	if !ok || days < 1 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}
	a, err := h.service.Analytics(c.Request.Context(), days)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Users lists users. ?q= searches with a glob pattern, otherwise the list is
// paged with ?page= and ?limit= and filtered with ?status=.
func (h *Handler) Users(c *gin.Context) {
	ctx := c.Request.Context()
	if q := c.Query("q"); q != "" {
		users, err := h.service.SearchUsers(ctx, q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
		return
	}

	var status models.UserStatus
	if raw := c.Query("status"); raw != "" && raw != "all" {
		st, ok := models.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(raw)})
			return
		}
		status = st
	}
	page, limit, ok := paging(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page or limit"})
		return
	}
	res, err := h.service.Users(ctx, status, page, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// User returns one user with the latest actions.
func (h *Handler) User(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	u, actions, err := h.service.UserDetails(c.Request.Context(), id, userActions)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":       u,
		"progress":   u.ProgressPercent(),
		"stage_name": models.StageName(u.Stage),
		"actions":    actions,
	})
}

// ResetUser sends a user back to stage 0.
func (h *Handler) ResetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	u, err := h.service.ResetProgress(c.Request.Context(), adminID(c), id)
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case err != nil:
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Feedback pages through the feedback, newest first.
func (h *Handler) Feedback(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page or limit"})
		return
	}
	res, err := h.service.Feedback(c.Request.Context(), page, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Broadcasts lists the latest broadcasts.
func (h *Handler) Broadcasts(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 10)
	if !ok || limit < 1 || limit > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	list, err := h.service.RecentBroadcasts(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"broadcasts": list})
}

// BroadcastRequest is the body of POST /broadcast.
type BroadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// Broadcast sends a message to every user and returns the stored outcome.
// The request blocks until all sends are done.
func (h *Handler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.CheckBroadcast(req.Text); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.service.Broadcast(c.Request.Context(), adminID(c), req.Text, nil)
	if errors.Is(err, service.ErrNotAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Export writes a full data export.
func (h *Handler) Export(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export is not configured"})
		return
	}
	res, err := h.exporter.Run(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	h.service.RecordAdmin(c.Request.Context(), adminID(c), models.ActionAdminExport, res.Summary())
	c.JSON(http.StatusOK, res)
}

// Cleanup deletes activity older than ?days= (default from the config).
func (h *Handler) Cleanup(c *gin.Context) {
	days, ok := intQuery(c, "days", 0)
	if !ok || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return
	}
	n, err := h.service.Cleanup(c.Request.Context(), adminID(c), days)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

func paging(c *gin.Context) (page, limit int, ok bool) {
	page, ok = intQuery(c, "page", 1)
	if !ok || page < 1 {
		return 0, 0, false
	}
	limit, ok = intQuery(c, "limit", defaultPageSize)
	if !ok || limit < 1 || limit > maxPageSize {
		return 0, 0, false
	}
	return page, limit, true
}

func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
