// Package httpapi serves a read-only status surface next to the terminal UI.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/planner"
	"go.uber.org/zap"
)

type Reader interface {
	Day(ctx context.Context, day time.Time) ([]model.ScheduleItem, error)
	Goals(ctx context.Context, state model.GoalState, now time.Time) ([]planner.GoalView, error)
	OverallConsistency(ctx context.Context, now time.Time) (int, error)
}

// Pinger reports store health, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Reader   Reader
	Pinger   Pinger
	Metrics  http.Handler
	Clock    func() time.Time
	Location *time.Location
	Logger   *zap.Logger
}

type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type handler struct {
	opts Options
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &handler{opts: opts}

	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog())

	router.GET("/healthz", h.health)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	api := router.Group("/api")
	{
		api.GET("/today", h.day)
		api.GET("/days/:date", h.day)
		api.GET("/goals", h.goals)
	}
	return router
}

func (h *handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.opts.Logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Code: code, Message: message})
}

func (h *handler) internal(c *gin.Context, err error) {
	h.opts.Logger.Error("http handler failed", zap.String("path", c.FullPath()), zap.Error(err))
	fail(c, http.StatusInternalServerError, "internal server error")
}

func (h *handler) health(c *gin.Context) {
	if h.opts.Pinger != nil {
		if err := h.opts.Pinger.PingContext(c.Request.Context()); err != nil {
			fail(c, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	success(c, gin.H{"status": "ok"})
}

type itemJSON struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	SourceID      string `json:"source_id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
	DisplayTime   string `json:"display_time,omitempty"`
	Completed     bool   `json:"completed"`
	Reminder      bool   `json:"reminder"`
}

type dayJSON struct {
	Date  string     `json:"date"`
	Items []itemJSON `json:"items"`
}

func (h *handler) day(c *gin.Context) {
	now := h.opts.Clock().In(h.opts.Location)
	day := model.DayStart(now)
	if raw := strings.TrimSpace(c.Param("date")); raw != "" {
		parsed, err := model.ParseDate(raw, h.opts.Location)
		if err != nil {
			fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	items, err := h.opts.Reader.Day(c.Request.Context(), day)
	if err != nil {
		h.internal(c, err)
		return
	}
	out := dayJSON{Date: model.FormatDate(day), Items: make([]itemJSON, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, itemJSON{
			ID:            item.ID,
			Kind:          string(item.Kind),
			SourceID:      item.SourceID,
			Title:         item.Title,
			Description:   item.Description,
			ScheduledTime: item.ScheduledTime,
			DisplayTime:   model.DisplayTime(item.ScheduledTime),
			Completed:     item.IsCompleted,
			Reminder:      item.IsReminder,
		})
	}
	success(c, out)
}

type goalJSON struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Days           []string `json:"days"`
	Duration       int      `json:"duration"`
	ScheduledTime  string   `json:"scheduled_time,omitempty"`
	Active         bool     `json:"active"`
	State          string   `json:"state"`
	Streak         int      `json:"streak"`
	Consistency    int      `json:"consistency"`
	Completions    int      `json:"completions"`
	Required       int      `json:"required"`
	CompletedToday bool     `json:"completed_today"`
}

type goalsJSON struct {
	Overall int        `json:"overall_consistency"`
	Goals   []goalJSON `json:"goals"`
}

func (h *handler) goals(c *gin.Context) {
	now := h.opts.Clock().In(h.opts.Location)
	state := model.GoalState(strings.ToLower(strings.TrimSpace(c.Query("state"))))
	if state != "" && !state.IsValid() {
		fail(c, http.StatusBadRequest, "state must be active, completed or inactive")
		return
	}

	views, err := h.opts.Reader.Goals(c.Request.Context(), state, now)
	if err != nil {
		h.internal(c, err)
		return
	}
	overall, err := h.opts.Reader.OverallConsistency(c.Request.Context(), now)
	if err != nil {
		h.internal(c, err)
		return
	}

	out := goalsJSON{Overall: overall, Goals: make([]goalJSON, 0, len(views))}
	for _, gv := range views {
		days := make([]string, 0, len(gv.Goal.SelectedDays))
		for _, d := range gv.Goal.SelectedDays {
			days = append(days, strings.ToLower(d.String()[:3]))
		}
		out.Goals = append(out.Goals, goalJSON{
			ID:             gv.Goal.ID,
			Title:          gv.Goal.Title,
			Description:    gv.Goal.Description,
			Days:           days,
			Duration:       gv.Goal.Duration,
			ScheduledTime:  gv.Goal.ScheduledTime,
			Active:         gv.Goal.IsActive,
			State:          string(gv.Progress.State),
			Streak:         gv.Progress.Streak,
			Consistency:    gv.Progress.Consistency,
			Completions:    gv.Progress.Completions,
			Required:       gv.Progress.Required,
			CompletedToday: gv.Progress.CompletedToday,
		})
	}
	success(c, out)
}
