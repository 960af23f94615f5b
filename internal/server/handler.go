// Package server exposes the dashboard core as a small JSON API for a presentation layer.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/gateway"
	"github.com/naka-gawa/pr-dashboard/internal/usecase"
)

// Service is the part of usecase.Dashboard the handlers use.
type Service interface {
	LookbackDays() int
	Sync(ctx context.Context, forceRefresh bool, onProgress gateway.ProgressFunc) (domain.GithubDataset, error)
	View(ctx context.Context, days int, onProgress gateway.ProgressFunc) (domain.DashboardView, error)
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}

type Handler struct {
	Svc Service
	Log *zap.Logger

	// refreshing serializes everything that may hit GitHub; the core assumes one refresh at a time.
	refreshing sync.Mutex
}

func NewHandler(svc Service, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

type ErrorResponse struct {
	Error Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SyncResponse struct {
	StartDate  time.Time `json:"startDate"`
	CacheStamp int64     `json:"cacheStamp"`
	Pulls      int       `json:"pulls"`
	Progress   []string  `json:"progress"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Sync handles POST /api/sync?refresh=true.
func (h *Handler) Sync(c *gin.Context) {
	refresh, err := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	if err != nil {
		h.badRequest(c, "refresh must be a boolean")
		return
	}
	if !h.refreshing.TryLock() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: Error{Code: "SYNC_IN_PROGRESS", Message: "a sync is already running"}})
		return
	}
	defer h.refreshing.Unlock()

	progress := []string{}
	dataset, err := h.Svc.Sync(c.Request.Context(), refresh, func(s string) { progress = append(progress, s) })
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{
		StartDate:  dataset.StartDate,
		CacheStamp: dataset.CacheStamp,
		Pulls:      len(dataset.Pulls),
		Progress:   progress,
	})
}

// View handles GET /api/view?days=N. N defaults to the lookback window.
func (h *Handler) View(c *gin.Context) {
	days := h.Svc.LookbackDays()
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "days must be an integer")
			return
		}
		days = n
	}

	h.refreshing.Lock()
	defer h.refreshing.Unlock()

	view, err := h.Svc.View(c.Request.Context(), days, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.Svc.Settings(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) PutSettings(c *gin.Context) {
	var settings domain.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		h.badRequest(c, "theme must be one of: light, dark")
		return
	}
	if err := h.Svc.SaveSettings(c.Request.Context(), settings); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidRange):
		h.badRequest(c, err.Error())
	case errors.Is(err, domain.ErrNetwork):
		h.Log.Warn("upstream unavailable", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: Error{Code: "UPSTREAM_UNAVAILABLE", Message: err.Error()}})
	case errors.Is(err, domain.ErrDecode):
		h.Log.Warn("upstream returned malformed data", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: Error{Code: "UPSTREAM_MALFORMED", Message: err.Error()}})
	default:
		h.Log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: Error{Code: "INTERNAL_ERROR", Message: "internal server error"}})
	}
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: Error{Code: "BAD_REQUEST", Message: msg}})
}
