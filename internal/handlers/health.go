package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidehaven/authportal/internal/cache"
	"github.com/tidehaven/authportal/internal/config"
)

type HealthHandler struct {
	cfg       config.CacheConfig
	cache     cache.Cache
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg config.CacheConfig, cache cache.Cache, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		cache:     cache,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Cache  CacheHealth `json:"cache"`
}

type CacheHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).String(),
	}

	response.Cache.Type = h.cfg.Type
	if err := h.cache.Set(ctx, "health:check", []byte("ok"), 1*time.Minute); err != nil {
		response.Cache.Status = "error: " + err.Error()
		response.Status = "degraded"
	} else {
		response.Cache.Status = "connected"
		h.cache.Delete(ctx, "health:check")
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode health response", "error", err)
	}
}
