package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/busmarket/bus-scraper/internal/database"
	"github.com/busmarket/bus-scraper/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// BusStore is the read surface the API exposes.
type BusStore interface {
	List(ctx context.Context, limit, offset int) ([]*models.Bus, error)
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
	Stats(ctx context.Context) (*database.Stats, error)
}

// OutboxCounter reports outbox backlog for the health check.
type OutboxCounter interface {
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type Handlers struct {
	buses  BusStore
	outbox OutboxCounter
	logger *slog.Logger
}

func NewHandlers(buses BusStore, outbox OutboxCounter, logger *slog.Logger) *Handlers {
	return &Handlers{
		buses:  buses,
		outbox: outbox,
		logger: logger,
	}
}

// Health reports service status including the outbox backlog.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	pending, _ := h.outbox.CountByStatus(r.Context(), database.OutboxStatusPending)
	deadLetter, _ := h.outbox.CountByStatus(r.Context(), database.OutboxStatusDeadLetter)

	health := map[string]any{
		"status": "ok",
		"outbox": map[string]any{
			"pending":     pending,
			"dead_letter": deadLetter,
		},
	}

	status := http.StatusOK
	if pending > 1000 {
		health["status"] = "warning"
		health["message"] = "high number of pending outbox events"
	}
	if deadLetter > 100 {
		health["status"] = "error"
		health["message"] = "high number of dead letter events"
		status = http.StatusServiceUnavailable
	}

	h.respondJSON(w, status, health)
}

// ListBuses returns stored records, newest first, with limit/offset paging.
func (h *Handlers) ListBuses(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	buses, err := h.buses.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list buses", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list buses")
		return
	}

	if buses == nil {
		buses = []*models.Bus{}
	}
	h.respondJSON(w, http.StatusOK, buses)
}

// GetBus returns one record with its images and overview.
func (h *Handlers) GetBus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "busID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid bus ID")
		return
	}

	bus, err := h.buses.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "bus not found")
			return
		}
		h.logger.Error("failed to get bus", "error", err, "bus_id", id)
		h.respondError(w, http.StatusInternalServerError, "failed to get bus")
		return
	}

	h.respondJSON(w, http.StatusOK, bus)
}

// GetStats returns record counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.buses.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
