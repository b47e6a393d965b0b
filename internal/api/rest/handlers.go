package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/store"
	"github.com/maccabipedia/basketbot/internal/store/repository"
)

// CycleReporter exposes the most recent cycle.
type CycleReporter interface {
	LastReports() []pipeline.CycleReport
}

// Scheduler accepts manual cycle requests.
type Scheduler interface {
	Trigger() bool
	GetStatus() map[string]interface{}
}

// RecordStore reads the publish ledger.
type RecordStore interface {
	Recent(ctx context.Context, limit int) ([]*store.PublishedRecord, error)
	ByTitle(ctx context.Context, title string) (*store.PublishedRecord, error)
}

// CycleHistory reads persisted cycle reports.
type CycleHistory interface {
	Recent(ctx context.Context, limit int) ([]*store.CycleReportRow, error)
}

// HealthFunc probes one dependency.
type HealthFunc func(ctx context.Context) error

// Deps are the handler collaborators. Records, History and Health entries
// may be nil when the backing service is not configured.
type Deps struct {
	Cycles    CycleReporter
	Scheduler Scheduler
	Records   RecordStore
	History   CycleHistory
	Health    map[string]HealthFunc
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	deps Deps
}

// NewHandler creates a new handler
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK
	for name, probe := range h.deps.Health {
		if probe == nil {
			continue
		}
		if err := probe(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":  state,
		"service": "basketbot",
		"checks":  checks,
	})
}

// GetLastCycle returns the per-source reports of the latest cycle.
func (h *Handler) GetLastCycle(w http.ResponseWriter, r *http.Request) {
	reports := h.deps.Cycles.LastReports()
	if len(reports) == 0 {
		respondError(w, http.StatusNotFound, "No cycle has run yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// GetCycleHistory returns persisted cycle reports.
func (h *Handler) GetCycleHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		respondError(w, http.StatusServiceUnavailable, "Cycle history is not configured", nil)
		return
	}
	rows, err := h.deps.History.Recent(r.Context(), parseLimit(r, 20))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch cycle history", err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// TriggerCycle queues a cycle on the scheduler.
func (h *Handler) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler is not running", nil)
		return
	}
	if !h.deps.Scheduler.Trigger() {
		respondError(w, http.StatusConflict, "A cycle is already queued", nil)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Cycle queued",
	})
}

// GetSchedulerStatus returns scheduler state.
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler is not running", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.deps.Scheduler.GetStatus())
}

// GetRecentRecords lists ledger rows, newest first.
func (h *Handler) GetRecentRecords(w http.ResponseWriter, r *http.Request) {
	if h.deps.Records == nil {
		respondError(w, http.StatusServiceUnavailable, "Ledger is not configured", nil)
		return
	}
	records, err := h.deps.Records.Recent(r.Context(), parseLimit(r, 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch records", err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetRecord returns one ledger row, body included.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	if h.deps.Records == nil {
		respondError(w, http.StatusServiceUnavailable, "Ledger is not configured", nil)
		return
	}
	title := mux.Vars(r)["title"]
	rec, err := h.deps.Records.ByTitle(r.Context(), title)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Record not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch record", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func parseLimit(r *http.Request, def int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	sonic.ConfigStd.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
