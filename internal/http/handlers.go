package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-averages-service/internal/lifecycle"
	"github.com/kjstillabower/forecast-averages-service/internal/models"
	"github.com/kjstillabower/forecast-averages-service/internal/observability"
	"github.com/kjstillabower/forecast-averages-service/internal/traffic"
	"github.com/kjstillabower/forecast-averages-service/internal/validation"
)

// AveragesService computes the averages response for a decoded request.
type AveragesService interface {
	Averages(ctx context.Context, req *models.AveragesRequest) (models.AveragesResponse, error)
}

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	RateLimitRPS           int // 0 when rate limiter disabled
	RateLimitBurst         int
	DegradedWindow         time.Duration
	DegradedErrorPct       int
	IdleWindow             time.Duration
	IdleThresholdReqPerMin int
	MinimumLifespan        time.Duration
	StartTime              time.Time
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service          AveragesService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. healthConfig may be nil, in which case
// health reports only lifecycle state.
func NewHandler(service AveragesService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:      service,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// PostAverages handles POST /weather/averages.
func (h *Handler) PostAverages(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeRequest(r.Body)
	if err != nil {
		observability.RecordValidationFailure("decode")
		writeValidationError(w, r, validation.FromDecodeError(err))
		return
	}

	resp, err := h.service.Averages(r.Context(), req)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, r, verr)
			return
		}
		observability.LoggerFromContext(r.Context()).Error("averages", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Unable to compute averages")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "forecast-averages-service",
		"version":   "dev",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > starting > overloaded > idle > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !lifecycle.IsReady() {
		return healthResult{"starting", http.StatusServiceUnavailable, "ready_delay"}
	}
	cfg := h.healthConfig
	if cfg == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 {
		if float64(traffic.RequestCount(cfg.OverloadWindow)) > overloadThreshold(cfg) {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	if cfg.IdleWindow > 0 && cfg.MinimumLifespan > 0 && time.Since(cfg.StartTime) >= cfg.MinimumLifespan {
		if traffic.AcceptedCount(cfg.IdleWindow) < cfg.IdleThresholdReqPerMin {
			return healthResult{"idle", http.StatusOK, "low_traffic"}
		}
	}
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(cfg.DegradedWindow)
		if total > 0 && float64(errs)*100/float64(total) >= float64(cfg.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// overloadThreshold is the request count in OverloadWindow above which the service reports overloaded.
func overloadThreshold(cfg *HealthConfig) float64 {
	return float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error body: code, message and the request correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

// writeValidationError writes 422 VALIDATION_FAILED listing every offending field.
func writeValidationError(w http.ResponseWriter, r *http.Request, verr *validation.Error) {
	observability.LoggerFromContext(r.Context()).Debug("validation failed", zap.Strings("fields", verr.Fields()))
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error": map[string]interface{}{
			"code":      "VALIDATION_FAILED",
			"message":   "Request body does not match the forecast schema",
			"requestId": observability.CorrelationID(r.Context()),
			"fields":    verr.Violations,
		},
	})
}
