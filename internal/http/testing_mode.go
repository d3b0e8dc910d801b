package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kjstillabower/forecast-averages-service/internal/lifecycle"
	"github.com/kjstillabower/forecast-averages-service/internal/traffic"
)

// GetTestStatus handles GET /test. Returns the traffic windows health is computed from.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := h.degradedWindow()
	errs, total := traffic.ErrorRate(window)

	cfg := make(map[string]interface{})
	if h.healthConfig != nil {
		threshold := 0
		if h.healthConfig.RateLimitRPS > 0 {
			threshold = int(overloadThreshold(h.healthConfig))
		}
		cfg["rate_limit_rps"] = h.healthConfig.RateLimitRPS
		cfg["rate_limit_burst"] = h.healthConfig.RateLimitBurst
		cfg["overload_threshold"] = threshold
		cfg["overload_window_seconds"] = h.healthConfig.OverloadWindow.Seconds()
		cfg["degraded_error_pct"] = h.healthConfig.DegradedErrorPct
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_requests_in_window":  traffic.RequestCount(window),
		"denied_requests_in_window": traffic.DenialCount(window),
		"errors_in_window":          errs,
		"accepted_in_window":        total,
		"window_length":             window.String(),
		"state":                     h.computeHealthStatus().status,
		"config":                    cfg,
	})
}

// PostTestAction handles POST /test/{action}: load, error, reset, shutdown.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "load":
		n := countFromBody(r, 10)
		traffic.RecordN(traffic.Success, n)
		h.writeTestResult(w, action, "Recorded "+strconv.Itoa(n)+" requests")
	case "error":
		n := countFromBody(r, 1)
		traffic.RecordN(traffic.Error, n)
		h.writeTestResult(w, action, "Recorded "+strconv.Itoa(n)+" errors")
	case "reset":
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
		h.writeTestResult(w, action, "All simulated state cleared")
	case "shutdown":
		lifecycle.SetShuttingDown(true)
		h.writeTestResult(w, action, "Shutting-down flag set")
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

func (h *Handler) writeTestResult(w http.ResponseWriter, action, msg string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  action,
		"message": msg,
		"state":   h.computeHealthStatus().status,
	})
}

func (h *Handler) degradedWindow() time.Duration {
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 {
		return h.healthConfig.DegradedWindow
	}
	return 60 * time.Second
}

// maxSimulatedCount caps a single load or error simulation.
const maxSimulatedCount = 10000

// countFromBody reads {"count": n}; missing, malformed or non-positive counts yield def.
// Counts above maxSimulatedCount are clamped.
func countFromBody(r *http.Request, def int) int {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		return def
	}
	return min(body.Count, maxSimulatedCount)
}
