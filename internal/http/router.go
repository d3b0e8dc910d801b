package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/forecast-averages-service/internal/observability"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger       *zap.Logger
	RateLimiter  *rate.Limiter // nil disables rate limiting
	MaxBodyBytes int64         // 0 disables the body cap
	TestingMode  bool          // exposes /test endpoints
}

// NewRouter wires routes and middleware:
//
//	POST /weather/averages   rate limit, outcome tracking, body cap
//	GET  /health
//	GET  /metrics
//	GET  /test, POST /test/{action}   testing mode only
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(opts.Logger))
	router.Use(MetricsMiddleware)
	router.Use(RecoverMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(RateLimitMiddleware(opts.RateLimiter))
	weatherRouter.Use(OutcomeMiddleware)
	weatherRouter.Use(BodyLimitMiddleware(opts.MaxBodyBytes))
	weatherRouter.HandleFunc("/averages", h.PostAverages).Methods(http.MethodPost)

	if opts.TestingMode {
		router.HandleFunc("/test", h.GetTestStatus).Methods(http.MethodGet)
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods(http.MethodPost)
	}
	return router
}
