package testhelpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	httphandler "github.com/kjstillabower/forecast-averages-service/internal/http"
	"github.com/kjstillabower/forecast-averages-service/internal/service"
)

// ServerOptions configures NewServer. Zero values select test defaults.
type ServerOptions struct {
	Now          func() time.Time
	MaxEntries   int
	MaxBodyBytes int64
}

// NewServer starts the full router on a loopback listener. The server is closed on test cleanup.
func NewServer(t *testing.T, opts ServerOptions) *httptest.Server {
	t.Helper()
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 1000
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	logger := zaptest.NewLogger(t)
	svc := service.NewForecastService(opts.MaxEntries, opts.Now)
	h := httphandler.NewHandler(svc, nil, logger)
	router := httphandler.NewRouter(h, httphandler.RouterOptions{
		Logger:       logger,
		MaxBodyBytes: opts.MaxBodyBytes,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}
