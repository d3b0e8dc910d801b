package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/forecast-averages-service/internal/averages"
	"github.com/kjstillabower/forecast-averages-service/internal/models"
	"github.com/kjstillabower/forecast-averages-service/internal/observability"
	"github.com/kjstillabower/forecast-averages-service/internal/validation"
)

// ForecastService computes day/night averages for forecast requests.
// It holds no per-request state; one instance serves all requests concurrently.
type ForecastService struct {
	maxEntries int
	now        func() time.Time
}

// NewForecastService returns a ForecastService. maxEntries bounds the list length (0 = unbounded).
// now supplies the local date for Today/Tomorrow labels; nil means time.Now.
func NewForecastService(maxEntries int, now func() time.Time) *ForecastService {
	if now == nil {
		now = time.Now
	}
	return &ForecastService{maxEntries: maxEntries, now: now}
}

// Averages validates req and returns one summary per date. Schema problems are
// returned as *validation.Error.
func (s *ForecastService) Averages(ctx context.Context, req *models.AveragesRequest) (models.AveragesResponse, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	if err := validation.Envelope(req, s.maxEntries); err != nil {
		s.recordRejected(logger, err)
		return models.AveragesResponse{}, err
	}
	summaries, err := averages.Summarize(req.List, s.now())
	if err != nil {
		s.recordRejected(logger, err)
		return models.AveragesResponse{}, err
	}

	observability.RecordAverages(len(req.List), len(summaries))
	logger.Debug("averages computed",
		zap.Int("entries", len(req.List)),
		zap.Int("days", len(summaries)),
		zap.Duration("duration", time.Since(start)))
	return models.AveragesResponse{Forecasts: summaries}, nil
}

func (s *ForecastService) recordRejected(logger *zap.Logger, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		observability.RecordValidationFailure("schema")
		logger.Debug("request rejected", zap.Strings("fields", verr.Fields()))
		return
	}
	logger.Warn("averages failed", zap.Error(err))
}
