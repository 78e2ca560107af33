// Package gateway implements the single forecast operation: validate the
// request, check it against the provider horizon, call the provider once and
// reduce its 3-hour series to the requested date.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/forecast-gateway/internal/config"
	"github.com/vzahanych/forecast-gateway/internal/forecast"
	"github.com/vzahanych/forecast-gateway/internal/metrics"
	"github.com/vzahanych/forecast-gateway/internal/service"
	"github.com/vzahanych/forecast-gateway/pkg/telemetry"
)

const (
	msgMissingParams = "Missing required parameters: 'city' and 'date'"
	msgInvalidDate   = "Invalid date format. Use YYYY-MM-DD."
)

// Clock returns the current time. Its location defines "today".
type Clock func() time.Time

// Gateway is immutable after construction and safe for concurrent use.
type Gateway struct {
	provider service.ForecastService
	maxDays  int
	clock    Clock
	validate *validator.Validate
	logger   *zap.Logger
	tele     *telemetry.Telemetry
}

type Option func(*Gateway)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(g *Gateway) {
		g.clock = clock
	}
}

func New(provider service.ForecastService, cfg config.ForecastConfig, logger *zap.Logger, tele *telemetry.Telemetry, opts ...Option) *Gateway {
	maxDays := cfg.MaxDays
	if maxDays < 1 {
		maxDays = 5
	}

	g := &Gateway{
		provider: provider,
		maxDays:  maxDays,
		clock:    time.Now,
		validate: validator.New(),
		logger:   logger,
		tele:     tele,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxDays is the configured forecast horizon, today included.
func (g *Gateway) MaxDays() int {
	return g.maxDays
}

// Forecast returns the provider's entries for req.Date in req.City.
// Every failure is a *forecast.Error.
func (g *Gateway) Forecast(ctx context.Context, req forecast.Request) (*forecast.Response, error) {
	ctx, span := g.tele.GetTracer().Start(ctx, "gateway.Forecast")
	defer span.End()

	req.City = strings.TrimSpace(req.City)
	req.Date = strings.TrimSpace(req.Date)

	span.SetAttributes(
		attribute.String("city", req.City),
		attribute.String("date", req.Date),
	)

	resp, err := g.forecast(ctx, req)
	metrics.ForecastResultsTotal.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		g.tele.RecordError(ctx, err, map[string]interface{}{"city": req.City, "date": req.Date})
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("entries", len(resp.HourlyData)),
	)
	return resp, nil
}

func (g *Gateway) forecast(ctx context.Context, req forecast.Request) (*forecast.Response, error) {
	reqLogger := g.logger.With(requestFields(ctx)...)

	if err := g.validate.Struct(req); err != nil {
		return nil, forecast.BadRequest(msgMissingParams)
	}

	if err := g.validate.Var(req.Date, "datetime="+forecast.DateLayout); err != nil {
		return nil, forecast.BadRequest(msgInvalidDate)
	}
	target, err := forecast.ParseDate(req.Date)
	if err != nil {
		return nil, forecast.BadRequest(msgInvalidDate)
	}

	window := forecast.NewWindow(g.clock(), g.maxDays)
	if err := window.Check(target, req.Date); err != nil {
		reqLogger.Info("Requested date outside forecast window",
			zap.String("date", req.Date),
			zap.String("last_allowed", window.Last.Format(forecast.DateLayout)),
			zap.Int("days_out", window.DaysOut(target)))
		return nil, err
	}

	reqLogger.Debug("Fetching provider forecast",
		zap.String("provider", g.provider.Name()),
		zap.String("city", req.City),
		zap.String("date", req.Date))

	upstream, err := g.provider.FetchForecast(ctx, req.City)
	if err != nil {
		return nil, err
	}

	hourly := forecast.FilterByDate(upstream.List, target, func(e forecast.ProviderEntry, perr error) {
		reqLogger.Warn("Skipping provider entry with unparseable timestamp",
			zap.String("dt_txt", e.DtTxt),
			zap.Error(perr))
	})

	if len(hourly) == 0 {
		// The provider's horizon is a rolling number of hours from now, so the
		// last calendar day in the window can still come back empty.
		reqLogger.Info("No provider entries for requested date",
			zap.String("city", req.City),
			zap.String("date", req.Date),
			zap.Int("provider_entries", len(upstream.List)))
		return nil, forecast.NotFound("No forecast data available for %s in %s.", req.Date, req.City)
	}

	reqLogger.Info("Forecast filtered",
		zap.String("city", upstream.City.Name),
		zap.String("date", req.Date),
		zap.Int("entries", len(hourly)))

	return &forecast.Response{
		City:       upstream.City.Name,
		Country:    upstream.City.Country,
		Date:       req.Date,
		HourlyData: hourly,
	}, nil
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that Forecast adds to its logs.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestFields(ctx context.Context) []zap.Field {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}

func outcomeOf(err error) string {
	var fe *forecast.Error
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case !errors.As(err, &fe):
		return metrics.OutcomeServerError
	}

	switch fe.Kind {
	case forecast.KindBadRequest:
		return metrics.OutcomeBadRequest
	case forecast.KindNotFound:
		return metrics.OutcomeNotFound
	case forecast.KindUpstreamUnavailable:
		return metrics.OutcomeTransport
	case forecast.KindUpstreamHTTP:
		return metrics.OutcomeHTTPError
	case forecast.KindUpstreamData:
		return metrics.OutcomeDataError
	default:
		return metrics.OutcomeServerError
	}
}
