package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/vzahanych/forecast-gateway/internal/config"
	"github.com/vzahanych/forecast-gateway/internal/forecast"
	"github.com/vzahanych/forecast-gateway/internal/metrics"
	"github.com/vzahanych/forecast-gateway/pkg/telemetry"
)

const (
	maxResponseBytes = 4 << 20
	maxLoggedBody    = 512
	redacted         = "REDACTED"
)

type OpenWeatherMapService struct {
	baseURL string
	apiKey  string
	units   string
	client  *http.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

var _ ForecastService = (*OpenWeatherMapService)(nil)

func NewOpenWeatherMapServiceWithConfig(cfg config.ForecastConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenWeatherMapService {
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenWeatherMapService{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		units:   units,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tele:   tele,
	}
}

func (s *OpenWeatherMapService) Name() string {
	return "openweathermap"
}

// FetchForecast makes exactly one call to the provider's forecast endpoint.
func (s *OpenWeatherMapService) FetchForecast(ctx context.Context, city string) (*forecast.ProviderForecast, error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "openweathermap.FetchForecast")
	defer span.End()

	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("service", s.Name()),
	)

	if s.apiKey == "" {
		s.logger.Warn("OpenWeatherMap called without API key", zap.String("city", city))
	}

	result, outcome, err := s.fetch(ctx, city)
	metrics.UpstreamRequestsTotal.WithLabelValues(s.Name(), outcome).Inc()

	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("success", err == nil),
	)
	if err != nil {
		s.tele.RecordError(ctx, err, map[string]interface{}{"city": city})
		return nil, err
	}

	span.SetAttributes(attribute.Int("entries", len(result.List)))
	return result, nil
}

func (s *OpenWeatherMapService) fetch(ctx context.Context, city string) (*forecast.ProviderForecast, string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, metrics.OutcomeTransport, forecast.UpstreamUnavailable(fmt.Errorf("invalid provider URL: %w", err))
	}

	q := u.Query()
	q.Set("q", city)
	q.Set("appid", s.apiKey)
	q.Set("units", s.units)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, metrics.OutcomeTransport, forecast.UpstreamUnavailable(s.redactErr(err))
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	s.logger.Debug("Fetching forecast from OpenWeatherMap",
		zap.String("city", city),
		zap.String("url", s.redactURL(u.String())))

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.UpstreamLatency.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		err = s.redactErr(err)
		s.logger.Error("OpenWeatherMap request failed", zap.String("city", city), zap.Error(err))
		return nil, metrics.OutcomeTransport, forecast.UpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		err = s.redactErr(err)
		s.logger.Error("Failed to read OpenWeatherMap response", zap.String("city", city), zap.Error(err))
		return nil, metrics.OutcomeTransport, forecast.UpstreamUnavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("OpenWeatherMap returned non-success status",
			zap.String("city", city),
			zap.Int("status", resp.StatusCode),
			zap.String("body", s.snippet(body)))
		return nil, metrics.OutcomeHTTPError, forecast.UpstreamHTTP(resp.StatusCode,
			fmt.Errorf("API request failed with status: %d", resp.StatusCode))
	}

	var result forecast.ProviderForecast
	if err := json.Unmarshal(body, &result); err != nil {
		s.logger.Error("Failed to decode OpenWeatherMap response",
			zap.String("city", city),
			zap.Error(err),
			zap.String("body", s.snippet(body)))
		return nil, metrics.OutcomeDataError, forecast.UpstreamData(http.StatusBadGateway,
			"Invalid response from the external weather API", err)
	}

	if result.Cod != forecast.SuccessCode {
		msg := result.MessageText()
		s.logger.Warn("OpenWeatherMap reported an error",
			zap.String("city", city),
			zap.String("cod", string(result.Cod)),
			zap.String("message", msg))
		return nil, metrics.OutcomeDataError, forecast.UpstreamData(http.StatusNotFound, msg,
			fmt.Errorf("provider code %q", result.Cod))
	}

	return &result, metrics.OutcomeSuccess, nil
}

// redactErr strips the credential from the URL carried by *url.Error.
func (s *OpenWeatherMapService) redactErr(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = s.redactURL(uerr.URL)
	}
	if s.apiKey != "" && strings.Contains(err.Error(), s.apiKey) {
		return errors.New(strings.ReplaceAll(err.Error(), s.apiKey, redacted))
	}
	return err
}

func (s *OpenWeatherMapService) redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", redacted)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (s *OpenWeatherMapService) snippet(body []byte) string {
	text := string(body)
	if len(text) > maxLoggedBody {
		text = text[:maxLoggedBody]
	}
	if s.apiKey != "" {
		text = strings.ReplaceAll(text, s.apiKey, redacted)
	}
	return text
}
