package service

import (
	"context"

	"github.com/vzahanych/forecast-gateway/internal/forecast"
)

// ForecastService fetches the raw multi-day forecast for a city. Failures
// are returned as *forecast.Error.
type ForecastService interface {
	FetchForecast(ctx context.Context, city string) (*forecast.ProviderForecast, error)
	Name() string
}
