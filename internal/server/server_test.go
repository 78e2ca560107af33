package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vzahanych/forecast-gateway/internal/config"
	"github.com/vzahanych/forecast-gateway/internal/forecast"
	"github.com/vzahanych/forecast-gateway/internal/gateway"
	"github.com/vzahanych/forecast-gateway/internal/server"
	"github.com/vzahanych/forecast-gateway/internal/service"
	"github.com/vzahanych/forecast-gateway/pkg/telemetry"
)

const testAPIKey = "s3cr3t-api-key"

const londonForecast = `{
  "cod": "200",
  "message": 0,
  "cnt": 4,
  "list": [
    {"main": {"temp": 11.2, "humidity": 80}, "weather": [{"description": "clear sky", "icon": "01n"}], "dt_txt": "2025-10-06 21:00:00"},
    {"main": {"temp": 14.1, "humidity": 71}, "weather": [{"description": "light rain", "icon": "10d"}], "dt_txt": "2025-10-07 09:00:00"},
    {"main": {"temp": 16.4, "humidity": 64}, "weather": [{"description": "broken clouds", "icon": "04d"}], "dt_txt": "2025-10-07 12:00:00"},
    {"main": {"temp": 9.8, "humidity": 93}, "weather": [{"description": "mist", "icon": "50n"}], "dt_txt": "2025-10-08 03:00:00"}
  ],
  "city": {"name": "London", "country": "GB"}
}`

// fixedClock puts "today" at 2025-10-07, so the default window ends 2025-10-11.
func fixedClock() time.Time {
	return time.Date(2025, 10, 7, 8, 0, 0, 0, time.UTC)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type harness struct {
	handler       http.Handler
	upstreamCalls *atomic.Int32
}

func newHarness(t *testing.T, upstream http.HandlerFunc, apiKey string) *harness {
	t.Helper()

	calls := &atomic.Int32{}
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(provider.Close)

	cfg := config.NewDefaultConfig()
	cfg.Forecast.BaseURL = provider.URL
	cfg.Forecast.APIKey = apiKey

	logger := zaptest.NewLogger(t)
	tele := &telemetry.Telemetry{}

	svc := service.NewOpenWeatherMapServiceWithConfig(cfg.Forecast, logger, tele)
	gw := gateway.New(svc, cfg.Forecast, logger, tele, gateway.WithClock(fixedClock))

	return &harness{
		handler:       server.NewServer(cfg, gw, logger, tele).Handler(),
		upstreamCalls: calls,
	}
}

func (h *harness) get(t *testing.T, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
	return body
}

func TestGetForecast_Success(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	w := h.get(t, "/api/forecast?city=london&date=2025-10-07", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp forecast.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "London", resp.City)
	assert.Equal(t, "GB", resp.Country)
	assert.Equal(t, "2025-10-07", resp.Date)
	require.Len(t, resp.HourlyData, 2)
	assert.Equal(t, "09:00", resp.HourlyData[0].Time)
	assert.Equal(t, "12:00", resp.HourlyData[1].Time)
	assert.Equal(t, "light rain", resp.HourlyData[0].Description)
	assert.Equal(t, "10d", resp.HourlyData[0].Icon)
	assert.Equal(t, 71, resp.HourlyData[0].Humidity)
	assert.Equal(t, 16.4, resp.HourlyData[1].Temp)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, int32(1), h.upstreamCalls.Load())
}

func TestGetForecast_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{name: "missing city", target: "/api/forecast?date=2025-10-07", message: "Missing required parameters: 'city' and 'date'"},
		{name: "missing date", target: "/api/forecast?city=London", message: "Missing required parameters: 'city' and 'date'"},
		{name: "empty city", target: "/api/forecast?city=&date=2025-10-07", message: "Missing required parameters: 'city' and 'date'"},
		{name: "slashes", target: "/api/forecast?city=London&date=2025/10/07", message: "Invalid date format. Use YYYY-MM-DD."},
		{name: "garbage", target: "/api/forecast?city=London&date=bad", message: "Invalid date format. Use YYYY-MM-DD."},
		{name: "out of range", target: "/api/forecast?city=London&date=2025-10-12", message: "The requested date (2025-10-12) is 5 days out. Forecast is limited to 5 days, up to 2025-10-11."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, serveJSON(londonForecast), testAPIKey)

			w := h.get(t, tt.target, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeError(t, w)
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, string(forecast.KindBadRequest), body["code"])
			assert.Zero(t, h.upstreamCalls.Load())
		})
	}
}

func TestGetForecast_CityNotFound(t *testing.T) {
	h := newHarness(t, serveJSON(`{"cod":"404","message":"city not found"}`), testAPIKey)

	w := h.get(t, "/api/forecast?city=Atlantis&date=2025-10-07", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "city not found", body["error"])
	assert.Equal(t, string(forecast.KindUpstreamData), body["code"])
}

func TestGetForecast_NoDataForDate(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	w := h.get(t, "/api/forecast?city=London&date=2025-10-10", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, string(forecast.KindNotFound), body["code"])
	assert.Equal(t, int32(1), h.upstreamCalls.Load())
}

func TestGetForecast_UpstreamHTTPError(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}, testAPIKey)

	w := h.get(t, "/api/forecast?city=London&date=2025-10-07", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeError(t, w)
	assert.Equal(t, "Weather API HTTP Error: 401 - Check API key or city name.", body["error"])
	assert.NotContains(t, w.Body.String(), testAPIKey)
}

func TestGetForecast_UpstreamUnavailable(t *testing.T) {
	cfg := config.NewDefaultConfig()
	dead := httptest.NewServer(http.NotFoundHandler())
	cfg.Forecast.BaseURL = dead.URL
	dead.Close()
	cfg.Forecast.APIKey = testAPIKey

	logger := zaptest.NewLogger(t)
	tele := &telemetry.Telemetry{}
	svc := service.NewOpenWeatherMapServiceWithConfig(cfg.Forecast, logger, tele)
	gw := gateway.New(svc, cfg.Forecast, logger, tele, gateway.WithClock(fixedClock))
	handler := server.NewServer(cfg, gw, logger, tele).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?city=London&date=2025-10-07", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(forecast.KindUpstreamUnavailable), body["code"])
	assert.True(t, strings.HasPrefix(body["error"], "A network error occurred"))
	assert.NotContains(t, w.Body.String(), testAPIKey)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	w := h.get(t, "/api/forecast?city=London&date=2025-10-07", map[string]string{"Origin": "http://localhost:8000"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/forecast", nil)
	preflight.Header.Set("Origin", "http://localhost:8000")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	pw := httptest.NewRecorder()
	h.handler.ServeHTTP(pw, preflight)

	assert.Equal(t, http.StatusNoContent, pw.Code)
	assert.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	w := h.get(t, "/health", map[string]string{"X-Request-ID": "req-123"})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		w := h.get(t, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status"`, path)
	}
}

func TestReadinessWithoutCredential(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), "")

	w := h.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unavailable"`)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	h.get(t, "/api/forecast?city=London&date=2025-10-07", nil)

	w := h.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "forecast_gateway_http_requests_total")
	assert.Contains(t, body, "forecast_gateway_upstream_requests_total")
	assert.Contains(t, body, "forecast_gateway_forecast_results_total")
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, serveJSON(londonForecast), testAPIKey)

	w := h.get(t, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	decodeError(t, w)
}
