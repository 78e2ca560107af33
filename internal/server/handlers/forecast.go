package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/forecast-gateway/internal/forecast"
	"github.com/vzahanych/forecast-gateway/internal/gateway"
	"github.com/vzahanych/forecast-gateway/internal/server/utils"
)

type ForecastGateway interface {
	Forecast(ctx context.Context, req forecast.Request) (*forecast.Response, error)
}

type ForecastHandler struct {
	gateway ForecastGateway
	logger  *zap.Logger
}

func NewForecastHandler(gw ForecastGateway, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{
		gateway: gw,
		logger:  logger,
	}
}

// GetForecast serves GET /api/forecast?city=<text>&date=<YYYY-MM-DD>.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	requestID := utils.GetRequestIDFromGinContext(c)
	ctx = gateway.ContextWithRequestID(ctx, requestID)

	reqLogger := h.logger.With(zap.String("request_id", requestID))

	var req forecast.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request parameters",
			Code:  string(forecast.KindBadRequest),
		})
		return
	}

	reqLogger.Info("Processing forecast request",
		zap.String("city", req.City),
		zap.String("date", req.Date))

	resp, err := h.gateway.Forecast(ctx, req)
	if err != nil {
		h.writeError(c, reqLogger, err)
		return
	}

	reqLogger.Info("Forecast request completed successfully",
		zap.String("city", resp.City),
		zap.Int("entries", len(resp.HourlyData)))

	c.JSON(http.StatusOK, resp)
}

func (h *ForecastHandler) writeError(c *gin.Context, reqLogger *zap.Logger, err error) {
	var fe *forecast.Error
	if !errors.As(err, &fe) {
		reqLogger.Error("Unexpected forecast failure", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	status := forecast.StatusOf(fe)
	fields := []zap.Field{
		zap.String("kind", string(fe.Kind)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		reqLogger.Error("Forecast request failed", fields...)
	} else {
		reqLogger.Warn("Forecast request rejected", fields...)
	}

	_ = c.Error(err)
	c.JSON(status, ErrorResponse{
		Error: fe.Message,
		Code:  string(fe.Kind),
	})
}
