package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzahanych/forecast-gateway/internal/config"
	"github.com/vzahanych/forecast-gateway/internal/gateway"
	"github.com/vzahanych/forecast-gateway/internal/server"
	"github.com/vzahanych/forecast-gateway/internal/service"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the forecast gateway HTTP server",
		Long:  `Start the HTTP server exposing GET /api/forecast?city=<name>&date=<YYYY-MM-DD>, plus health and metrics endpoints.`,
		RunE:  runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	log.Info("Starting forecast gateway",
		zap.String("config_path", configPath),
		zap.String("environment", cfg.Environment),
		zap.Bool("telemetry_enabled", tele.IsEnabled()),
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("max_forecast_days", cfg.Forecast.MaxDays))

	provider := service.NewOpenWeatherMapServiceWithConfig(cfg.Forecast, log, tele)
	gw := gateway.New(provider, cfg.Forecast, log, tele)
	srv := server.NewServer(cfg, gw, log, tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-cmd.Context().Done():
		log.Info("Shutting down server")

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
