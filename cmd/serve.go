package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/api"
	"github.com/cascadialive/showcrawler/internal/clock/system"
	"github.com/cascadialive/showcrawler/internal/schedule"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP trigger service",
		Long: `Starts the HTTP server exposing health, metrics, and per-site scrape
trigger endpoints, plus the optional background scheduler.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := application.Config
	logger := application.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runners := make([]api.Runner, 0, len(application.Orchestrators))
	triggers := make([]schedule.Trigger, 0, len(application.Orchestrators))
	for _, o := range application.Orchestrators {
		runners = append(runners, o)
		triggers = append(triggers, o)
	}

	apiServer := api.NewServer(runners, system.Clock{}, cfg.RequestTimeout(), logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Schedule.Enabled {
		runner := schedule.NewRunner(triggers, cfg.ScheduleInterval(), logger.Named("schedule"))
		go runner.Start(ctx)
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}
