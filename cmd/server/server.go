package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/axellelanca/linkforge/internal/api"
	"github.com/axellelanca/linkforge/internal/app"
	"github.com/axellelanca/linkforge/internal/monitor"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunServerCmd starts the HTTP API, the click workers and the scheduled jobs.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the URL shortener API server and background workers.",
	Long: `This command initializes the database, starts the asynchronous click
workers, schedules the URL monitor and the click reconciler, then serves the
HTTP API until SIGINT or SIGTERM.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := cmd.LoadedConfig()
		if err != nil {
			return err
		}

		a, err := app.New(c.Context(), cfg, app.Options{})
		if err != nil {
			return err
		}
		logger := a.Logger

		if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowAnonymous {
			logger.Warn("auth.jwt_secret is empty and anonymous access is off, the API will reject every request")
		}

		scheduler := monitor.NewScheduler(logger)
		if cfg.Monitor.Enabled {
			urlMonitor := monitor.NewURLMonitor(a.Links, a.Validator, logger)
			if err := scheduler.Add("url-monitor", cfg.Monitor.Schedule, urlMonitor.Run); err != nil {
				_ = a.Close(context.Background())
				return err
			}
		}
		if cfg.Reconcile.Enabled {
			reconciler := monitor.NewReconciler(a.Links, a.Clicks, logger)
			if err := scheduler.Add("click-reconciler", cfg.Reconcile.Schedule, reconciler.Run); err != nil {
				_ = a.Close(context.Background())
				return err
			}
		}
		scheduler.Start()

		if logger.Core().Enabled(zap.DebugLevel) {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		router := api.NewRouter(api.NewHandler(a.LinkService, a.Redirects, logger), api.RouterOptions{
			JWTSecret:      cfg.Auth.JWTSecret,
			AllowAnonymous: cfg.Auth.AllowAnonymous,
		}, logger)

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:              serverAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("addr", serverAddr), zap.String("base_url", cfg.Server.BaseURL))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		var runErr error
		select {
		case sig := <-quit:
			logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		case err := <-serveErr:
			runErr = fmt.Errorf("server failed: %w", err)
		}

		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Stop accepting visits first so no click is recorded after the workers drain.
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown failed", zap.Error(err))
		}
		scheduler.Stop(ctx)
		if err := a.Close(ctx); err != nil {
			logger.Error("shutdown incomplete", zap.Error(err))
		}

		logger.Info("server stopped")
		return runErr
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
