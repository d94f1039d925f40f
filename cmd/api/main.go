package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campus-radio/songdesk/config"
	"github.com/campus-radio/songdesk/internal/bootstrap"
	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/scheduler"
	"go.uber.org/zap"
)

const serviceName = "songdesk"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs a fatal run error and flushes the logger before the process
// exits.
func exitCode(logger *zap.Logger, err error) int {
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := app.Auth.EnsureDefaults(ctx, bootstrap.DefaultAccounts(cfg))
	if err != nil {
		return err
	}
	if len(created) > 0 {
		logger.Info("created default accounts", zap.Strings("usernames", created))
	}
	if _, err := app.Requests.EnsureCurrentDay(ctx); err != nil {
		logger.Warn("could not create today's list", zap.Error(err))
	}

	sched := scheduler.NewScheduler(logger, time.Local)
	if err := scheduler.RegisterDailyJobs(sched, app.Requests, app.Files); err != nil {
		return err
	}
	sched.Start()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  serviceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		CORSOrigins:  cfg.Server.CORSOrigins,
		SubmitPerMin: cfg.Requests.SubmitPerMin,
		Logger:       logger,
		App:          app,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", zap.Error(err))
	}
	return srv.Shutdown(shutdownCtx)
}
