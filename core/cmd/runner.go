// Package cmd runs the assembled bot until the process is signalled.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/aiftbot/core/bootstrap"
	coreconfig "github.com/m3rciful/aiftbot/core/config"
	"github.com/m3rciful/aiftbot/core/logger"
	coretelegram "github.com/m3rciful/aiftbot/core/telegram"
)

const (
	// ConfigEnvVar names the environment variable holding the config path.
	ConfigEnvVar = "CONFIG_PATH"
	// DefaultConfigPath is used when neither a flag nor the env var is set.
	DefaultConfigPath = "config.yaml"
)

// Options describe how to load configuration, bootstrap the app, and run the bot.
// Nil funcs use the production defaults.
type Options struct {
	ConfigPath string

	LoadConfig     func(path string) (*coreconfig.Config, error)
	Bootstrap      func(ctx context.Context, opts bootstrap.Options) (*bootstrap.Result, error)
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the explicit path, then $CONFIG_PATH, then the default.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Run loads configuration, bootstraps the app, and serves until ctx is done
// or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options) error {
	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}
	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.Run
	}

	cfgPath := ResolveConfigPath(opts.ConfigPath)
	log.Printf("loading config: %s", cfgPath)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := boot(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	app, err := bootstrap.NewApp(cfg, infra.DB)
	if err != nil {
		if infra.DB != nil {
			_ = infra.DB.Close()
		}
		return fmt.Errorf("cmd: app assembly failed: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(context.Background(), "app", "app.close_failed", slog.String("err", err.Error()))
		}
	}()

	runOpts := app.TelegramRunOptions()
	runOpts.OnStart = func(ctx context.Context, _ coretelegram.Runtime) error {
		logger.Info(ctx, "app", "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}
	runOpts.OnStop = func(ctx context.Context, _ coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		return nil
	}

	runTelegram := opts.RunTelegram
	if runTelegram == nil {
		runTelegram = coretelegram.RunTelegram
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return runTelegram(gctx, runOpts)
	})
	if srv := app.OpsServer(); srv != nil {
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}
	g.Go(func() error {
		janitor(gctx, app, time.Duration(cfg.Dispatch.SweepSeconds)*time.Second)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// janitor evicts expired sessions and accumulated artifacts until ctx is done.
func janitor(ctx context.Context, app *bootstrap.App, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sessions, slots := app.Sweep()
			if sessions > 0 || slots > 0 {
				logger.Debug(ctx, "app", "state.swept",
					slog.Int("sessions", sessions),
					slog.Int("slots", slots),
				)
			}
		}
	}
}
