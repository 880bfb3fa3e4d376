package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/bootstrap"
	coreconfig "github.com/m3rciful/aiftbot/core/config"
	coretelegram "github.com/m3rciful/aiftbot/core/telegram"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")
	assert.Equal(t, DefaultConfigPath, ResolveConfigPath(""))

	t.Setenv(ConfigEnvVar, "/etc/aiftbot.yaml")
	assert.Equal(t, "/etc/aiftbot.yaml", ResolveConfigPath(""))
	assert.Equal(t, "local.yaml", ResolveConfigPath("local.yaml"))
}

func testOptions(t *testing.T, run func(context.Context, coretelegram.RunOptions) error) (Options, *string) {
	t.Helper()
	var loaded string
	dir := t.TempDir()
	return Options{
		ConfigPath: "test.yaml",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loaded = path
			cfg := &coreconfig.Config{
				Telegram: coreconfig.TelegramConfig{Token: "123:abc"},
				Storage:  coreconfig.StorageConfig{Dir: dir},
			}
			return cfg, coreconfig.Normalize(cfg)
		},
		Bootstrap: func(context.Context, bootstrap.Options) (*bootstrap.Result, error) {
			return &bootstrap.Result{}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram:    run,
	}, &loaded
}

func TestRunStopsWhenTelegramReturns(t *testing.T) {
	var got coretelegram.RunOptions
	opts, loaded := testOptions(t, func(_ context.Context, ro coretelegram.RunOptions) error {
		got = ro
		return nil
	})

	require.NoError(t, Run(context.Background(), opts))
	assert.Equal(t, "test.yaml", *loaded)
	assert.NotEmpty(t, got.Routes)
	assert.NotNil(t, got.OnStart)
	assert.NotNil(t, got.OnStop)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	opts, _ := testOptions(t, func(ctx context.Context, _ coretelegram.RunOptions) error {
		<-ctx.Done()
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, Run(ctx, opts))
}

func TestRunPropagatesTelegramError(t *testing.T) {
	opts, _ := testOptions(t, func(context.Context, coretelegram.RunOptions) error {
		return errors.New("unauthorized")
	})
	require.ErrorContains(t, Run(context.Background(), opts), "unauthorized")
}

func TestRunConfigError(t *testing.T) {
	opts, _ := testOptions(t, nil)
	opts.LoadConfig = func(string) (*coreconfig.Config, error) {
		return nil, errors.New("missing")
	}
	require.ErrorContains(t, Run(context.Background(), opts), "failed to load config")
}

func TestRunBootstrapError(t *testing.T) {
	opts, _ := testOptions(t, nil)
	opts.Bootstrap = func(context.Context, bootstrap.Options) (*bootstrap.Result, error) {
		return nil, errors.New("db down")
	}
	require.ErrorContains(t, Run(context.Background(), opts), "bootstrap failed")
}
