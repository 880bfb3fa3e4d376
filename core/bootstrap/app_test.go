package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/aiftbot/core/config"
)

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminID: 7},
		Storage:  coreconfig.StorageConfig{Dir: t.TempDir()},
	}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func newTestApp(t *testing.T, cfg *coreconfig.Config) *App {
	t.Helper()
	app, err := NewApp(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewAppNilConfig(t *testing.T) {
	_, err := NewApp(nil, nil)
	require.Error(t, err)
}

func TestNewAppWithoutDatabase(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.Nil(t, app.Journal)
	assert.NotNil(t, app.Selector)
	assert.Equal(t, "#img", app.Selector.ImageMarker())
}

func TestNewAppRegistersSlashCommands(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	cmds := app.Registry.Commands()
	for _, name := range []string{"/start", "/cancel", "/image", "/stats"} {
		assert.Contains(t, cmds, name)
	}
	assert.True(t, cmds["/stats"].AdminOnly)

	visible := app.Registry.ListCommands(true)
	for _, c := range visible {
		assert.NotEqual(t, "/stats", c.Text)
	}

	name, _, ok := app.Registry.LookupCommand("/help")
	require.True(t, ok)
	assert.Equal(t, "/start", name)
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.IntervalMS = 500
	app := newTestApp(t, cfg)

	opts := app.TelegramRunOptions()
	assert.Same(t, cfg, opts.Config)
	assert.Same(t, app.Sender, opts.Dispatcher)
	assert.NotEmpty(t, opts.Routes)

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Contains(t, names, "rate_limit")
}

func TestOpsServerDisabledByDefault(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)
	assert.Nil(t, app.OpsServer())

	cfg.Ops.Listen = "127.0.0.1:0"
	assert.NotNil(t, app.OpsServer())
}

func TestSweepOnEmptyState(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	sessions, slots := app.Sweep()
	assert.Zero(t, sessions)
	assert.Zero(t, slots)
}

func TestMissingServices(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispatch.Commands = []coreconfig.CommandEntry{
		{Literal: "#lexto", Service: "lexto"},
		{Literal: "#tner", Service: "tner"},
		{Literal: "#tner2", Service: "tner"},
	}
	cfg.Dispatch.ImageMenu = []coreconfig.ImageOption{{Key: "1", Service: "nsfw", Title: "NSFW"}}
	cfg.Dispatch.MultimodalServices = map[string]string{"audio": "audioqa"}
	cfg.Provider.Services = map[string]coreconfig.ProviderService{
		"lexto":   {URL: "https://x.test/lexto", Encoding: "form"},
		"audioqa": {URL: "https://x.test/audioqa", Encoding: "multipart"},
	}
	app := newTestApp(t, cfg)

	assert.Equal(t, []string{"nsfw", "textqa", "tner"}, app.MissingServices())
}

func TestExampleConfigCoversDefaultServices(t *testing.T) {
	t.Setenv("BOT_TOKEN", "1:x")
	cfg, err := coreconfig.Load("../../config.example.yaml")
	require.NoError(t, err)
	cfg.Storage.Dir = t.TempDir()

	app := newTestApp(t, cfg)
	assert.Empty(t, app.MissingServices())
}
