package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/accumulator"
	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/command"
	coreconfig "github.com/m3rciful/aiftbot/core/config"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/journal"
	"github.com/m3rciful/aiftbot/core/logger"
	"github.com/m3rciful/aiftbot/core/ops"
	"github.com/m3rciful/aiftbot/core/provider"
	"github.com/m3rciful/aiftbot/core/session"
	"github.com/m3rciful/aiftbot/core/telegram"
	tghelpers "github.com/m3rciful/aiftbot/core/telegram/helpers"
	"github.com/m3rciful/aiftbot/core/telegram/router"
	"github.com/m3rciful/aiftbot/core/telegram/sender"
	"github.com/m3rciful/aiftbot/core/workflow"
)

// App is the assembled bot: state stores, workflows, the selector and the
// transport pieces that feed it.
type App struct {
	Config      *coreconfig.Config
	DB          *sqlx.DB
	Sessions    *session.Store
	Accumulator *accumulator.Accumulator
	Artifacts   *artifact.Store
	Commands    *command.Table
	Provider    *provider.Client
	Selector    *dispatch.Selector
	// Journal is nil when no database is configured.
	Journal  *journal.Store
	Registry *telegram.Registry
	Sender   *sender.Dispatcher
}

// NewApp wires every component from cfg. db may be nil.
func NewApp(cfg *coreconfig.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	ttl := time.Duration(cfg.Dispatch.SessionTTLMinutes) * time.Minute

	artifacts, err := artifact.NewStore(cfg.Storage.Dir, cfg.Storage.MaxFileBytes)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: artifact store: %w", err)
	}
	table, err := command.FromConfig(cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: command table: %w", err)
	}

	app := &App{
		Config:      cfg,
		DB:          db,
		Sessions:    session.NewStore(ttl),
		Accumulator: accumulator.New(ttl, artifacts),
		Artifacts:   artifacts,
		Commands:    table,
		Provider:    provider.New(cfg.Provider, nil),
		Registry:    telegram.NewRegistry(),
		Sender:      sender.NewDispatcher(sender.Options{MaxRetries: 2}),
	}

	var recorder dispatch.Recorder = journal.Nop{}
	if db != nil {
		app.Journal = journal.New(db)
		recorder = app.Journal
	}

	app.Selector, err = dispatch.New(dispatch.Options{
		Config:      cfg.Dispatch,
		Sessions:    app.Sessions,
		Accumulator: app.Accumulator,
		Commands:    table,
		Workflows: dispatch.Workflows{
			NLP:        workflow.NewNLP(app.Provider),
			Image:      workflow.NewImage(app.Provider),
			Multimodal: workflow.NewMultimodal(app.Provider, cfg.Dispatch.MultimodalServices),
			Chat:       workflow.NewChat(app.Provider, cfg.Dispatch.ChatService),
		},
		Extractor: workflow.NewDocuments(workflow.MaxDocumentRunes),
		Releaser:  artifacts,
		Recorder:  recorder,
	})
	if err != nil {
		app.Sender.Close()
		return nil, fmt.Errorf("bootstrap: selector: %w", err)
	}

	if err := app.registerCommands(); err != nil {
		app.Sender.Close()
		return nil, err
	}
	if missing := app.MissingServices(); len(missing) > 0 {
		logger.Warn(context.Background(), "app", "provider.unconfigured",
			slog.Int("count", len(missing)),
			slog.String("services", logger.SanitizeLimit(strings.Join(missing, ","), 400)),
		)
	}
	logger.Info(context.Background(), "app", "app.wired",
		slog.Duration("session_ttl", ttl),
		slog.Int("commands", len(table.Entries())),
		slog.Int("image_options", len(cfg.Dispatch.ImageMenu)),
		slog.Int("provider_services", len(cfg.Provider.Services)),
		slog.Bool("journal", app.Journal != nil),
	)
	return app, nil
}

// TelegramRunOptions builds the transport configuration for RunTelegram.
func (a *App) TelegramRunOptions() telegram.RunOptions {
	msgs := a.Selector.Messages()
	routes := router.CommandRoutes(a.Registry, router.CommandRouteOptions{
		AdminID: a.Config.Telegram.AdminID,
	})
	routes = append(routes, router.UpdateRoutes(router.UpdateOptions{
		Registry:     a.Registry,
		Dispatcher:   a.Selector,
		Artifacts:    a.Artifacts,
		Messages:     msgs,
		Sender:       a.Sender,
		MaxFileBytes: a.Config.Storage.MaxFileBytes,
	})...)

	return telegram.RunOptions{
		Config:     a.Config,
		Registry:   a.Registry,
		Dispatcher: a.Sender,
		Middlewares: telegram.DefaultMiddlewares(a.Config, func(c tele.Context) error {
			return tghelpers.SendText(c, msgs.RateLimited())
		}),
		Routes: routes,
	}
}

// MissingServices lists the services referenced by commands, the image menu
// or the chat flows that have no provider entry, sorted and deduplicated.
func (a *App) MissingServices() []string {
	want := make([]string, 0, len(a.Config.Dispatch.Commands)+len(a.Config.Dispatch.ImageMenu)+3)
	for _, c := range a.Config.Dispatch.Commands {
		want = append(want, c.Service)
	}
	for _, o := range a.Config.Dispatch.ImageMenu {
		want = append(want, o.Service)
	}
	want = append(want, a.Config.Dispatch.ChatService)
	for _, svc := range a.Config.Dispatch.MultimodalServices {
		want = append(want, svc)
	}

	var missing []string
	for _, svc := range want {
		if svc != "" && !a.Provider.Has(svc) {
			missing = append(missing, svc)
		}
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}

// OpsServer returns the ops server, or nil when ops.listen is empty.
func (a *App) OpsServer() *ops.Server {
	if a.Config.Ops.Listen == "" {
		return nil
	}
	opts := ops.Options{
		Listen:      a.Config.Ops.Listen,
		Sessions:    a.Sessions,
		Accumulator: a.Accumulator,
		Sender:      a.Sender,
	}
	if a.Journal != nil {
		opts.Journal = a.Journal
	}
	return ops.New(opts)
}

// Sweep drops expired sessions and accumulator slots.
func (a *App) Sweep() (sessions, slots int) {
	return a.Sessions.Sweep(), a.Accumulator.Sweep()
}

// Close releases the sender and the database.
func (a *App) Close() error {
	a.Sender.Close()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func (a *App) registerCommands() error {
	msgs := a.Selector.Messages()
	literals := make([]string, 0, len(a.Commands.Entries()))
	for _, e := range a.Commands.Entries() {
		lit := e.Literal
		if e.Parameterized() {
			lit += e.Params[0] + command.ParamSeparator
		}
		literals = append(literals, lit)
	}

	commands := map[string]telegram.Command{
		"/start": {
			Description: "เริ่มต้นใช้งาน",
			Aliases:     []string{"help"},
			Handler: func(c tele.Context) error {
				return tghelpers.SendText(c, msgs.Welcome(literals))
			},
		},
		"/cancel": {
			Description: "ยกเลิกบริการที่ค้างอยู่",
			Handler:     a.dispatchText(a.Selector.CancelKeyword),
		},
		"/image": {
			Description: "เลือกบริการประมวลผลภาพ",
			Handler:     a.dispatchText(a.Selector.ImageMarker),
		},
		"/stats": {
			Description: "สถานะระบบ",
			AdminOnly:   true,
			Handler: func(c tele.Context) error {
				return tghelpers.SendText(c, fmt.Sprintf("sessions=%d accumulated=%d sent=%d send_errors=%d",
					a.Sessions.Len(), a.Accumulator.Len(), a.Sender.SentCount(), a.Sender.ErrorCount()))
			},
		},
	}
	for name, cmd := range commands {
		if err := a.Registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}

// dispatchText feeds the selector the text body returns, as if typed.
func (a *App) dispatchText(body func() string) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID, ok := tghelpers.UserKey(c)
		if !ok {
			return nil
		}
		out := a.Selector.Dispatch(tghelpers.BuildContext(c), dispatch.Event{
			UserID:  userID,
			Payload: dispatch.Text{Body: body()},
			Reply:   telegram.NewReplier(c, a.Sender),
		})
		return out.Err
	}
}
