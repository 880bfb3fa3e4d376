package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/logger"
	tg "github.com/m3rciful/aiftbot/core/telegram"
	"github.com/m3rciful/aiftbot/core/telegram/middleware"
)

// CommandRouteOptions configures how slash commands are wrapped.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered slash command to its own endpoint.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOpts := middleware.AdminOptions{AdminID: opts.AdminID, OnReject: opts.OnAdminReject}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  wrapCommand(name, def, adminOpts),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands"),
		slog.Int("commands", len(routes)),
	)
	return routes
}

func wrapCommand(name string, def tg.Command, adminOpts middleware.AdminOptions) tele.HandlerFunc {
	handlerName := "cmd." + normalizeHandlerName(name)
	h := func(c tele.Context) error {
		return handled(c, handlerName, func() (string, error) {
			return "", def.Handler(c)
		})
	}
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(adminOpts)(h)
	}
	return h
}
