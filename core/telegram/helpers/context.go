// Package helpers holds small utilities shared by Telegram handlers.
package helpers

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/logger"
)

const ctxKey = "aiftbot.ctx"

// StoreContext caches ctx on the update so later handlers reuse it.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// BuildContext returns the update's logging context, creating it on first
// use with the request id and update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithLogger(
		logger.WithUpdateMeta(logger.WithRID(context.Background(), rid), updateID, userID, chatID),
		logger.Component("tg"),
	)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}

// UserKey is the session key for the update's sender.
func UserKey(c tele.Context) (string, bool) {
	user := c.Sender()
	if user == nil {
		return "", false
	}
	return strconv.FormatInt(user.ID, 10), true
}
