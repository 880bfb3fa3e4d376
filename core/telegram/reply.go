package telegram

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/telegram/keyboard"
	"github.com/m3rciful/aiftbot/core/telegram/sender"
)

// MenuColumns is the number of option buttons per keyboard row.
const MenuColumns = 4

// Replier answers into the chat of one update. Sends go through the sender
// inline so replies keep their order.
type Replier struct {
	c    tele.Context
	disp *sender.Dispatcher
}

var _ dispatch.Replier = (*Replier)(nil)

// NewReplier binds a replier to c. A nil disp sends without retries.
func NewReplier(c tele.Context, disp *sender.Dispatcher) *Replier {
	return &Replier{c: c, disp: disp}
}

// ReplyText sends plain text.
func (r *Replier) ReplyText(ctx context.Context, text string) error {
	return r.send(ctx, "reply.text", "sendMessage", text)
}

// ReplyMenu sends text with a one-time keyboard whose buttons send back the
// option keys.
func (r *Replier) ReplyMenu(ctx context.Context, text string, options []dispatch.MenuOption) error {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Key)
	}
	return r.send(ctx, "reply.menu", "sendMessage", text, keyboard.Menu(labels, MenuColumns))
}

// ReplyImage sends the picture found at url.
func (r *Replier) ReplyImage(ctx context.Context, url string) error {
	return r.send(ctx, "reply.image", "sendPhoto", &tele.Photo{File: tele.FromURL(url)})
}

// ReplyAudio sends the audio found at url. duration may be zero.
func (r *Replier) ReplyAudio(ctx context.Context, url string, duration time.Duration) error {
	audio := &tele.Audio{File: tele.FromURL(url), Duration: int(duration.Round(time.Second) / time.Second)}
	return r.send(ctx, "reply.audio", "sendAudio", audio)
}

func (r *Replier) send(ctx context.Context, action, endpoint string, what interface{}, opts ...interface{}) error {
	run := func() error { return r.c.Send(what, opts...) }
	if r.disp == nil {
		return run()
	}
	return r.disp.Do(ctx, action, endpoint, run)
}
