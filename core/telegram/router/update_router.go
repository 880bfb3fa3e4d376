// Package router turns Telegram updates into dispatch events and binds slash
// commands.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/logger"
	tg "github.com/m3rciful/aiftbot/core/telegram"
	tghelpers "github.com/m3rciful/aiftbot/core/telegram/helpers"
	"github.com/m3rciful/aiftbot/core/telegram/sender"
)

// Dispatcher routes one chat event. *dispatch.Selector implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev dispatch.Event) dispatch.Outcome
}

// ArtifactSaver persists a downloaded attachment. *artifact.Store implements it.
type ArtifactSaver interface {
	Save(ctx context.Context, modality artifact.Modality, meta artifact.Meta, r io.Reader) (artifact.Artifact, error)
}

// Fetcher opens a Telegram file for reading. The bot API implements it.
type Fetcher interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// UpdateOptions wires the update routes.
type UpdateOptions struct {
	Registry   *tg.Registry
	Dispatcher Dispatcher
	Artifacts  ArtifactSaver
	Messages   dispatch.Messages
	// Sender delivers replies; nil falls back to the helpers dispatcher.
	Sender *sender.Dispatcher
	// Fetcher downloads attachments; nil uses the bot of the update.
	Fetcher Fetcher
	// MaxFileBytes rejects attachments Telegram reports as larger. 0 disables.
	MaxFileBytes int64
}

// attachment is the downloadable part of a media message.
type attachment struct {
	modality artifact.Modality
	file     tele.File
	meta     artifact.Meta
}

// UpdateRoutes builds the text and media handlers that feed the dispatcher.
func UpdateRoutes(opts UpdateOptions) []tg.Route {
	u := &updates{opts: opts}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: u.onText},
		{Endpoint: tele.OnVoice, Handler: u.onMedia("voice", voiceAttachment)},
		{Endpoint: tele.OnAudio, Handler: u.onMedia("audio", audioAttachment)},
		{Endpoint: tele.OnPhoto, Handler: u.onMedia("photo", photoAttachment)},
		{Endpoint: tele.OnDocument, Handler: u.onMedia("document", documentAttachment)},
	}
}

type updates struct {
	opts UpdateOptions
}

func (u *updates) onText(c tele.Context) error {
	text := c.Text()
	if u.opts.Registry != nil {
		if name, cmd, ok := u.opts.Registry.LookupCommand(text); ok {
			return handled(c, "cmd."+normalizeHandlerName(name), func() (string, error) {
				return "", cmd.Handler(c)
			})
		}
	}
	return handled(c, "text", func() (string, error) {
		return u.dispatch(c, dispatch.Text{Body: text})
	})
}

func (u *updates) onMedia(name string, extract func(*tele.Message) (attachment, bool)) tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		if msg == nil {
			return nil
		}
		att, ok := extract(msg)
		if !ok {
			return nil
		}
		return handled(c, name, func() (string, error) {
			a, err := u.download(c, att)
			if err != nil {
				text := u.opts.Messages.Failure()
				if errors.Is(err, artifact.ErrTooLarge) {
					text = u.opts.Messages.TooLarge()
				}
				_ = u.replier(c).ReplyText(tghelpers.BuildContext(c), text)
				return "download_failed", err
			}
			var p dispatch.Payload
			switch att.modality {
			case artifact.Audio:
				p = dispatch.Audio{Artifact: a}
			case artifact.Image:
				p = dispatch.Image{Artifact: a}
			default:
				p = dispatch.File{Artifact: a}
			}
			return u.dispatch(c, p)
		}, slog.String("modality", string(att.modality)))
	}
}

func (u *updates) dispatch(c tele.Context, p dispatch.Payload) (string, error) {
	userID, ok := tghelpers.UserKey(c)
	if !ok {
		return "no_sender", nil
	}
	ctx := tghelpers.BuildContext(c)
	out := u.opts.Dispatcher.Dispatch(ctx, dispatch.Event{
		UserID:  userID,
		Payload: p,
		Reply:   u.replier(c),
	})
	return string(out.Route), out.Err
}

func (u *updates) replier(c tele.Context) *tg.Replier {
	disp := u.opts.Sender
	if disp == nil {
		disp = tghelpers.Dispatcher()
	}
	return tg.NewReplier(c, disp)
}

func (u *updates) download(c tele.Context, att attachment) (artifact.Artifact, error) {
	if u.opts.MaxFileBytes > 0 && int64(att.file.FileSize) > u.opts.MaxFileBytes {
		return artifact.Artifact{}, fmt.Errorf("telegram: %s is %d bytes: %w", att.modality, att.file.FileSize, artifact.ErrTooLarge)
	}
	fetch := u.opts.Fetcher
	if fetch == nil {
		fetch = botFetcher(c)
	}

	ctx := tghelpers.BuildContext(c)
	start := time.Now()
	rc, err := fetch.File(&att.file)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("telegram: fetch %s: %w", att.modality, err)
	}
	defer rc.Close()

	a, err := u.opts.Artifacts.Save(ctx, att.modality, att.meta, rc)
	logger.Debug(ctx, "tg", "media.download",
		slog.String("status", logger.Status(err)),
		slog.String("modality", string(att.modality)),
		slog.Int64("bytes", a.Size),
		slog.Duration("duration", logger.Took(start)),
	)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("telegram: store %s: %w", att.modality, err)
	}
	return a, nil
}

func botFetcher(c tele.Context) Fetcher {
	return c.Bot()
}

func voiceAttachment(m *tele.Message) (attachment, bool) {
	if m.Voice == nil {
		return attachment{}, false
	}
	return attachment{
		modality: artifact.Audio,
		file:     m.Voice.File,
		meta: artifact.Meta{
			Name:     "voice.ogg",
			MIME:     orDefault(m.Voice.MIME, "audio/ogg"),
			Duration: time.Duration(m.Voice.Duration) * time.Second,
		},
	}, true
}

func audioAttachment(m *tele.Message) (attachment, bool) {
	if m.Audio == nil {
		return attachment{}, false
	}
	return attachment{
		modality: artifact.Audio,
		file:     m.Audio.File,
		meta: artifact.Meta{
			Name:     orDefault(m.Audio.FileName, "audio.mp3"),
			MIME:     orDefault(m.Audio.MIME, "audio/mpeg"),
			Duration: time.Duration(m.Audio.Duration) * time.Second,
		},
	}, true
}

func photoAttachment(m *tele.Message) (attachment, bool) {
	if m.Photo == nil {
		return attachment{}, false
	}
	return attachment{
		modality: artifact.Image,
		file:     m.Photo.File,
		meta:     artifact.Meta{Name: "photo.jpg", MIME: "image/jpeg"},
	}, true
}

func documentAttachment(m *tele.Message) (attachment, bool) {
	if m.Document == nil {
		return attachment{}, false
	}
	return attachment{
		modality: artifact.File,
		file:     m.Document.File,
		meta: artifact.Meta{
			Name: orDefault(m.Document.FileName, "document"),
			MIME: orDefault(m.Document.MIME, "application/octet-stream"),
		},
	}, true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
