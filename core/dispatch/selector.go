// Package dispatch decides which workflow owns an inbound chat event.
//
// The Selector reads and writes per-user session state and the multimodal
// accumulator, then invokes exactly one workflow. No lock is held while a
// workflow runs, and workflow failures are answered with a generic apology
// instead of being returned.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/aiftbot/core/accumulator"
	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/command"
	"github.com/m3rciful/aiftbot/core/config"
	"github.com/m3rciful/aiftbot/core/logger"
	"github.com/m3rciful/aiftbot/core/session"
)

// Options wires a Selector. Recorder and Releaser are optional.
type Options struct {
	Config      config.DispatchConfig
	Sessions    *session.Store
	Accumulator *accumulator.Accumulator
	Commands    *command.Table
	Workflows   Workflows
	Extractor   Extractor
	Releaser    accumulator.Releaser
	Recorder    Recorder
}

// Selector is the session-state dispatcher. It is safe for concurrent use.
type Selector struct {
	sessions  *session.Store
	acc       *accumulator.Accumulator
	commands  *command.Table
	wf        Workflows
	extractor Extractor
	releaser  accumulator.Releaser
	recorder  Recorder
	msgs      Messages

	cancel           []string
	imageMarker      string
	menu             map[string]config.ImageOption
	menuOptions      []MenuOption
	clearAfterAnswer bool
}

// New validates opts and builds a Selector.
func New(opts Options) (*Selector, error) {
	switch {
	case opts.Sessions == nil:
		return nil, errors.New("dispatch: nil session store")
	case opts.Accumulator == nil:
		return nil, errors.New("dispatch: nil accumulator")
	case opts.Commands == nil:
		return nil, errors.New("dispatch: nil command table")
	case opts.Extractor == nil:
		return nil, errors.New("dispatch: nil extractor")
	case opts.Workflows.NLP == nil, opts.Workflows.Image == nil,
		opts.Workflows.Multimodal == nil, opts.Workflows.Chat == nil:
		return nil, errors.New("dispatch: all workflows are required")
	}

	cfg := opts.Config
	s := &Selector{
		sessions:         opts.Sessions,
		acc:              opts.Accumulator,
		commands:         opts.Commands,
		wf:               opts.Workflows,
		extractor:        opts.Extractor,
		releaser:         opts.Releaser,
		recorder:         opts.Recorder,
		msgs:             NewMessages(opts.Sessions.TTL(), cfg.ImageMarker, cfg.ImageMenu),
		imageMarker:      cfg.ImageMarker,
		menu:             make(map[string]config.ImageOption, len(cfg.ImageMenu)),
		clearAfterAnswer: cfg.ClearAfterAnswer,
	}
	if s.imageMarker == "" {
		return nil, errors.New("dispatch: empty image marker")
	}
	for _, kw := range cfg.CancelKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			s.cancel = append(s.cancel, kw)
		}
	}
	for _, o := range cfg.ImageMenu {
		s.menu[o.Key] = o
		s.menuOptions = append(s.menuOptions, MenuOption{Key: o.Key, Title: o.Title})
	}
	return s, nil
}

// Messages returns the copy the selector replies with.
func (s *Selector) Messages() Messages {
	return s.msgs
}

// CancelKeyword returns the first configured cancellation keyword.
func (s *Selector) CancelKeyword() string {
	if len(s.cancel) == 0 {
		return ""
	}
	return s.cancel[0]
}

// ImageMarker returns the text that opens the image menu.
func (s *Selector) ImageMarker() string {
	return s.imageMarker
}

// Dispatch routes ev to exactly one branch and reports what happened.
func (s *Selector) Dispatch(ctx context.Context, ev Event) Outcome {
	start := time.Now()
	var out Outcome
	switch p := ev.Payload.(type) {
	case Text:
		out = s.onText(ctx, ev, p.Body)
	case Audio:
		out = s.onMedia(ctx, ev, p.Artifact)
	case Image:
		out = s.onMedia(ctx, ev, p.Artifact)
	case File:
		out = s.onFile(ctx, ev, p.Artifact)
	default:
		out = Outcome{Route: RouteUnsupported, Err: s.say(ctx, ev, s.msgs.Unsupported())}
	}
	s.finish(ctx, ev, out, start)
	return out
}

func (s *Selector) onText(ctx context.Context, ev Event, body string) Outcome {
	text := strings.TrimSpace(body)
	if text == "" {
		return Outcome{Route: RouteEmpty}
	}

	if s.isCancel(text) {
		before, _ := s.sessions.Get(ev.UserID)
		s.sessions.Clear(ev.UserID)
		s.acc.ClearAll(ev.UserID)
		return Outcome{Route: RouteCancel, StateBefore: before, Err: s.say(ctx, ev, s.msgs.Cancelled())}
	}

	if strings.HasPrefix(text, s.imageMarker) {
		before, _ := s.sessions.Get(ev.UserID)
		s.sessions.Set(ev.UserID, session.ImageMenu())
		err := ev.Reply.ReplyMenu(ctx, s.msgs.ImageMenu(), s.menuOptions)
		return Outcome{Route: RouteImageMenu, StateBefore: before, Err: err}
	}

	st, live := s.sessions.Get(ev.UserID)
	out := Outcome{StateBefore: st}
	opt, isKey := s.menu[text]

	if live && st.IsImage() {
		if isKey {
			s.sessions.Set(ev.UserID, session.ImageService(opt.Key))
			out.Route = RouteImageSelect
			out.Err = s.say(ctx, ev, s.msgs.ImageSelected(opt.Title))
			return out
		}
		if st.Kind == session.KindImageMenu {
			out.Route = RouteImageHint
			out.Err = s.say(ctx, ev, s.msgs.ImageHint())
			return out
		}
		out.Route = RouteImageReminder
		out.Err = s.say(ctx, ev, s.msgs.ImageReminder(s.menu[st.Service].Title))
		return out
	}

	if sel, ok, err := s.commands.ParseSelection(text); ok {
		if err != nil {
			var perr *command.ParamError
			if errors.As(err, &perr) {
				out.Route = RouteInvalidParam
				out.Err = s.say(ctx, ev, s.msgs.InvalidParam(perr))
				return out
			}
			out.Route = RouteNotFound
			out.Err = s.say(ctx, ev, s.msgs.NotFound(sel.Name))
			return out
		}
		s.sessions.Set(ev.UserID, session.AwaitingCommand(sel.Command))
		out.Route = RouteAwaitCommand
		out.Err = s.say(ctx, ev, s.msgs.CommandReady(sel.Command))
		return out
	}

	if live && st.Kind == session.KindAwaitingCommand {
		if taken, ok := s.sessions.TakeKind(ev.UserID, session.KindAwaitingCommand); ok {
			return s.runCommand(ctx, ev, out, taken.Command+text)
		}
		// Another delivery consumed the pending command first.
		live = false
	}

	if !live && isKey {
		out.Route = RouteTimeout
		out.Err = s.say(ctx, ev, s.msgs.Timeout())
		return out
	}

	if s.commands.IsCommandForm(text) {
		return s.runCommand(ctx, ev, out, text)
	}

	return s.chat(ctx, ev, out, text)
}

// runCommand parses text and either invokes the NLP workflow or waits for an
// argument. A malformed parameter writes no session.
func (s *Selector) runCommand(ctx context.Context, ev Event, out Outcome, text string) Outcome {
	m, err := s.commands.Parse(text)
	if err != nil {
		var perr *command.ParamError
		if errors.As(err, &perr) {
			out.Route = RouteInvalidParam
			out.Err = s.say(ctx, ev, s.msgs.InvalidParam(perr))
			return out
		}
		out.Route = RouteNotFound
		out.Err = s.say(ctx, ev, s.msgs.NotFound(""))
		return out
	}
	if !m.Matched {
		out.Route = RouteNotFound
		out.Err = s.say(ctx, ev, s.msgs.NotFound(""))
		return out
	}
	if m.NeedsArgument() {
		s.sessions.Set(ev.UserID, session.AwaitingCommand(m.Command))
		out.Route = RouteAwaitCommand
		out.Err = s.say(ctx, ev, s.msgs.CommandReady(m.Command))
		return out
	}
	out.Route = RouteNLP
	out.Err = s.invoke(ctx, ev, s.wf.NLP, Invocation{
		Text:    m.Argument,
		Command: m.Command,
		Service: m.Service,
		Param:   m.Param,
	})
	return out
}

// chat answers free text, preferring a pending audio artifact, then a pending
// image, then plain chat. Pending artifacts stay pinned while the workflow
// reads them.
func (s *Selector) chat(ctx context.Context, ev Event, out Outcome, text string) Outcome {
	audio, doneAudio, hasAudio := s.acc.Acquire(ev.UserID, artifact.Audio)
	defer doneAudio()
	img, doneImage, hasImage := s.acc.Acquire(ev.UserID, artifact.Image)
	defer doneImage()

	var pending artifact.Artifact
	switch {
	case hasAudio:
		pending = audio
	case hasImage:
		pending = img
	default:
		out.Route = RouteChat
		out.Err = s.invoke(ctx, ev, s.wf.Chat, Invocation{Text: text})
		return out
	}

	out.Route = RouteMultimodal
	out.Err = s.invoke(ctx, ev, s.wf.Multimodal, Invocation{Text: text, Artifact: pending})
	if out.Err == nil && s.clearAfterAnswer {
		var answered []artifact.Artifact
		if hasAudio {
			answered = append(answered, audio)
		}
		if hasImage {
			answered = append(answered, img)
		}
		s.acc.Forget(ev.UserID, answered...)
	}
	return out
}

func (s *Selector) onMedia(ctx context.Context, ev Event, a artifact.Artifact) Outcome {
	if taken, ok := s.sessions.TakeKind(ev.UserID, session.KindImageService); ok {
		defer s.release(ctx, a)
		opt := s.menu[taken.Service]
		return Outcome{
			Route:       RouteImage,
			StateBefore: taken,
			Err: s.invoke(ctx, ev, s.wf.Image, Invocation{
				Service:  opt.Service,
				Param:    opt.Key,
				Artifact: a,
			}),
		}
	}

	before, live := s.sessions.Get(ev.UserID)
	if live && before.Kind == session.KindImageMenu {
		// No service picked yet; the attachment cannot be used.
		s.release(ctx, a)
		return Outcome{Route: RouteImageHint, StateBefore: before, Err: s.say(ctx, ev, s.msgs.ImageHint())}
	}
	if err := s.acc.Push(ev.UserID, a); err != nil {
		s.release(ctx, a)
		logger.Warn(ctx, "dispatch", "accumulator.push_failed",
			slog.String("artifact_id", a.ID),
			slog.String("err", err.Error()),
		)
		sayErr := s.say(ctx, ev, s.msgs.Failure())
		return Outcome{Route: RouteAccumulateFail, StateBefore: before, Err: errors.Join(err, sayErr)}
	}
	return Outcome{
		Route:       RouteAccumulate,
		StateBefore: before,
		Err:         s.say(ctx, ev, s.msgs.AskQuestion(string(a.Modality))),
	}
}

func (s *Selector) onFile(ctx context.Context, ev Event, a artifact.Artifact) Outcome {
	defer s.release(ctx, a)
	before, _ := s.sessions.Get(ev.UserID)

	text, err := s.extractor.Extract(a)
	if err != nil {
		logger.Info(ctx, "dispatch", "file.rejected",
			slog.String("artifact_id", a.ID),
			slog.String("name", a.Name),
			slog.String("err", err.Error()),
		)
		return Outcome{Route: RouteFileRejected, StateBefore: before, Err: s.say(ctx, ev, s.msgs.FileRejected())}
	}
	return Outcome{
		Route:       RouteFile,
		StateBefore: before,
		Err:         s.invoke(ctx, ev, s.wf.Chat, Invocation{Text: text}),
	}
}

// invoke runs wf outside any lock. Errors and panics are answered with the
// generic failure copy and returned for logging only.
func (s *Selector) invoke(ctx context.Context, ev Event, wf Workflow, inv Invocation) (err error) {
	inv.UserID = ev.UserID
	inv.Reply = ev.Reply
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dispatch: workflow panic: %v", rec)
		}
		if err != nil {
			if sayErr := s.say(ctx, ev, s.msgs.Failure()); sayErr != nil {
				err = errors.Join(err, sayErr)
			}
		}
	}()
	return wf.Handle(ctx, inv)
}

func (s *Selector) say(ctx context.Context, ev Event, text string) error {
	if ev.Reply == nil {
		return errors.New("dispatch: event has no replier")
	}
	return ev.Reply.ReplyText(ctx, text)
}

func (s *Selector) isCancel(text string) bool {
	for _, kw := range s.cancel {
		if strings.EqualFold(text, kw) {
			return true
		}
	}
	return false
}

func (s *Selector) release(ctx context.Context, a artifact.Artifact) {
	if s.releaser == nil || a.IsZero() {
		return
	}
	if err := s.releaser.Release(a); err != nil {
		logger.Warn(ctx, "dispatch", "artifact.release_failed",
			slog.String("artifact_id", a.ID),
			slog.String("err", err.Error()),
		)
	}
}

func (s *Selector) finish(ctx context.Context, ev Event, out Outcome, start time.Time) {
	modality := "unknown"
	if ev.Payload != nil {
		modality = ev.Payload.Modality()
	}
	took := logger.Took(start)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(out.Err)),
		slog.String("route", string(out.Route)),
		slog.String("modality", modality),
		slog.String("state", out.StateBefore.Label()),
		slog.Duration("duration", took),
	}
	if out.Err != nil {
		attrs = append(attrs, slog.String("err", out.Err.Error()))
		logger.Warn(ctx, "dispatch", "dispatch.routed", attrs...)
	} else {
		logger.Info(ctx, "dispatch", "dispatch.routed", attrs...)
	}

	if s.recorder == nil {
		return
	}
	rec := Record{
		UserID:      ev.UserID,
		Modality:    modality,
		Route:       out.Route,
		StateBefore: out.StateBefore.Label(),
		Status:      logger.Status(out.Err),
		Duration:    took,
		At:          start,
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		logger.Warn(ctx, "dispatch", "journal.record_failed", slog.String("err", err.Error()))
	}
}
