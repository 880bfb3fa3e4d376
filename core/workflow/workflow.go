// Package workflow implements the dispatch workflows on top of the provider
// client: NLP commands, image analysis, multimodal questions and plain chat.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/logger"
	"github.com/m3rciful/aiftbot/core/provider"
)

// Caller is the provider surface the workflows need.
type Caller interface {
	Call(ctx context.Context, req provider.Request) (provider.Result, error)
}

// ErrEmptyResult is returned when a provider answer carries nothing to send.
var ErrEmptyResult = errors.New("workflow: empty provider result")

// deliver sends the richest part of res: audio, then image, then text.
func deliver(ctx context.Context, r dispatch.Replier, res provider.Result) error {
	switch {
	case res.AudioURL != "":
		return r.ReplyAudio(ctx, res.AudioURL, res.Duration)
	case res.ImageURL != "":
		return r.ReplyImage(ctx, res.ImageURL)
	case res.Text != "":
		return r.ReplyText(ctx, res.Text)
	default:
		return ErrEmptyResult
	}
}

func upload(a artifact.Artifact) *provider.Upload {
	if a.IsZero() {
		return nil
	}
	return &provider.Upload{Path: a.Path, Name: a.Name, MIME: a.MIME}
}

func call(ctx context.Context, c Caller, name string, req provider.Request) (provider.Result, error) {
	res, err := c.Call(ctx, req)
	if err != nil {
		return provider.Result{}, fmt.Errorf("workflow %s: %w", name, err)
	}
	logger.Debug(ctx, "workflow", "workflow.answered",
		slog.String("workflow", name),
		slog.String("service", req.Service),
		slog.Bool("audio", res.AudioURL != ""),
		slog.Bool("image", res.ImageURL != ""),
		slog.Int("text_len", len(res.Text)),
	)
	return res, nil
}
