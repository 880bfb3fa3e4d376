package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/provider"
)

// SessionField carries the conversation bucket to the chat services.
const SessionField = "sessionid"

// SessionID buckets a user's conversation into ten-minute windows, so a
// pause longer than that starts a fresh provider-side context.
func SessionID(userID string, now time.Time) string {
	return fmt.Sprintf("%02d%02d%02d%02d-%s", now.Day(), int(now.Month()), now.Hour(), now.Minute()/10*10, userID)
}

// Chat answers free text with the configured chat service.
type Chat struct {
	caller  Caller
	service string
	now     func() time.Time
}

// NewChat returns the plain chat workflow.
func NewChat(c Caller, service string) *Chat {
	return &Chat{caller: c, service: service, now: time.Now}
}

func (w *Chat) Handle(ctx context.Context, inv dispatch.Invocation) error {
	res, err := call(ctx, w.caller, "chat", provider.Request{
		Service: w.service,
		Text:    inv.Text,
		Fields:  map[string]string{SessionField: SessionID(inv.UserID, w.now())},
	})
	if err != nil {
		return err
	}
	return deliver(ctx, inv.Reply, res)
}

// Multimodal answers a question about a pending audio or image artifact.
type Multimodal struct {
	caller   Caller
	services map[artifact.Modality]string
	now      func() time.Time
}

// NewMultimodal maps each modality ("audio", "image") to its QA service.
func NewMultimodal(c Caller, services map[string]string) *Multimodal {
	m := &Multimodal{caller: c, services: make(map[artifact.Modality]string, len(services)), now: time.Now}
	for k, v := range services {
		m.services[artifact.Modality(k)] = v
	}
	return m
}

func (w *Multimodal) Handle(ctx context.Context, inv dispatch.Invocation) error {
	svc, ok := w.services[inv.Artifact.Modality]
	if !ok {
		return fmt.Errorf("workflow multimodal: no service for %q", inv.Artifact.Modality)
	}
	res, err := call(ctx, w.caller, "multimodal", provider.Request{
		Service: svc,
		Text:    inv.Text,
		File:    upload(inv.Artifact),
		Fields:  map[string]string{SessionField: SessionID(inv.UserID, w.now())},
	})
	if err != nil {
		return err
	}
	return deliver(ctx, inv.Reply, res)
}
