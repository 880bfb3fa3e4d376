package workflow

import (
	"context"

	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/provider"
)

// NLP runs a text-analysis command against its provider service.
type NLP struct {
	caller Caller
}

// NewNLP returns the NLP command workflow.
func NewNLP(c Caller) *NLP {
	return &NLP{caller: c}
}

// Handle forwards the command argument, and its parameter if any, to the
// service resolved by the command table.
func (w *NLP) Handle(ctx context.Context, inv dispatch.Invocation) error {
	res, err := call(ctx, w.caller, "nlp", provider.Request{
		Service: inv.Service,
		Text:    inv.Text,
		Param:   inv.Param,
	})
	if err != nil {
		return err
	}
	return deliver(ctx, inv.Reply, res)
}
