package dispatch

//go:generate mockgen -destination=mocks/mock_dispatch.go -package=mocks github.com/m3rciful/aiftbot/core/dispatch Workflow,Replier,Recorder

import (
	"context"
	"time"

	"github.com/m3rciful/aiftbot/core/artifact"
)

// Invocation carries everything a workflow needs to service one event.
type Invocation struct {
	UserID string
	// Text is the command argument, the question, or extracted document text.
	Text     string
	Command  string
	Service  string
	Param    string
	Artifact artifact.Artifact
	Reply    Replier
}

// Workflow services one category of user intent. A returned error is turned
// into a generic apology by the selector; workflows reply on success.
type Workflow interface {
	Handle(ctx context.Context, inv Invocation) error
}

// Workflows is the set the selector routes to.
type Workflows struct {
	NLP        Workflow
	Image      Workflow
	Multimodal Workflow
	Chat       Workflow
}

// Extractor turns a document artifact into text.
type Extractor interface {
	Extract(a artifact.Artifact) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(a artifact.Artifact) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(a artifact.Artifact) (string, error) {
	return f(a)
}

// Record is one journal row describing a routed event.
type Record struct {
	UserID      string
	Modality    string
	Route       Route
	StateBefore string
	Status      string
	Error       string
	Duration    time.Duration
	At          time.Time
}

// Recorder persists dispatch records. Implementations must not block for long.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}
