package dispatch

import (
	"context"
	"time"

	"github.com/m3rciful/aiftbot/core/artifact"
)

// Payload is the closed set of inbound event bodies: Text, Audio, Image and File.
type Payload interface {
	Modality() string
	isPayload()
}

// Text is a typed chat message.
type Text struct {
	Body string
}

// Audio is a voice note or audio file already saved as an artifact.
type Audio struct {
	Artifact artifact.Artifact
}

// Image is a photo already saved as an artifact.
type Image struct {
	Artifact artifact.Artifact
}

// File is a document already saved as an artifact.
type File struct {
	Artifact artifact.Artifact
}

func (Text) Modality() string  { return "text" }
func (Audio) Modality() string { return string(artifact.Audio) }
func (Image) Modality() string { return string(artifact.Image) }
func (File) Modality() string  { return string(artifact.File) }

func (Text) isPayload()  {}
func (Audio) isPayload() {}
func (Image) isPayload() {}
func (File) isPayload()  {}

// Event is one inbound delivery for a single user.
type Event struct {
	UserID  string
	Payload Payload
	Reply   Replier
}

// MenuOption is one button of a reply menu.
type MenuOption struct {
	Key   string
	Title string
}

// Replier delivers answers on the channel the event arrived on.
type Replier interface {
	ReplyText(ctx context.Context, text string) error
	ReplyMenu(ctx context.Context, text string, options []MenuOption) error
	ReplyImage(ctx context.Context, url string) error
	ReplyAudio(ctx context.Context, url string, duration time.Duration) error
}
