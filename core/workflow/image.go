package workflow

import (
	"context"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/provider"
)

// NotAnImage is sent when an image service receives another kind of attachment.
const NotAnImage = "⚠️ บริการนี้รองรับเฉพาะรูปภาพ กรุณาพิมพ์ #img เพื่อเลือกบริการใหม่"

// Image uploads a photo to the chosen image-analysis service.
type Image struct {
	caller Caller
}

// NewImage returns the image-analysis workflow.
func NewImage(c Caller) *Image {
	return &Image{caller: c}
}

func (w *Image) Handle(ctx context.Context, inv dispatch.Invocation) error {
	if inv.Artifact.Modality != artifact.Image {
		return inv.Reply.ReplyText(ctx, NotAnImage)
	}
	res, err := call(ctx, w.caller, "image", provider.Request{
		Service: inv.Service,
		File:    upload(inv.Artifact),
	})
	if err != nil {
		return err
	}
	return deliver(ctx, inv.Reply, res)
}
