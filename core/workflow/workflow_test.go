package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/dispatch/mocks"
	"github.com/m3rciful/aiftbot/core/extract"
	"github.com/m3rciful/aiftbot/core/provider"
)

type fakeCaller struct {
	got []provider.Request
	res provider.Result
	err error
}

func (f *fakeCaller) Call(_ context.Context, req provider.Request) (provider.Result, error) {
	f.got = append(f.got, req)
	return f.res, f.err
}

func TestNLPRepliesText(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{res: provider.Result{Text: "sa1 wat2 dii0"}}

	reply.EXPECT().ReplyText(gomock.Any(), "sa1 wat2 dii0").Return(nil)

	err := NewNLP(caller).Handle(context.Background(), dispatch.Invocation{
		Service: "g2p", Text: "สวัสดี", Reply: reply,
	})
	require.NoError(t, err)
	require.Len(t, caller.got, 1)
	assert.Equal(t, "g2p", caller.got[0].Service)
	assert.Equal(t, "สวัสดี", caller.got[0].Text)
}

func TestNLPRepliesAudioWithParam(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{res: provider.Result{AudioURL: "https://cdn/a.wav", Duration: 2 * time.Second}}

	reply.EXPECT().ReplyAudio(gomock.Any(), "https://cdn/a.wav", 2*time.Second).Return(nil)

	err := NewNLP(caller).Handle(context.Background(), dispatch.Invocation{
		Service: "vajatts", Text: "hi", Param: "3", Reply: reply,
	})
	require.NoError(t, err)
	assert.Equal(t, "3", caller.got[0].Param)
}

func TestNLPPropagatesProviderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{err: provider.ErrUnknownService}

	err := NewNLP(caller).Handle(context.Background(), dispatch.Invocation{Service: "x", Reply: reply})
	assert.ErrorIs(t, err, provider.ErrUnknownService)
}

func TestNLPEmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)

	err := NewNLP(&fakeCaller{}).Handle(context.Background(), dispatch.Invocation{Service: "x", Reply: reply})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestImageUploadsArtifact(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{res: provider.Result{ImageURL: "https://img/out.jpg"}}

	reply.EXPECT().ReplyImage(gomock.Any(), "https://img/out.jpg").Return(nil)

	a := artifact.Artifact{ID: "i1", Modality: artifact.Image, Path: "/tmp/i1.jpg", Name: "p.jpg", MIME: "image/jpeg"}
	err := NewImage(caller).Handle(context.Background(), dispatch.Invocation{Service: "face_blur", Artifact: a, Reply: reply})
	require.NoError(t, err)
	require.NotNil(t, caller.got[0].File)
	assert.Equal(t, "/tmp/i1.jpg", caller.got[0].File.Path)
	assert.Equal(t, "face_blur", caller.got[0].Service)
}

func TestImageRejectsAudio(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{}

	reply.EXPECT().ReplyText(gomock.Any(), NotAnImage).Return(nil)

	a := artifact.Artifact{ID: "a1", Modality: artifact.Audio}
	err := NewImage(caller).Handle(context.Background(), dispatch.Invocation{Service: "nsfw", Artifact: a, Reply: reply})
	require.NoError(t, err)
	assert.Empty(t, caller.got)
}

func TestChatSendsSessionBucket(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{res: provider.Result{Text: "คำตอบ"}}
	reply.EXPECT().ReplyText(gomock.Any(), "คำตอบ").Return(nil)

	w := NewChat(caller, "textqa")
	w.now = func() time.Time { return time.Date(2026, 6, 17, 15, 27, 0, 0, time.UTC) }

	err := w.Handle(context.Background(), dispatch.Invocation{UserID: "42", Text: "hello", Reply: reply})
	require.NoError(t, err)
	assert.Equal(t, "textqa", caller.got[0].Service)
	assert.Equal(t, "17061520-42", caller.got[0].Fields[SessionField])
}

func TestMultimodalPicksServiceByModality(t *testing.T) {
	ctrl := gomock.NewController(t)
	reply := mocks.NewMockReplier(ctrl)
	caller := &fakeCaller{res: provider.Result{Text: "a cat"}}
	reply.EXPECT().ReplyText(gomock.Any(), "a cat").Return(nil)

	w := NewMultimodal(caller, map[string]string{"audio": "audioqa", "image": "imageqa"})
	a := artifact.Artifact{ID: "i1", Modality: artifact.Image, Path: "/tmp/i1.jpg"}
	err := w.Handle(context.Background(), dispatch.Invocation{UserID: "1", Text: "what is it?", Artifact: a, Reply: reply})
	require.NoError(t, err)
	assert.Equal(t, "imageqa", caller.got[0].Service)
	assert.Equal(t, "what is it?", caller.got[0].Text)
}

func TestMultimodalUnknownModality(t *testing.T) {
	w := NewMultimodal(&fakeCaller{}, map[string]string{"audio": "audioqa"})
	err := w.Handle(context.Background(), dispatch.Invocation{Artifact: artifact.Artifact{ID: "i", Modality: artifact.Image}})
	assert.Error(t, err)
}

func TestSessionIDWindow(t *testing.T) {
	a := SessionID("u", time.Date(2026, 1, 2, 3, 40, 0, 0, time.UTC))
	b := SessionID("u", time.Date(2026, 1, 2, 3, 49, 59, 0, time.UTC))
	c := SessionID("u", time.Date(2026, 1, 2, 3, 50, 0, 0, time.UTC))
	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
}

func TestDocumentsExtractAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f1.txt")
	require.NoError(t, os.WriteFile(path, []byte("กขคงจ"), 0o600))

	d := NewDocuments(3)
	text, err := d.Extract(artifact.Artifact{ID: "f1", Path: path, Name: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "กขค", text)

	_, err = d.Extract(artifact.Artifact{ID: "f2", Path: path, Name: "notes.xls"})
	assert.True(t, errors.Is(err, extract.ErrUnsupported))
}
