package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aiftbot/core/dispatch"
)

type sent struct {
	what interface{}
	opts []interface{}
}

type sendContext struct {
	tele.Context
	out []sent
}

func (s *sendContext) Send(what interface{}, opts ...interface{}) error {
	s.out = append(s.out, sent{what: what, opts: opts})
	return nil
}

func TestReplierText(t *testing.T) {
	c := &sendContext{}
	require.NoError(t, NewReplier(c, nil).ReplyText(context.Background(), "สวัสดี"))
	require.Len(t, c.out, 1)
	assert.Equal(t, "สวัสดี", c.out[0].what)
	assert.Empty(t, c.out[0].opts)
}

func TestReplierMenuButtonsSendKeys(t *testing.T) {
	c := &sendContext{}
	opts := []dispatch.MenuOption{{Key: "1", Title: "Face blur"}, {Key: "2", Title: "X-ray"}}
	require.NoError(t, NewReplier(c, nil).ReplyMenu(context.Background(), "เลือก", opts))

	require.Len(t, c.out, 1)
	require.Len(t, c.out[0].opts, 1)
	markup, ok := c.out[0].opts[0].(*tele.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, markup.ReplyKeyboard, 1)
	assert.Equal(t, "1", markup.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "2", markup.ReplyKeyboard[0][1].Text)
}

func TestReplierMedia(t *testing.T) {
	c := &sendContext{}
	r := NewReplier(c, nil)
	require.NoError(t, r.ReplyImage(context.Background(), "https://example.com/a.png"))
	require.NoError(t, r.ReplyAudio(context.Background(), "https://example.com/a.wav", 2400*time.Millisecond))

	require.Len(t, c.out, 2)
	photo, ok := c.out[0].what.(*tele.Photo)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a.png", photo.FileURL)

	audio, ok := c.out[1].what.(*tele.Audio)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a.wav", audio.FileURL)
	assert.Equal(t, 2, audio.Duration)
}
