package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	labels := []string{"1", "2", "3", "4", "5", "6", "7"}
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}, {"7"}}, Chunk(labels, 3))
	assert.Len(t, Chunk(labels, 0), 7)
	assert.Empty(t, Chunk(nil, 3))
}

func TestMenuIsOneTimeReplyKeyboard(t *testing.T) {
	m := Menu([]string{"1", "2", "3", "4"}, 2)
	assert.True(t, m.OneTimeKeyboard)
	assert.True(t, m.ResizeKeyboard)
	if assert.Len(t, m.ReplyKeyboard, 2) {
		assert.Equal(t, "1", m.ReplyKeyboard[0][0].Text)
		assert.Equal(t, "4", m.ReplyKeyboard[1][1].Text)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
