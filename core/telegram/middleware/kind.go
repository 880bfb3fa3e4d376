package middleware

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/aiftbot/core/config"
)

// UpdateKind labels an update for rate limiting and logs: "message" for
// text, "media" for voice, audio, photo and document messages.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Message == nil:
		if upd.Callback != nil {
			return "callback"
		}
		return "other"
	case upd.Message.Voice != nil, upd.Message.Audio != nil,
		upd.Message.Photo != nil, upd.Message.Document != nil:
		return coreconfig.UpdateMedia
	default:
		return coreconfig.UpdateMessage
	}
}
