package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/aiftbot/core/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// File downloads share it, so the client timeout covers a full attachment.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		ResponseTimeout: pollTimeout + 5*time.Second,
		ClientTimeout:   pollTimeout + 60*time.Second,
		RetryAttempts:   3,
		RetryBackoff:    2 * time.Second,
	})
}
