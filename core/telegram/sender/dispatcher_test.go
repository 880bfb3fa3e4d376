package sender

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func newTestDispatcher(t *testing.T, retries int) *Dispatcher {
	t.Helper()
	d := NewDispatcher(Options{Workers: 1, MaxRetries: retries, RetryBackoff: time.Millisecond})
	d.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(d.Close)
	return d
}

func dialErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	d := newTestDispatcher(t, 2)
	calls := 0
	err := d.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return dialErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint64(1), d.SentCount())
	assert.Zero(t, d.ErrorCount())
}

func TestDoStopsOnPermanentError(t *testing.T) {
	d := newTestDispatcher(t, 3)
	boom := errors.New("telegram: bad request (400)")
	calls := 0
	err := d.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDoGivesUpAfterRetries(t *testing.T) {
	d := newTestDispatcher(t, 1)
	calls := 0
	err := d.Do(context.Background(), "send.photo", "sendPhoto", func() error {
		calls++
		return dialErr()
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestEnqueueRunsOnWorker(t *testing.T) {
	d := newTestDispatcher(t, 0)
	done := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		close(done)
		return nil
	}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestNilRunRejected(t *testing.T) {
	d := newTestDispatcher(t, 0)
	assert.Error(t, d.Do(context.Background(), "x", "", nil))
	assert.Error(t, d.Enqueue(context.Background(), "x", "", nil))
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"dial":     dialErr(),
		"dns":      &net.DNSError{Err: "no such host", Name: "api.telegram.org"},
		"flood":    tele.FloodError{RetryAfter: 3},
		"http_4xx": errors.New("telegram: chat not found (400)"),
		"http_5xx": errors.New("telegram: internal error (502)"),
		"unknown":  errors.New("weird"),
	}
	for want, err := range cases {
		assert.Equal(t, want, classify(err), want)
	}
	assert.Empty(t, classify(nil))
}

func TestRedactHidesToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, redact(err))
}
