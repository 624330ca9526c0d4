package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherStopsOnPermanentError(t *testing.T) {
	d := NewDispatcher(Options{MaxRetries: 5, RetryBackoff: time.Millisecond})

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherKeepsOrderWithOneWorker(t *testing.T) {
	d := NewDispatcher(Options{})

	var got []int
	for i := range 20 {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "", func() error {
			got = append(got, i)
			return nil
		}))
	}
	d.Close()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "send.text", "", nil))
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "queued", "", func() error { return nil }))
	err := d.Enqueue(context.Background(), "overflow", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	d.Close()
}

func TestSanitizeAndClassify(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`)
	msg := sanitizeErrorMessage(err)
	assert.NotContains(t, msg, "AA-bb_CC")
	assert.Contains(t, msg, "bot<redacted>")

	assert.Equal(t, "flood", classifyError(tele.FloodError{RetryAfter: 1}))
	assert.Equal(t, "http_4xx", classifyError(&tele.Error{Code: 400}))
	assert.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
}
