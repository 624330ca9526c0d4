package netutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("boom")))

	assert.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}))
	assert.True(t, ShouldRetry(tele.FloodError{RetryAfter: 3}))

	assert.True(t, ShouldRetry(&tele.Error{Code: 502, Description: "Bad Gateway"}))
	assert.False(t, ShouldRetry(&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, RetryAfter(tele.FloodError{RetryAfter: 3}))
	assert.Zero(t, RetryAfter(errors.New("boom")))
}
