package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/m3rciful/santabot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultClientTimeout     = 60 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryInterval     = 500 * time.Millisecond
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// The client timeout must exceed the long poll timeout.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: defaultClientTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: defaultRetryAttempts,
			interval:   defaultRetryInterval,
		},
	}
}

// retryTransport retries requests that failed before a response arrived.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	interval   time.Duration
}

func (t *retryTransport) policy(req *http.Request) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.interval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(t.maxRetries, 0))), req.Context())
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		curr := req
		if attempt > 1 {
			curr = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, backoff.Permanent(err)
				}
				curr.Body = body
			}
		}

		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		// a consumed body without GetBody cannot be replayed
		if !netutil.ShouldRetry(err) || (req.Body != nil && req.GetBody == nil) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return backoff.RetryWithData(op, t.policy(req))
}
