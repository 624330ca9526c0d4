package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: format,
	})
	return slog.New(handler), aw, buf
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "service.santa"), slog.LevelInfo, "registration.complete",
		slog.String("status", "ok"),
		slog.String("external_id", "vk777"),
	)

	line := drain(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=service.santa", "event=registration.complete", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.Truef(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
	assert.Contains(t, line, "external_id=vk777")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatJSON)
	ctx := WithRID(Background(), "rid-json")

	LogEvent(ctx, log.With("component", "db"), slog.LevelError, "db.query",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"db"`, `"event":"db.query"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.Truef(t, idx > pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	raw := BuildRID(123, 456, 789)

	kv, aw, buf := newTestLogger(t, formatKV)
	LogEvent(WithRID(Background(), raw), kv, slog.LevelInfo, "rid.test")
	line := drain(t, aw, buf)
	assert.Contains(t, line, "rid="+CompactRID(raw))
	assert.NotContains(t, line, "rid_full=")

	js, aw, buf := newTestLogger(t, formatJSON)
	LogEvent(WithRID(Background(), raw), js, slog.LevelInfo, "rid.test")
	line = drain(t, aw, buf)
	assert.Contains(t, line, `"rid":"`+CompactRID(raw)+`"`)
	assert.Contains(t, line, `"rid_full":"`+raw+`"`)
	assert.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationAndLevel(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	LogEvent(Background(), log, slog.LevelDebug, "hidden")
	LogEvent(Background(), log, slog.LevelInfo, "migrations.summary",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("outcome", "bogus"),
	)
	line := drain(t, aw, buf)
	assert.NotContains(t, line, "hidden")
	assert.Contains(t, line, "duration_ms=2")
	assert.NotContains(t, line, "outcome=")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID("123:456:789"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "при", SanitizeLimit("привет", 3))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	n, d := parseRatioSpec("2/5")
	assert.Equal(t, [2]int{2, 5}, [2]int{n, d})
	n, d = parseRatioSpec("10")
	assert.Equal(t, [2]int{1, 10}, [2]int{n, d})
}

func TestAsyncWriterAfterClose(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	log.Info("before")
	out := drain(t, aw, buf)
	assert.Contains(t, out, "event=before")

	assert.NotPanics(t, func() { log.Info("after") })
	assert.ErrorIs(t, aw.Write([]byte("x\n")), errWriterClosed)
	assert.NoError(t, aw.Close())
}
