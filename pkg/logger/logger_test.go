package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fbexport/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "fbexport.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestWithFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	zlog := zerolog.New(&buf)
	base := &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}

	child := base.WithField("endpoint", "feed").WithFields(map[string]interface{}{
		"page":    2,
		"elapsed": 150 * time.Millisecond,
	})
	child.Info("page merged")

	out := buf.String()
	assert.Contains(t, out, `"endpoint":"feed"`)
	assert.Contains(t, out, `"page":2`)
	assert.Contains(t, out, "page merged")

	buf.Reset()
	base.Info("parent untouched")
	assert.NotContains(t, buf.String(), "endpoint")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	zlog := zerolog.New(&buf)
	l := &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}

	l.WithError(errors.New("boom")).Error("fetch failed")
	assert.Contains(t, buf.String(), `"error":"boom"`)

	assert.Same(t, l, l.WithError(nil))
}

func TestRedactToken(t *testing.T) {
	got := RedactToken("https://graph.facebook.com/me/feed?access_token=secret&limit=25")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "access_token=REDACTED")
	assert.Contains(t, got, "limit=25")

	plain := "https://graph.facebook.com/me"
	assert.Equal(t, plain, RedactToken(plain))
}

func TestTestLoggerCapturesChildren(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("endpoint", "links").WithError(errors.New("timeout"))
	child.WarnWithFields("page retry", map[string]interface{}{"attempt": 1})
	tl.Debug("plain")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "links", msgs[0].Fields["endpoint"])
	assert.Equal(t, 1, msgs[0].Fields["attempt"])
	assert.EqualError(t, msgs[0].Error, "timeout")
	assert.True(t, tl.HasMessage("plain"))
	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}
