package logger

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a Graph API round trip. The access token is masked
// before the URL reaches any sink.
func LogRequest(l Logger, method, rawURL string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         RedactToken(rawURL),
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.DebugWithFields("HTTP request finished", fields)
	}
}

// LogEndpointDone logs how one endpoint's crawl ended
func LogEndpointDone(l Logger, endpoint string, pages, merged int, code fmt.Stringer) {
	l.InfoWithFields("Endpoint crawl finished", map[string]interface{}{
		"endpoint": endpoint,
		"pages":    pages,
		"merged":   merged,
		"result":   code.String(),
	})
}

// RedactToken replaces the access_token query value of a URL
func RedactToken(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		return rawURL
	}
	q.Set("access_token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
