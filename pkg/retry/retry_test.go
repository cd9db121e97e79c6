package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	errs "fbexport/pkg/errors"
	"fbexport/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeErr struct{ code errs.Code }

func (e codeErr) Error() string        { return e.code.String() }
func (e codeErr) ResultCode() errs.Code { return e.code }

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewNopLogger(),
	}
}

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Delay: 2 * time.Second}
	assert.Equal(t, time.Duration(0), b.NextDelay(0))
	assert.Equal(t, 2*time.Second, b.NextDelay(1))
	assert.Equal(t, 2*time.Second, b.NextDelay(3))
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, fastConfig(4))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	var retried []int
	cfg := fastConfig(4)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(func() error {
		attempts++
		return codeErr{errs.Failed}
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []int{1, 2, 3}, retried)

	var ce codeErr
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, errs.Failed, ce.code)
}

func TestDoDoesNotRetryFatalCodes(t *testing.T) {
	for _, code := range []errs.Code{errs.InvalidToken, errs.QuotaExceeded, errs.NoData} {
		t.Run(code.String(), func(t *testing.T) {
			attempts := 0
			err := Do(func() error {
				attempts++
				return fmt.Errorf("wrapped: %w", codeErr{code})
			}, fastConfig(4))

			require.Error(t, err)
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeNetwork}))
	assert.False(t, DefaultRetryIf(&errs.Error{Type: errs.ErrorTypeAuth}))
	assert.True(t, DefaultRetryIf(errors.New("unknown")))
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		Context:     ctx,
	}

	attempts := 0
	cancel()
	err := Do(func() error {
		attempts++
		return errors.New("still failing")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("first call fails")
		}
		return "page", nil
	}, fastConfig(2))

	require.NoError(t, err)
	assert.Equal(t, "page", got)
}
