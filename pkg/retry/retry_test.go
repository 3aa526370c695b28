package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		AddJitter:    false, // Disable for predictable tests
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryable(t *testing.T) {
	base := errors.New("bad input")
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		attempts++
		return NonRetryable(base)
	})

	assert.True(t, IsNonRetryable(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, NonRetryable(nil))
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = 100 * time.Millisecond
	cfg.MaxDelay = time.Second

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		return errors.New("error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, attempts, 5)
}

func TestRetry_DoNotify(t *testing.T) {
	type call struct {
		attempt int
		wait    time.Duration
	}
	var calls []call

	attempts := 0
	err := DoNotify(context.Background(), fastConfig(4), func() error {
		attempts++
		return errors.New("dial failed")
	}, func(attempt int, err error, wait time.Duration) {
		require.Error(t, err)
		calls = append(calls, call{attempt, wait})
	})

	assert.Error(t, err)
	assert.Equal(t, 4, attempts)
	// no notification after the final attempt
	require.Len(t, calls, 3)
	assert.Equal(t, call{1, 10 * time.Millisecond}, calls[0])
	assert.Equal(t, call{2, 20 * time.Millisecond}, calls[1])
	assert.Equal(t, call{3, 40 * time.Millisecond}, calls[2])
}

func TestRetry_BackoffTiming(t *testing.T) {
	start := time.Now()
	attempts := 0

	_ = Do(context.Background(), fastConfig(4), func() error {
		attempts++
		return errors.New("error")
	})

	elapsed := time.Since(start)

	// 10ms + 20ms + 40ms
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, 4, attempts)
}

func TestDelay(t *testing.T) {
	cfg := Config{
		MaxAttempts:  10,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     25 * time.Millisecond,
		Multiplier:   10.0,
	}

	assert.Equal(t, 10*time.Millisecond, Delay(cfg, 0))
	assert.Equal(t, 10*time.Millisecond, Delay(cfg, 1))
	assert.Equal(t, 25*time.Millisecond, Delay(cfg, 2))
	assert.Equal(t, 25*time.Millisecond, Delay(cfg, 9))
}

func TestRetry_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative initial delay", Config{InitialDelay: -1}},
		{"negative max delay", Config{MaxDelay: -1}},
		{"negative multiplier", Config{Multiplier: -1}},
		{"max below initial", Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			err := Do(context.Background(), tt.cfg, func() error {
				called = true
				return nil
			})
			assert.Error(t, err)
			assert.False(t, called)
		})
	}
}

func TestRetry_Presets(t *testing.T) {
	rc := Reconnect()
	assert.Equal(t, 10, rc.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, 5*time.Second, rc.MaxDelay)

	q := Quick()
	assert.Equal(t, 3, q.MaxAttempts)
	assert.LessOrEqual(t, q.MaxDelay, time.Second)
}

func TestRetry_ZeroAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func BenchmarkRetry_Success(b *testing.B) {
	ctx := context.Background()
	cfg := Config{MaxAttempts: 1}
	for i := 0; i < b.N; i++ {
		_ = Do(ctx, cfg, func() error { return nil })
	}
}
