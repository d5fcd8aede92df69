package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesRetryableFailure(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	errBusy := errors.New("busy")
	err := exec.Execute(context.Background(), "localfs.save", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errBusy
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errBusy), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	errDenied := errors.New("permission denied")
	err := exec.Execute(context.Background(), "localfs.save", func(context.Context) error {
		attempts++
		return errDenied
	}, nil)
	if !errors.Is(err, errDenied) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteReturnsLastErrorWhenAttemptsExhausted(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		attempts++
		return errors.New("timeout")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err == nil || err.Error() != "timeout" {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = 50 * time.Millisecond
	cfg.BreakerHalfOpenMaxCalls = 1
	exec := NewExecutor(cfg)

	errWrite := errors.New("write failed")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "localfs.save", func(context.Context) error {
			return errWrite
		}, nil)
		if !errors.Is(err, errWrite) {
			t.Fatalf("expected write error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "localfs.save", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}

	// Breakers are per operation.
	if err := exec.Execute(context.Background(), "localfs.prepare", func(context.Context) error { return nil }, nil); err != nil {
		t.Fatalf("expected independent breaker for other operation, got %v", err)
	}
}

func TestExecuteHonoursCanceledContext(t *testing.T) {
	exec := NewExecutor(fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "op", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if called {
		t.Fatalf("operation must not run with canceled context")
	}
}

func TestNormalizeAndBackoff(t *testing.T) {
	cfg := Config{RetryInitialBackoff: 10 * time.Millisecond, RetryMaxBackoff: 5 * time.Millisecond, RetryMultiplier: 0.5}.normalize()
	if cfg.RetryMaxAttempts != DefaultConfig().RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != 10*time.Millisecond {
		t.Fatalf("expected max backoff raised to initial, got %s", cfg.RetryMaxBackoff)
	}
	if cfg.RetryMultiplier != DefaultConfig().RetryMultiplier {
		t.Fatalf("expected default multiplier, got %v", cfg.RetryMultiplier)
	}

	cfg = Config{RetryInitialBackoff: 10 * time.Millisecond, RetryMaxBackoff: 35 * time.Millisecond, RetryMultiplier: 2}.normalize()
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 35 * time.Millisecond, 35 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoffAt(i + 1); got != w {
			t.Fatalf("retry %d: expected %s, got %s", i+1, w, got)
		}
	}
}
