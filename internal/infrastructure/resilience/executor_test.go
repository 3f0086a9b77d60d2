package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestDefaultClassifierUsesDomainKinds(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	err := exec.Execute(context.Background(), "persist", func(context.Context) error {
		attempts++
		return domain.WrapError(domain.ErrTemporary, "persist", errors.New("connection reset"))
	}, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	attempts = 0
	err = exec.Execute(context.Background(), "persist", func(context.Context) error {
		attempts++
		return domain.WrapError(domain.ErrInvalidInput, "persist", errors.New("bad run"))
	}, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) || attempts != 1 {
		t.Fatalf("invalid input must not be retried: attempts=%d err=%v", attempts, err)
	}
}

func TestStatesReportsBreakers(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 1, BreakerEnabled: true})
	_ = exec.Execute(context.Background(), "nats.publish", func(context.Context) error { return nil }, nil)

	states := exec.States()
	if states["nats.publish"] != "closed" {
		t.Fatalf("expected closed breaker, got %v", states)
	}
}
