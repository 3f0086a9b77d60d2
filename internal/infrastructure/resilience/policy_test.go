package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOperationPolicyOverridesRetryBudget(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
		Operations: map[string]Policy{
			OpPublish: {MaxAttempts: 4},
		},
	})
	errTemp := errors.New("temporary")
	retryAll := func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	calls := map[string]int{}
	for _, op := range []string{OpPublish, OpSaveRun} {
		op := op
		_ = exec.Execute(context.Background(), op, func(context.Context) error {
			calls[op]++
			return errTemp
		}, retryAll)
	}

	if calls[OpPublish] != 4 {
		t.Fatalf("expected 4 publish attempts, got %d", calls[OpPublish])
	}
	if calls[OpSaveRun] != 2 {
		t.Fatalf("expected shared budget of 2 for save, got %d", calls[OpSaveRun])
	}
}

func TestSkipBreakerLeavesOperationUntracked(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   true,
		Operations: map[string]Policy{
			OpGetRun: {SkipBreaker: true},
		},
	})
	_ = exec.Execute(context.Background(), OpGetRun, func(context.Context) error { return nil }, nil)
	_ = exec.Execute(context.Background(), OpSaveRun, func(context.Context) error { return nil }, nil)

	states := exec.States()
	if _, ok := states[OpGetRun]; ok {
		t.Fatalf("expected no breaker for %s, got %v", OpGetRun, states)
	}
	if states[OpSaveRun] != "closed" {
		t.Fatalf("expected closed breaker for %s, got %v", OpSaveRun, states)
	}
}

func TestNormalizeKeepsOperationPolicies(t *testing.T) {
	cfg := Config{Operations: map[string]Policy{OpPublish: {MaxAttempts: -3}}}.normalize()
	if cfg.attempts(OpPublish) != DefaultConfig().RetryMaxAttempts {
		t.Fatalf("negative override falls back to the shared budget, got %d", cfg.attempts(OpPublish))
	}
	if DefaultConfig().normalize().attempts(OpPublish) != 5 {
		t.Fatalf("expected default publish budget of 5")
	}
}
