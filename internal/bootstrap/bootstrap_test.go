package bootstrap

import (
	"testing"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/resilience"
)

func TestResilienceConfigMapsEnvironment(t *testing.T) {
	t.Setenv("RESILIENCE_MAX_ATTEMPTS", "4")
	t.Setenv("RESILIENCE_PUBLISH_MAX_ATTEMPTS", "7")
	t.Setenv("RESILIENCE_INITIAL_BACKOFF_MS", "20")
	t.Setenv("RESILIENCE_MAX_BACKOFF_MS", "80")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")
	t.Setenv("RESILIENCE_BREAKER_MIN_REQUESTS", "3")
	t.Setenv("RESILIENCE_BREAKER_FAILURE_RATIO", "0.25")
	t.Setenv("RESILIENCE_BREAKER_OPEN_SECONDS", "5")

	got := resilienceConfig(config.Load())
	if got.RetryMaxAttempts != 4 || got.Operations[resilience.OpPublish].MaxAttempts != 7 {
		t.Fatalf("unexpected retry budgets: %+v", got)
	}
	if got.RetryInitialBackoff != 20*time.Millisecond || got.RetryMaxBackoff != 80*time.Millisecond {
		t.Fatalf("unexpected backoff: %v..%v", got.RetryInitialBackoff, got.RetryMaxBackoff)
	}
	if got.BreakerEnabled || got.BreakerMinRequests != 3 || got.BreakerFailureRatio != 0.25 || got.BreakerOpenTimeout != 5*time.Second {
		t.Fatalf("unexpected breaker settings: %+v", got)
	}
	if got.Operations[resilience.OpGetRun].MaxAttempts != 2 {
		t.Fatalf("lookup policy should keep its default")
	}
}

func TestResilienceConfigDefaults(t *testing.T) {
	got := resilienceConfig(config.Config{ResilienceBreakerEnabled: true})
	def := resilience.DefaultConfig()
	if got.RetryMaxAttempts != def.RetryMaxAttempts || got.BreakerOpenTimeout != def.BreakerOpenTimeout || !got.BreakerEnabled {
		t.Fatalf("zero settings must keep defaults: %+v", got)
	}
}
