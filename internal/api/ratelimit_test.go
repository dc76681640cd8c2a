package api

import (
	"testing"

	"github.com/rawblock/sieve/internal/config"
)

func TestRateLimiter_ZeroRateDisablesLimiting(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0, Burst: 1})
	for i := 0; i < 100; i++ {
		allowed, _ := rl.allow("1.2.3.4")
		if !allowed {
			t.Fatalf("expected a zero rate to allow every request unconditionally, failed on request %d", i)
		}
	}
}

func TestRateLimiter_ExhaustsBurstThenThrottles(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	first, _ := rl.allow("1.2.3.4")
	second, _ := rl.allow("1.2.3.4")
	third, retryAfter := rl.allow("1.2.3.4")

	if !first || !second {
		t.Fatalf("expected the first two requests within burst to be allowed, got %v, %v", first, second)
	}
	if third {
		t.Fatalf("expected the third request to exceed the burst of 2 and be throttled")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected a positive retry-after when throttled, got %v", retryAfter)
	}
}

func TestRateLimiter_TracksBucketsPerIPIndependently(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	a1, _ := rl.allow("1.1.1.1")
	a2, _ := rl.allow("1.1.1.1")
	b1, _ := rl.allow("2.2.2.2")

	if !a1 {
		t.Fatalf("expected the first request from 1.1.1.1 to be allowed")
	}
	if a2 {
		t.Fatalf("expected the second immediate request from 1.1.1.1 to be throttled")
	}
	if !b1 {
		t.Fatalf("expected a different IP to have its own untouched bucket")
	}
}
