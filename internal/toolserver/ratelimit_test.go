package toolserver

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("caller-a") {
			t.Fatalf("call %d should have been allowed", i)
		}
	}
	if rl.Allow("caller-a") {
		t.Error("4th call within the window should have been blocked")
	}
}

func TestRateLimiterTracksCallersIndependently(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	if !rl.Allow("caller-a") {
		t.Fatal("caller-a's first call should be allowed")
	}
	if !rl.Allow("caller-b") {
		t.Error("caller-b should have its own independent budget")
	}
	if rl.Allow("caller-a") {
		t.Error("caller-a's second call should be blocked")
	}
}
