package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	time.Sleep(250 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)
	tb.Allow()

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Wait() returned too early: %v", elapsed)
	}
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}

func TestPerMinute(t *testing.T) {
	if PerMinute(0, StrategySlidingWindow) != nil {
		t.Error("Expected nil limiter for zero rate")
	}
	if _, ok := PerMinute(30, "").(*TokenBucket); !ok {
		t.Error("Expected token bucket by default")
	}
	if _, ok := PerMinute(30, StrategyTokenBucket).(*TokenBucket); !ok {
		t.Error("Expected token bucket for token_bucket strategy")
	}

	sw, ok := PerMinute(2, StrategySlidingWindow).(*SlidingWindow)
	if !ok {
		t.Fatal("Expected sliding window for sliding_window strategy")
	}
	if sw.windowSize != time.Minute || sw.maxRequests != 2 {
		t.Errorf("Unexpected window: %v / %d", sw.windowSize, sw.maxRequests)
	}
	if !sw.Allow() || !sw.Allow() || sw.Allow() {
		t.Error("Expected exactly two requests per window")
	}
}
