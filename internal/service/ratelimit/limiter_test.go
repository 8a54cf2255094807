package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New(3, 0.001)

	for i := 0; i < 3; i++ {
		if !l.Allow("binance") {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("binance") {
		t.Fatal("bucket should be empty")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, 0.001)

	if !l.Allow("a") {
		t.Fatal("first key should be allowed")
	}
	if !l.Allow("b") {
		t.Fatal("second key has its own bucket")
	}
	if l.Allow("a") {
		t.Fatal("first key should be drained")
	}
}

func TestRefill(t *testing.T) {
	l := New(1, 50)

	if !l.Allow("k") {
		t.Fatal("first call should pass")
	}
	if l.Allow("k") {
		t.Fatal("bucket drained")
	}

	time.Sleep(40 * time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("bucket should have refilled")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(1, 0.001)
	_ = l.Allow("k")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "k"); err == nil {
		t.Fatal("expected context deadline error")
	}
}
