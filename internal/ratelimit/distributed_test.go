package ratelimit

import (
	"context"
	"testing"
)

func TestLocalLimiterAdapterDelegatesToBucket(t *testing.T) {
	t.Parallel()
	bucket := NewTokenBucket(1, 1)
	adapter := NewLocalLimiterAdapter(bucket)

	ok, err := adapter.TryAcquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, err = adapter.TryAcquire(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second acquire to fail with bucket exhausted")
	}
}
