package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"livequiz-service/internal/domain"
)

func TestCodeIndexReserveIsFirstWriterWins(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	idx := NewCodeIndex(newClient(mr), time.Hour)
	ctx := context.Background()

	ok, err := idx.Reserve(ctx, "abc123", "sess-1")
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	ok, err = idx.Reserve(ctx, "abc123", "sess-2")
	if err != nil || ok {
		t.Fatalf("second reserve must lose: ok=%v err=%v", ok, err)
	}

	id, err := idx.Resolve(ctx, "abc123")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "sess-1" {
		t.Fatalf("code must stay bound to the first session, got %q", id)
	}
}

func TestCodeIndexReleaseAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	idx := NewCodeIndex(newClient(mr), time.Hour)
	ctx := context.Background()

	if _, err := idx.Reserve(ctx, "abc123", "sess-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := idx.Release(ctx, "abc123"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := idx.Resolve(ctx, "abc123"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after release, got %v", err)
	}

	// Releasing an unknown code is a no-op.
	if err := idx.Release(ctx, "zzzzzz"); err != nil {
		t.Fatalf("release unknown: %v", err)
	}

	if _, err := idx.Reserve(ctx, "def456", "sess-2"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := idx.Resolve(ctx, "def456"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected expiry to free the code, got %v", err)
	}
}
