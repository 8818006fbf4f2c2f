package redisx

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

func TestNewWithoutAddr(t *testing.T) {
	if _, err := New(context.Background(), logger.NewNop(), Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLockExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	ctx := context.Background()
	c, err := New(ctx, logger.NewNop(), Config{Addr: addr, Prefix: "aindependent-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	release, ok, err := c.Lock(ctx, "user-1", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("first Lock: ok=%v err=%v", ok, err)
	}
	if _, ok, err := c.Lock(ctx, "user-1", 5*time.Second); err != nil || ok {
		t.Fatalf("second Lock should fail: ok=%v err=%v", ok, err)
	}
	release()
	release()
	again, ok, err := c.Lock(ctx, "user-1", 5*time.Second)
	if err != nil || !ok {
		t.Fatalf("Lock after release: ok=%v err=%v", ok, err)
	}
	again()
}
