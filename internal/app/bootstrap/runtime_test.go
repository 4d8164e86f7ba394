package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/curaflow/appointment-platform/internal/config"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: ""}
	if client := BuildRedisClient(context.Background(), cfg, logging.Default(), false); client != nil {
		t.Fatal("expected nil client when redis is disabled")
	}
}

func TestBuildRedisClientVerify(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.Default(), true)
	if client == nil {
		t.Fatal("expected client for reachable redis")
	}
	defer client.Close()

	cfg = &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	if client := BuildRedisClient(context.Background(), cfg, logging.Default(), true); client != nil {
		t.Fatal("expected nil client for unreachable redis")
	}
}

func TestBuildComposer(t *testing.T) {
	cfg := &appconfig.Config{SchedulingTimezone: "America/New_York"}
	composer := BuildComposer(cfg, logging.Default())
	if composer.Location().String() != "America/New_York" {
		t.Fatalf("expected configured timezone, got %s", composer.Location())
	}

	cfg = &appconfig.Config{SchedulingTimezone: "Mars/Olympus"}
	composer = BuildComposer(cfg, logging.Default())
	if composer.Location() != time.UTC {
		t.Fatalf("expected UTC fallback, got %s", composer.Location())
	}
}
