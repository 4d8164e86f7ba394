package teleconsult

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/curaflow/appointment-platform/pkg/logging"
)

type countingProvider struct {
	calls int
	link  string
	err   error
}

func (p *countingProvider) CreateOrGetRoom(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	p.calls++
	return p.link, p.err
}

func newTestRoomStore(t *testing.T, ttl time.Duration) (*RedisRoomStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRoomStore(client, ttl), mr
}

func TestCachingProviderReturnsSameLink(t *testing.T) {
	store, _ := newTestRoomStore(t, time.Hour)
	upstream := &countingProvider{link: "https://video.example.com/RM1"}
	provider := NewCachingProvider(store, upstream, logging.Default())
	ctx := context.Background()
	appointmentID := uuid.New()

	first, err := provider.CreateOrGetRoom(ctx, appointmentID)
	if err != nil {
		t.Fatalf("first CreateOrGetRoom: %v", err)
	}
	second, err := provider.CreateOrGetRoom(ctx, appointmentID)
	if err != nil {
		t.Fatalf("second CreateOrGetRoom: %v", err)
	}

	if first != second {
		t.Errorf("expected identical links, got %q and %q", first, second)
	}
	if upstream.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", upstream.calls)
	}
}

func TestCachingProviderExpiryFallsThrough(t *testing.T) {
	store, mr := newTestRoomStore(t, time.Hour)
	upstream := &countingProvider{link: "https://video.example.com/RM1"}
	provider := NewCachingProvider(store, upstream, logging.Default())
	ctx := context.Background()
	appointmentID := uuid.New()

	if _, err := provider.CreateOrGetRoom(ctx, appointmentID); err != nil {
		t.Fatalf("CreateOrGetRoom: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, err := provider.CreateOrGetRoom(ctx, appointmentID); err != nil {
		t.Fatalf("CreateOrGetRoom after expiry: %v", err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected provider to be asked again after expiry, got %d calls", upstream.calls)
	}
}

func TestCachingProviderDistinctAppointments(t *testing.T) {
	store, _ := newTestRoomStore(t, time.Hour)
	upstream := &countingProvider{link: "https://video.example.com/RM1"}
	provider := NewCachingProvider(store, upstream, logging.Default())
	ctx := context.Background()

	if _, err := provider.CreateOrGetRoom(ctx, uuid.New()); err != nil {
		t.Fatalf("CreateOrGetRoom: %v", err)
	}
	if _, err := provider.CreateOrGetRoom(ctx, uuid.New()); err != nil {
		t.Fatalf("CreateOrGetRoom: %v", err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected one upstream call per appointment, got %d", upstream.calls)
	}
}
