// Package teleconsult provisions video rooms for appointments. Room
// identity is keyed by appointment id, so repeated start requests converge
// on the same link.
package teleconsult

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/curaflow/appointment-platform/pkg/logging"
)

// RoomProvider creates or retrieves the video room for an appointment.
// Implementations must be idempotent per appointment id.
type RoomProvider interface {
	CreateOrGetRoom(ctx context.Context, appointmentID uuid.UUID) (string, error)
}

// RedisRoomStore caches appointment→room-link so repeat start requests skip
// the provider round trip. Entries expire; the provider remains the source
// of truth.
type RedisRoomStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisRoomStore creates a room-link cache. A non-positive ttl defaults
// to 24 hours.
func NewRedisRoomStore(client *redis.Client, ttl time.Duration) *RedisRoomStore {
	if client == nil {
		panic("teleconsult: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRoomStore{redis: client, ttl: ttl}
}

// Get returns the cached link for the appointment, or "" on a miss.
func (s *RedisRoomStore) Get(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	link, err := s.redis.Get(ctx, s.key(appointmentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("teleconsult: load room link: %w", err)
	}
	return link, nil
}

// Put caches the link for the appointment under the store TTL.
func (s *RedisRoomStore) Put(ctx context.Context, appointmentID uuid.UUID, link string) error {
	if err := s.redis.Set(ctx, s.key(appointmentID), link, s.ttl).Err(); err != nil {
		return fmt.Errorf("teleconsult: cache room link: %w", err)
	}
	return nil
}

func (s *RedisRoomStore) key(appointmentID uuid.UUID) string {
	return "teleconsult:room:" + appointmentID.String()
}

// CachingProvider fronts a RoomProvider with the Redis link cache.
type CachingProvider struct {
	store  *RedisRoomStore
	next   RoomProvider
	logger *logging.Logger
}

// NewCachingProvider wraps next with the cache. Cache failures degrade to
// provider calls rather than failing the start request.
func NewCachingProvider(store *RedisRoomStore, next RoomProvider, logger *logging.Logger) *CachingProvider {
	if store == nil {
		panic("teleconsult: room store required")
	}
	if next == nil {
		panic("teleconsult: room provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachingProvider{store: store, next: next, logger: logger}
}

// CreateOrGetRoom returns the cached link when present, otherwise asks the
// underlying provider and caches the result.
func (p *CachingProvider) CreateOrGetRoom(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	link, err := p.store.Get(ctx, appointmentID)
	if err != nil {
		p.logger.Warn("room link cache read failed", "appointment_id", appointmentID, "error", err)
	}
	if link != "" {
		return link, nil
	}

	link, err = p.next.CreateOrGetRoom(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	if err := p.store.Put(ctx, appointmentID, link); err != nil {
		p.logger.Warn("room link cache write failed", "appointment_id", appointmentID, "error", err)
	}
	return link, nil
}
