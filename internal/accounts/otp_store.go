package accounts

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OTPStore keeps one-time passwords in Redis with an explicit TTL. It
// replaces the process-global OTP map the platform used to carry: codes
// now survive restarts, expire on their own, and are shared across
// instances.
type OTPStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewOTPStore creates an OTP store. A non-positive ttl defaults to 5 minutes.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if client == nil {
		panic("accounts: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OTPStore{redis: client, ttl: ttl}
}

// Issue generates a six-digit code for the account and stores it under the
// configured TTL, replacing any outstanding code.
func (s *OTPStore) Issue(ctx context.Context, accountID uuid.UUID) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("accounts: generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.redis.Set(ctx, s.key(accountID), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("accounts: store otp: %w", err)
	}
	return code, nil
}

// Verify consumes the account's outstanding code. It returns true only when
// a non-expired code exists and matches; the code is deleted either way so
// a guessed-wrong attempt invalidates it.
func (s *OTPStore) Verify(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	stored, err := s.redis.GetDel(ctx, s.key(accountID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("accounts: load otp: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

func (s *OTPStore) key(accountID uuid.UUID) string {
	return "otp:" + accountID.String()
}
