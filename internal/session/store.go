package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrNoCheckout = errors.New("no checkout in progress")

const (
	DefaultTTL = 30 * time.Minute
	keyPrefix  = "checkout:"
)

// Checkout is the payment a user still owes for a pending registration.
type Checkout struct {
	RegistrationID int64           `json:"registration_id"`
	EventID        int64           `json:"event_id"`
	EventTitle     string          `json:"event_title"`
	ContactEmail   string          `json:"contact_email"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Store keeps at most one checkout per user in Redis.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func Key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Put replaces whatever checkout the user had before.
func (s *Store) Put(ctx context.Context, userID int64, c Checkout) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode checkout: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID int64) (*Checkout, error) {
	data, err := s.rdb.Get(ctx, Key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCheckout
		}
		return nil, fmt.Errorf("failed to load checkout: %w", err)
	}

	var c Checkout
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode checkout: %w", err)
	}
	return &c, nil
}

func (s *Store) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete checkout: %w", err)
	}
	return nil
}
