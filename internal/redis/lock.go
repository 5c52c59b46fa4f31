package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("slot lock not acquired")
)

// Locker serializes the conflict-check-then-insert window of one bookable
// slot across concurrent booking requests.
type Locker interface {
	WithSlotLock(ctx context.Context, salonID uuid.UUID, professionalID *uuid.UUID, minute time.Time, fn func(ctx context.Context) error) error
}

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlotLocker creates a locker that uses a per slot Redis key
func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisSlotLocker{
		client: client,
		ttl:    ttl,
	}
}

// slotKey identifies a slot by tenant, staff member and wall-clock minute.
// Unassigned ("any") bookings share one key per salon and minute.
func slotKey(salonID uuid.UUID, professionalID *uuid.UUID, minute time.Time) string {
	prof := "any"
	if professionalID != nil {
		prof = professionalID.String()
	}
	return fmt.Sprintf("lock:slot:%s:%s:%s", salonID, prof, minute.Truncate(time.Minute).Format("200601021504"))
}

func (l *redisSlotLocker) WithSlotLock(ctx context.Context, salonID uuid.UUID, professionalID *uuid.UUID, minute time.Time, fn func(ctx context.Context) error) error {
	key := slotKey(salonID, professionalID, minute)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisSlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}
