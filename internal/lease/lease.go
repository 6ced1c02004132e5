package lease

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrHeld is returned when another publisher currently owns the lease.
var ErrHeld = errors.New("lease already held")

// Locker serializes writers on a shared key. The publish coordinator
// uses it to make same-date publishes mutually exclusive; without it
// concurrent publishers still converge through the staged protocol, but
// the winner is undefined.
type Locker interface {
	// Acquire takes the lease and returns a release func. Release is
	// best-effort; an expired lease releases itself.
	Acquire(ctx context.Context, key string) (func(), error)
}

// releaseScript deletes the lease only while we still own it, so a
// slow publisher cannot release a successor's lease after expiry.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisLocker creates a Locker holding leases in redis with an owner
// token and expiry.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "lease").Logger(),
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	leaseKey := "lease:" + key

	ok, err := l.client.SetNX(ctx, leaseKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{leaseKey}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("Failed to release lease")
		}
	}
	return release, nil
}

// NopLocker is used when redis is not configured.
type NopLocker struct{}

// Acquire always succeeds.
func (NopLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
