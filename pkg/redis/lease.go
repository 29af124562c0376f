package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds this owner's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is an exclusive, expiring claim on a key.
type Lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// AcquireLease claims key for ttl. Returns ErrLeaseHeld if another owner holds it.
func AcquireLease(ctx context.Context, client redis.UniversalClient, key string, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()

	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseHeld
	}

	return &Lease{client: client, key: key, token: token}, nil
}

// Release gives the lease up. Returns ErrLeaseLost if it had already expired
// or been acquired by someone else, in which case nothing is deleted.
func (l *Lease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
