package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/UB-CSE-IT/Autolab-Self-Service/pkg/errors"
)

const lockPrefix = "lock:"

// Deletes the key only if it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Unlock releases a lock obtained from AcquireLock.
type Unlock func(ctx context.Context) error

// AcquireLock takes key for ttl. It returns pkgerrors.ErrLockNotAcquired when
// another holder owns it.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.ErrLockNotAcquired
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Err()
	}, nil
}
