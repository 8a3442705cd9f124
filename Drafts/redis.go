package Drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ShiftAudit/Checklist"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "shiftaudit"
	submitLease = 30 * time.Second
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis keeps each draft as a hash of question id to JSON entry, so saving
// an answer is a single HSET. The hash expires after the TTL of inactivity.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to the server at url (redis://host:port/db).
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisClient(redis.NewClient(opts), ttl), nil
}

func NewRedisClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func draftKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:draft:%s", keyPrefix, sessionID)
}

func lockKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:submit:%s", keyPrefix, sessionID)
}

func (r *Redis) Load(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]Checklist.Entry, error) {
	hash, err := r.rdb.HGetAll(ctx, draftKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	out := make(map[uuid.UUID]Checklist.Entry, len(hash))
	for field, raw := range hash {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var e Checklist.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to decode draft entry %s: %w", field, err)
		}
		out[id] = e
	}
	return out, nil
}

func (r *Redis) Save(ctx context.Context, sessionID, questionID uuid.UUID, e Checklist.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := draftKey(sessionID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, questionID.String(), raw)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.rdb.Del(ctx, draftKey(sessionID)).Err()
}

// AcquireSubmitLock takes a lease on the session with SET NX. The lease
// expires on its own if the holder dies before releasing it.
func (r *Redis) AcquireSubmitLock(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	key := lockKey(sessionID)
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, key, token, submitLease).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	if !ok {
		return nil, Checklist.ErrSubmissionInFlight
	}

	return func() {
		// The request context may already be cancelled here.
		_ = releaseScript.Run(context.Background(), r.rdb, []string{key}, token).Err()
	}, nil
}
