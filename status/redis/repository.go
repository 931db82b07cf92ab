package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/relay"
	"github.com/tuikaDLC/Kincord/status"
)

/* Redis implementation of status.Store
 * Heartbeats are JSON strings with a TTL; relay result counters live in a
 * single hash shared by every instance.
 */

const (
	heartbeatPrefix = "kincord:listener" // kincord:listener:{instance_id}
	resultsKey      = "kincord:results"  // hash: relay status -> count
	recordTimeout   = 2 * time.Second
)

// ErrNotFound is returned when a heartbeat has expired or never existed.
var ErrNotFound = errors.New("heartbeat not found")

type Repository struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
		log:    zerolog.Nop(),
	}, nil
}

// SetLogger sets the logger used for background writes.
func (r *Repository) SetLogger(log zerolog.Logger) {
	r.log = log
}

func heartbeatKey(instanceID string) string {
	return fmt.Sprintf("%s:%s", heartbeatPrefix, instanceID)
}

// SetHeartbeat stores or refreshes an instance heartbeat. If the instance
// stops refreshing it, the key expires after ttl.
func (r *Repository) SetHeartbeat(ctx context.Context, hb status.Heartbeat, ttl time.Duration) error {
	data, err := json.Marshal(hb)
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}

	if err := r.client.Set(ctx, heartbeatKey(hb.InstanceID), data, ttl).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}

	return nil
}

// GetHeartbeat retrieves one instance's heartbeat
func (r *Repository) GetHeartbeat(ctx context.Context, instanceID string) (status.Heartbeat, error) {
	data, err := r.client.Get(ctx, heartbeatKey(instanceID)).Result()
	if err == redis.Nil {
		return status.Heartbeat{}, ErrNotFound
	}
	if err != nil {
		return status.Heartbeat{}, fmt.Errorf("getting heartbeat: %w", err)
	}

	var hb status.Heartbeat
	if err := json.Unmarshal([]byte(data), &hb); err != nil {
		return status.Heartbeat{}, fmt.Errorf("unmarshaling heartbeat: %w", err)
	}
	return hb, nil
}

// ListHeartbeats retrieves the heartbeats of all live instances
func (r *Repository) ListHeartbeats(ctx context.Context) ([]status.Heartbeat, error) {
	pattern := heartbeatPrefix + ":*"
	var beats []status.Heartbeat

	var cursor uint64
	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning heartbeat keys: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Result()
			if err == redis.Nil {
				// Key expired between scan and get
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting heartbeat: %w", err)
			}

			var hb status.Heartbeat
			if err := json.Unmarshal([]byte(data), &hb); err != nil {
				continue
			}

			beats = append(beats, hb)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return beats, nil
}

// IncrementResult bumps the shared counter for a relay status.
func (r *Repository) IncrementResult(ctx context.Context, name string) error {
	if err := r.client.HIncrBy(ctx, resultsKey, name, 1).Err(); err != nil {
		return fmt.Errorf("incrementing result counter: %w", err)
	}
	return nil
}

// ResultCounts returns the shared relay status counters.
func (r *Repository) ResultCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, resultsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("getting result counters: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for k, v := range raw {
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			continue
		}
		counts[k] = n
	}
	return counts, nil
}

// ObserveResult implements relay.Recorder. The write happens in the background.
func (r *Repository) ObserveResult(st relay.Status, _ discord.Outcome) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.IncrementResult(ctx, st.String()); err != nil {
			r.log.Warn().Err(err).Str("status", st.String()).Msg("recording relay result")
		}
	}()
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}
