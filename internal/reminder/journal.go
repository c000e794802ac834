package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrOutcomeNotFound means no outcome is journaled for the session: either
// no cycle has evaluated it within the TTL window, or the journal is off.
var ErrOutcomeNotFound = errors.New("no dispatch outcome recorded")

// Journal keeps a short-lived record of the last dispatch outcome per
// session, for the operational stats surface. It is observation only: the
// session store's conditional update is the sole correctness primitive, and
// the engine runs fine with no journal at all (a nil *Journal is valid).
type Journal struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// JournalEntry is what gets stored per session.
type JournalEntry struct {
	Outcome    Outcome   `json:"outcome"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewJournal creates an outcome journal. Records expire after 24 hours.
func NewJournal(redisClient *redis.Client, logger *slog.Logger) *Journal {
	return &Journal{
		redis:  redisClient,
		ttl:    24 * time.Hour,
		logger: logger,
	}
}

func (j *Journal) keyPrefix() string {
	return "reminder:outcome:"
}

func (j *Journal) buildKey(sessionID uuid.UUID) string {
	return j.keyPrefix() + sessionID.String()
}

// Record stores the outcome of one dispatch attempt. Failures are logged and
// swallowed; the journal must never affect dispatch.
func (j *Journal) Record(ctx context.Context, sessionID uuid.UUID, outcome Outcome) {
	if j == nil {
		return
	}

	entry, err := json.Marshal(JournalEntry{Outcome: outcome, RecordedAt: time.Now()})
	if err != nil {
		j.logger.Error("Failed to marshal journal entry", "session_id", sessionID, "error", err)
		return
	}

	if err := j.redis.Set(ctx, j.buildKey(sessionID), entry, j.ttl).Err(); err != nil {
		j.logger.Warn("Failed to record dispatch outcome",
			"session_id", sessionID, "outcome", outcome, "error", err)
	}
}

// Get retrieves the journaled outcome for a session, if any.
func (j *Journal) Get(ctx context.Context, sessionID uuid.UUID) (*JournalEntry, error) {
	if j == nil {
		return nil, ErrOutcomeNotFound
	}

	data, err := j.redis.Get(ctx, j.buildKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrOutcomeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	var entry JournalEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
	}
	return &entry, nil
}

// Count scans the journal keyspace and returns the number of live records.
// Redis TTL handles expiry; this exists for the stats endpoint.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("journal disabled")
	}

	pattern := j.keyPrefix() + "*"

	var cursor uint64
	var count int64

	for {
		var keys []string
		var err error

		keys, cursor, err = j.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return count, fmt.Errorf("failed to scan journal keys: %w", err)
		}

		count += int64(len(keys))

		if cursor == 0 {
			break
		}
	}

	return count, nil
}

// TTL reports how long journal records live.
func (j *Journal) TTL() time.Duration {
	if j == nil {
		return 0
	}
	return j.ttl
}

// Ping verifies the journal's backing store is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	if j == nil {
		return fmt.Errorf("journal disabled")
	}
	return j.redis.Ping(ctx).Err()
}
