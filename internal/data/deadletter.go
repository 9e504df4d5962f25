package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	// deadLetterKey is the Redis list holding undeliverable events,
	// newest first.
	deadLetterKey = "pgm:events:dead_letter"

	// deadLetterMax caps the list so a long gateway outage cannot grow
	// it without bound.
	deadLetterMax = 1000

	deadLetterOpTimeout = 500 * time.Millisecond
)

// DeadLetterStore implements biz.DeadLetterStore on Redis. With Redis
// unavailable the store degrades to log-only: the failure stays visible
// in the logs even though the record is lost.
type DeadLetterStore struct {
	rdb    *redis.Client
	logger *log.Helper
}

// NewDeadLetterStore creates a new dead-letter store.
func NewDeadLetterStore(d *Data, logger log.Logger) *DeadLetterStore {
	return &DeadLetterStore{
		rdb:    d.GetRedisClient(),
		logger: log.NewHelper(logger),
	}
}

// Record appends one dead letter to the store.
func (s *DeadLetterStore) Record(ctx context.Context, letter *model.DeadLetter) error {
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to encode dead letter: %w", err)
	}

	if s.rdb == nil {
		s.logger.Warnw("msg", "redis unavailable, dead letter logged only",
			"subject", letter.Subject,
			"payment_id", letter.PaymentID,
			"letter", string(payload))
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, deadLetterOpTimeout)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.LPush(opCtx, deadLetterKey, payload)
	pipe.LTrim(opCtx, deadLetterKey, 0, deadLetterMax-1)
	if _, err := pipe.Exec(opCtx); err != nil {
		s.logger.Errorw("msg", "failed to store dead letter",
			"subject", letter.Subject,
			"payment_id", letter.PaymentID,
			"error", err.Error())
		return fmt.Errorf("failed to store dead letter: %w", err)
	}

	return nil
}

// Pending returns up to limit dead letters, newest first. Operators use
// this to inspect and replay permanently failed deliveries.
func (s *DeadLetterStore) Pending(ctx context.Context, limit int64) ([]*model.DeadLetter, error) {
	if s.rdb == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = deadLetterMax
	}

	opCtx, cancel := context.WithTimeout(ctx, deadLetterOpTimeout)
	defer cancel()

	raw, err := s.rdb.LRange(opCtx, deadLetterKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}

	letters := make([]*model.DeadLetter, 0, len(raw))
	for _, item := range raw {
		var letter model.DeadLetter
		if err := json.Unmarshal([]byte(item), &letter); err != nil {
			s.logger.Warnf("skipping malformed dead letter entry: %v", err)
			continue
		}
		letters = append(letters, &letter)
	}
	return letters, nil
}
