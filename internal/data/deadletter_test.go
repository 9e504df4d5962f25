package data

import (
	"context"
	"testing"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDeadLetterStore(t *testing.T) (*DeadLetterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewDeadLetterStore(&Data{redisClient: client}, log.DefaultLogger), mr
}

func sampleLetter(paymentID int64) *model.DeadLetter {
	return &model.DeadLetter{
		Subject:   "finance.payment.received.v1",
		PaymentID: paymentID,
		Attempts:  3,
		LastError: "event gateway responded 500",
		FailedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeadLetterStore_RecordAndPending(t *testing.T) {
	store, _ := setupDeadLetterStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleLetter(1)))
	require.NoError(t, store.Record(ctx, sampleLetter(2)))

	letters, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 2)

	// Newest first.
	assert.Equal(t, int64(2), letters[0].PaymentID)
	assert.Equal(t, int64(1), letters[1].PaymentID)
	assert.Equal(t, "finance.payment.received.v1", letters[0].Subject)
	assert.Equal(t, 3, letters[0].Attempts)
}

func TestDeadLetterStore_PendingHonorsLimit(t *testing.T) {
	store, _ := setupDeadLetterStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, store.Record(ctx, sampleLetter(i)))
	}

	letters, err := store.Pending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, letters, 2)
	assert.Equal(t, int64(5), letters[0].PaymentID)
}

func TestDeadLetterStore_SkipsMalformedEntries(t *testing.T) {
	store, mr := setupDeadLetterStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleLetter(1)))
	_, err := mr.Lpush(deadLetterKey, "not json")
	require.NoError(t, err)

	letters, err := store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, int64(1), letters[0].PaymentID)
}

func TestDeadLetterStore_DegradesWithoutRedis(t *testing.T) {
	store := NewDeadLetterStore(&Data{}, log.DefaultLogger)
	ctx := context.Background()

	assert.NoError(t, store.Record(ctx, sampleLetter(1)), "without Redis the record is logged, not raised")

	letters, err := store.Pending(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, letters)
}

func TestDeadLetterStore_RecordFailsWhenRedisDown(t *testing.T) {
	store, mr := setupDeadLetterStore(t)
	mr.Close()

	err := store.Record(context.Background(), sampleLetter(1))
	assert.Error(t, err)
}
