// Package data provides the outbound edge of the service: storage
// clients, service discovery, and the HTTP clients that talk to the
// identity service and the event gateway.
package data

import (
	"github.com/SarradaHub/pickup-game-manager/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewMySQLClient,
	NewConsulRegistry,
	NewResilientClient,
	NewIdentityServiceClient,
	NewHTTPEventPublisher,
	NewPaymentRepo,
	NewDeadLetterStore,
)

// Data bundles the shared data layer handles.
type Data struct {
	redisClient *redis.Client
}

// NewData creates a new Data instance. Redis connection failure does not
// prevent application startup; the dead-letter store degrades to
// log-only.
func NewData(_ *conf.Data, logger log.Logger, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("Redis client is nil, dead letters will be logged only")
	}

	d := &Data{redisClient: rdb}

	cleanup := func() {
		helper.Info("closing the data resources")
	}

	return d, cleanup, nil
}

// GetRedisClient returns the Redis client for advanced operations.
func (d *Data) GetRedisClient() *redis.Client {
	return d.redisClient
}
