package main

import (
	"context"
	"time"

	"github.com/SarradaHub/pickup-game-manager/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// StartRegistryHeartbeatCron keeps the Consul registration alive. The
// registration is an upsert keyed by service ID, so re-registering every
// minute is idempotent and heals an agent restart that dropped us.
func StartRegistryHeartbeatCron(registry *data.ConsulRegistry, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	if !registry.Enabled() {
		return nil
	}

	c := cron.New()

	_, err := c.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := registry.Register(ctx); err != nil {
			helper.Errorw("msg", "registry heartbeat failed", "error", err.Error())
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register heartbeat cron job", "error", err.Error())
		return nil
	}

	c.Start()
	helper.Info("registry heartbeat cron started: re-registers every minute")

	return c
}
