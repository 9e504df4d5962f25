//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/SarradaHub/pickup-game-manager/internal/biz"
	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/data"
	"github.com/SarradaHub/pickup-game-manager/internal/server"
	"github.com/SarradaHub/pickup-game-manager/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Registry, *conf.Identity, *conf.EventGateway, *conf.Resilience, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
