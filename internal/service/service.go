// Package service exposes the HTTP surface of the resilience layer.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewPaymentService,
	NewUserService,
	NewOpsService,
)
