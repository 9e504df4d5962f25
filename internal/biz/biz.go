// Package biz contains business logic layer implementations.
// This layer holds the resilience policy and domain rules.
package biz

import (
	"github.com/SarradaHub/pickup-game-manager/internal/data"
	"github.com/SarradaHub/pickup-game-manager/internal/task"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewFaultDetector,
	NewAuthGatewayUseCase,
	NewDeliveryUseCase,
	NewPaymentUseCase,
	task.NewExecutor,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(IdentityClient), new(*data.IdentityServiceClient)),
	wire.Bind(new(PaymentRepo), new(*data.PaymentRepo)),
	wire.Bind(new(PaymentMutator), new(*data.PaymentRepo)),
	wire.Bind(new(EventPublisher), new(*data.HTTPEventPublisher)),
	wire.Bind(new(DeadLetterStore), new(*data.DeadLetterStore)),
	// The outbound client gates calls through the fault detector and
	// resolves endpoints through the registry
	wire.Bind(new(data.CircuitGate), new(*FaultDetector)),
	wire.Bind(new(data.EndpointResolver), new(*data.ConsulRegistry)),
)
