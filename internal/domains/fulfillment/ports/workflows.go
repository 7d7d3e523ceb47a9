package ports

import (
	"context"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
)

// WorkflowOrchestrator exposes the durable settlement operation required by the fulfillment bounded context.
type WorkflowOrchestrator interface {
	SettleDelivery(ctx context.Context, input fulfillmenttypes.SettleDeliveryInput) (*fulfillmenttypes.SettlementResult, error)
}
