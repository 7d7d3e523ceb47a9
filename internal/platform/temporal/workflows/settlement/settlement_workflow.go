package settlement

import (
	"go.temporal.io/sdk/workflow"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-distribution-api/internal/platform/temporal/sequences"
)

const (
	// SettlementWorkflowName is the public identifier for registering the workflow.
	SettlementWorkflowName = "fulfillment.workflows.Settlement"
	// SettlementTaskQueue is the queue consumed by the worker processing settlement workflows.
	SettlementTaskQueue = "DELIVERY_SETTLEMENT"
)

// SettlementWorkflowInput captures the payload required to settle a delivered order.
type SettlementWorkflowInput struct {
	Command fulfillmenttypes.SettleDeliveryInput
	TraceID string
}

// SettlementWorkflow orchestrates the activities that bill a delivered order.
func SettlementWorkflow(ctx workflow.Context, input SettlementWorkflowInput) (*fulfillmenttypes.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Command.OrderID
	logger.Info("SettlementWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	result, err := sequences.RunSettlementSequence(ctx, input.Command)
	if err != nil {
		logger.Error("SettlementWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("SettlementWorkflow completed", withTraceID(input.TraceID, "orderId", orderID, "invoiceNumber", result.InvoiceNumber)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
