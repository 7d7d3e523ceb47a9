package sequences

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	settlementactivities "github.com/Apurer/go-distribution-api/internal/platform/temporal/activities/settlement"
)

// RunSettlementSequence executes the ordered settlement steps for a
// delivered order. Invoice generation must succeed; document rendering
// and notification are retried but their final failure degrades to a
// warning on the result.
func RunSettlementSequence(ctx workflow.Context, input fulfillmenttypes.SettleDeliveryInput) (*fulfillmenttypes.SettlementResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("settlement sequence started", "orderId", input.OrderID)

	invoiceOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	sideEffectOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var snapshot settlementactivities.InvoiceSnapshot
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, invoiceOptions),
		settlementactivities.GenerateInvoiceActivityName,
		input,
	).Get(ctx, &snapshot)
	if err != nil {
		logger.Error("settlement sequence failed to invoice", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	logger.Info("settlement sequence invoiced", "orderId", input.OrderID, "invoiceNumber", snapshot.InvoiceNumber)

	result := &fulfillmenttypes.SettlementResult{
		InvoiceNumber:   snapshot.InvoiceNumber,
		AlreadyInvoiced: snapshot.AlreadyInvoiced,
	}
	if snapshot.AlreadyInvoiced {
		result.Warnings = append(result.Warnings, fmt.Sprintf("order %d already invoiced", input.OrderID))
	}

	var documentRef string
	err = workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, sideEffectOptions),
		settlementactivities.RenderInvoiceDocumentActivityName,
		snapshot,
	).Get(ctx, &documentRef)
	if err != nil {
		logger.Error("settlement sequence failed to render document", "orderId", input.OrderID, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("render invoice %s: %v", snapshot.InvoiceNumber, err))
	} else {
		result.DocumentRef = documentRef
	}

	err = workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, sideEffectOptions),
		settlementactivities.NotifyDeliveredActivityName,
		settlementactivities.NotifyInput{Snapshot: snapshot, TripID: input.TripID},
	).Get(ctx, nil)
	if err != nil {
		logger.Error("settlement sequence failed to notify", "orderId", input.OrderID, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("notify store %d: %v", snapshot.StoreID, err))
	}

	logger.Info("settlement sequence completed", "orderId", input.OrderID, "warnings", len(result.Warnings))
	return result, nil
}
