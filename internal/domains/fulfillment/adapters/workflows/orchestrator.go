package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application"
	fulfillmenttypes "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
	settlementworkflows "github.com/Apurer/go-distribution-api/internal/platform/temporal/workflows/settlement"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalSettlementWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineSettlementWorkflows)(nil)
)

// TemporalSettlementWorkflows starts settlement workflows on a Temporal cluster.
type TemporalSettlementWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSettlementWorkflows wires a Temporal client into the orchestrator.
func NewTemporalSettlementWorkflows(c client.Client) *TemporalSettlementWorkflows {
	return &TemporalSettlementWorkflows{client: c, taskQueue: settlementworkflows.SettlementTaskQueue}
}

// SettleDelivery starts the durable settlement workflow for one order.
// The workflow ID is derived from the order, so settling the same order
// twice attaches to the run already in flight.
func (o *TemporalSettlementWorkflows) SettleDelivery(ctx context.Context, input fulfillmenttypes.SettleDeliveryInput) (*fulfillmenttypes.SettlementResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal settlement workflows not configured")
	}
	workflowID := fmt.Sprintf("delivery-settlement-%d", input.OrderID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		settlementworkflows.SettlementWorkflow,
		settlementworkflows.SettlementWorkflowInput{Command: input, TraceID: workflowTraceComponent(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result fulfillmenttypes.SettlementResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, err
			}
			return &result, nil
		}
		return nil, err
	}
	var result fulfillmenttypes.SettlementResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InlineSettlementWorkflows executes settlement directly without Temporal, useful for tests or dev fallbacks.
type InlineSettlementWorkflows struct {
	settlement *application.Settlement
}

// NewInlineSettlementWorkflows wraps the settlement service for synchronous execution.
func NewInlineSettlementWorkflows(settlement *application.Settlement) *InlineSettlementWorkflows {
	return &InlineSettlementWorkflows{settlement: settlement}
}

// SettleDelivery delegates to the settlement service without durable orchestration.
func (o *InlineSettlementWorkflows) SettleDelivery(ctx context.Context, input fulfillmenttypes.SettleDeliveryInput) (*fulfillmenttypes.SettlementResult, error) {
	if o == nil || o.settlement == nil {
		return nil, errors.New("inline settlement workflows not configured")
	}
	return o.settlement.SettleDelivery(ctx, input)
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
