package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	invdomain "github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	invports "github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/go-distribution-api/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory service with tracing, logging, and metrics.
type Service struct {
	inner   invports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core inventory service.
func New(inner invports.Service, opts ...Option) invports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateRecord(ctx context.Context, input invports.CreateRecordInput) (*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.CreateRecord",
		trace.WithAttributes(attribute.Int64("product.id", input.ProductID), attribute.Int64("warehouse.id", input.WarehouseID)))
	defer span.End()
	result, err := s.inner.CreateRecord(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create inventory record")
	}
	s.logInfo(ctx, "inventory record created", slog.Int64("inventory.id", result.ID))
	return result, nil
}

func (s *Service) Reserve(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Reserve",
		trace.WithAttributes(
			attribute.Int64("product.id", productID),
			attribute.Int64("warehouse.id", warehouseID),
			attribute.Int64("quantity", quantity)))
	defer span.End()
	result, err := s.inner.Reserve(ctx, productID, warehouseID, quantity, reference, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reserve stock", slog.Int64("product.id", productID))
	}
	s.metrics.recordReserved(ctx, quantity)
	s.logInfo(ctx, "stock reserved",
		slog.Int64("inventory.id", result.ID),
		slog.Int64("quantity", quantity),
		slog.Int64("stock_level", result.StockLevel))
	return result, nil
}

func (s *Service) ReserveBatch(ctx context.Context, lines []invports.StockLine, reference, actorID string) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ReserveBatch",
		trace.WithAttributes(attribute.Int("lines", len(lines)), attribute.String("reference", reference)))
	defer span.End()
	if err := s.inner.ReserveBatch(ctx, lines, reference, actorID); err != nil {
		return s.handleError(ctx, span, err, "failed to reserve stock batch", slog.String("reference", reference))
	}
	for _, line := range lines {
		s.metrics.recordReserved(ctx, line.Quantity)
	}
	s.logInfo(ctx, "stock batch reserved", slog.String("reference", reference), slog.Int("lines", len(lines)))
	return nil
}

func (s *Service) ReleaseBatch(ctx context.Context, lines []invports.StockLine, reference, actorID string) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ReleaseBatch",
		trace.WithAttributes(attribute.Int("lines", len(lines)), attribute.String("reference", reference)))
	defer span.End()
	if err := s.inner.ReleaseBatch(ctx, lines, reference, actorID); err != nil {
		return s.handleError(ctx, span, err, "failed to release stock batch", slog.String("reference", reference))
	}
	s.logInfo(ctx, "stock batch released", slog.String("reference", reference), slog.Int("lines", len(lines)))
	return nil
}

func (s *Service) Adjust(ctx context.Context, input invports.AdjustInput) (*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Adjust",
		trace.WithAttributes(
			attribute.Int64("inventory.id", input.InventoryID),
			attribute.Int64("delta", input.Delta),
			attribute.String("movement.type", string(input.Type))))
	defer span.End()
	result, err := s.inner.Adjust(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to adjust stock", slog.Int64("inventory.id", input.InventoryID))
	}
	s.metrics.recordAdjusted(ctx, input.Type)
	s.logInfo(ctx, "stock adjusted",
		slog.Int64("inventory.id", result.ID),
		slog.Int64("delta", input.Delta),
		slog.Int64("stock_level", result.StockLevel))
	return result, nil
}

func (s *Service) Restock(ctx context.Context, productID, warehouseID, quantity int64, reference, actorID string) (*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Restock",
		trace.WithAttributes(attribute.Int64("product.id", productID), attribute.Int64("quantity", quantity)))
	defer span.End()
	result, err := s.inner.Restock(ctx, productID, warehouseID, quantity, reference, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to restock", slog.Int64("product.id", productID))
	}
	s.logInfo(ctx, "stock replenished", slog.Int64("inventory.id", result.ID), slog.Int64("quantity", quantity))
	return result, nil
}

func (s *Service) VerifyLedger(ctx context.Context, inventoryID int64) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.VerifyLedger",
		trace.WithAttributes(attribute.Int64("inventory.id", inventoryID)))
	defer span.End()
	if err := s.inner.VerifyLedger(ctx, inventoryID); err != nil {
		return s.handleError(ctx, span, err, "ledger verification failed", slog.Int64("inventory.id", inventoryID))
	}
	return nil
}

func (s *Service) LowStock(ctx context.Context) ([]*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LowStock")
	defer span.End()
	result, err := s.inner.LowStock(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list low stock")
	}
	span.SetAttributes(attribute.Int("low_stock.count", len(result)))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetByID",
		trace.WithAttributes(attribute.Int64("inventory.id", id)))
	defer span.End()
	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load inventory record", slog.Int64("inventory.id", id))
	}
	return result, nil
}

func (s *Service) Movements(ctx context.Context, inventoryID int64) ([]invdomain.Movement, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.Movements",
		trace.WithAttributes(attribute.Int64("inventory.id", inventoryID)))
	defer span.End()
	result, err := s.inner.Movements(ctx, inventoryID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list movements", slog.Int64("inventory.id", inventoryID))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context) ([]*invdomain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.List")
	defer span.End()
	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list inventory")
	}
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	stockReserved metric.Int64Counter
	stockAdjusted metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	reserved, _ := m.Int64Counter("inventory.service.stock_reserved", metric.WithDescription("Units of stock reserved for orders"))
	adjusted, _ := m.Int64Counter("inventory.service.adjustments", metric.WithDescription("Number of manual stock adjustments"))
	return serviceMetrics{stockReserved: reserved, stockAdjusted: adjusted}
}

func (m serviceMetrics) recordReserved(ctx context.Context, quantity int64) {
	if m.stockReserved != nil {
		m.stockReserved.Add(ctx, quantity)
	}
}

func (m serviceMetrics) recordAdjusted(ctx context.Context, movementType invdomain.MovementType) {
	if m.stockAdjusted != nil {
		m.stockAdjusted.Add(ctx, 1, metric.WithAttributes(attribute.String("movement.type", string(movementType))))
	}
}

var _ invports.Service = (*Service)(nil)
