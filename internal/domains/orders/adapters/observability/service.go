package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
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

// New wraps the core orders service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
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

func (s *Service) CreateOrder(ctx context.Context, input ordersports.CreateOrderInput) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.Int64("store.id", input.StoreID),
			attribute.Int("items", len(input.Items))))
	defer span.End()
	s.logInfo(ctx, "creating order", slog.Int64("store.id", input.StoreID), slog.Int("items", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.Int64("store.id", input.StoreID))
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", result.ID),
		slog.String("order.reference", result.Reference),
		slog.String("order.total", result.Total.String()))
	return result, nil
}

func (s *Service) EditOrder(ctx context.Context, orderID int64, items []ordersports.ItemInput, actorID string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.EditOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.Int("items", len(items))))
	defer span.End()
	result, err := s.inner.EditOrder(ctx, orderID, items, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to edit order", slog.Int64("order.id", orderID))
	}
	s.logInfo(ctx, "order edited", slog.Int64("order.id", result.ID), slog.String("order.total", result.Total.String()))
	return result, nil
}

func (s *Service) Transition(ctx context.Context, orderID int64, target ordersdomain.Status, actorID string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Transition",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.target_status", string(target))))
	defer span.End()
	result, err := s.inner.Transition(ctx, orderID, target, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to transition order",
			slog.Int64("order.id", orderID), slog.String("target", string(target)))
	}
	s.metrics.recordTransition(ctx, target)
	s.logInfo(ctx, "order transitioned",
		slog.Int64("order.id", result.ID),
		slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) SetPaid(ctx context.Context, orderID int64, paid bool, actorID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.SetPaid",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.Bool("paid", paid)))
	defer span.End()
	if err := s.inner.SetPaid(ctx, orderID, paid, actorID); err != nil {
		return s.handleError(ctx, span, err, "failed to update paid flag", slog.Int64("order.id", orderID))
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetByID",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()
	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	return result, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses []ordersdomain.Status) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByStatus")
	defer span.End()
	result, err := s.inner.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders by status")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListByStore(ctx context.Context, storeID int64) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByStore",
		trace.WithAttributes(attribute.Int64("store.id", storeID)))
	defer span.End()
	result, err := s.inner.ListByStore(ctx, storeID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders by store", slog.Int64("store.id", storeID))
	}
	return result, nil
}

func (s *Service) Balance(ctx context.Context, orderID int64) (*ordersports.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Balance",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.Balance(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to compute balance", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) AuditTrail(ctx context.Context, orderID int64) ([]ordersdomain.AuditEntry, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.AuditTrail",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.AuditTrail(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load audit trail", slog.Int64("order.id", orderID))
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
	ordersCreated metric.Int64Counter
	transitions   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of order status transitions"))
	return serviceMetrics{ordersCreated: created, transitions: transitions}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordTransition(ctx context.Context, target ordersdomain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(target))))
	}
}

var _ ordersports.Service = (*Service)(nil)
