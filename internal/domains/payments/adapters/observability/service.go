package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/observability/service"

// Service decorates the payments service with tracing, logging, and metrics.
type Service struct {
	inner   payports.Service
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

// New wraps the core payments service.
func New(inner payports.Service, opts ...Option) payports.Service {
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

func (s *Service) RecordPayment(ctx context.Context, input payports.RecordPaymentInput) (*payports.PaymentResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.RecordPayment",
		trace.WithAttributes(
			attribute.Int64("order.id", input.OrderID),
			attribute.String("payment.method", string(input.Method))))
	defer span.End()
	result, err := s.inner.RecordPayment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to record payment", slog.Int64("order.id", input.OrderID))
	}
	s.metrics.recordPayment(ctx, input.Method)
	attrs := []slog.Attr{
		slog.Int64("order.id", input.OrderID),
		slog.String("payment.amount", result.Payment.Amount.String()),
		slog.String("order.remaining", result.Remaining.String()),
	}
	if result.Overpayment.IsPositive() {
		attrs = append(attrs, slog.String("payment.overpayment", result.Overpayment.String()))
		s.logWarn(ctx, "payment exceeds order balance", attrs...)
	} else {
		s.logInfo(ctx, "payment recorded", attrs...)
	}
	return result, nil
}

func (s *Service) ReconcilePayment(ctx context.Context, paymentID int64, actorID string) (*paydomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ReconcilePayment",
		trace.WithAttributes(attribute.Int64("payment.id", paymentID)))
	defer span.End()
	result, err := s.inner.ReconcilePayment(ctx, paymentID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reconcile payment", slog.Int64("payment.id", paymentID))
	}
	s.logInfo(ctx, "payment reconciled", slog.Int64("payment.id", paymentID))
	return result, nil
}

func (s *Service) GenerateInvoice(ctx context.Context, orderID int64, actorID string) (*paydomain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GenerateInvoice",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.GenerateInvoice(ctx, orderID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to generate invoice", slog.Int64("order.id", orderID))
	}
	s.metrics.recordInvoice(ctx)
	s.logInfo(ctx, "invoice generated",
		slog.Int64("order.id", orderID),
		slog.String("invoice.number", result.Number))
	return result, nil
}

func (s *Service) FlagOverdueInvoices(ctx context.Context, actorID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.FlagOverdueInvoices")
	defer span.End()
	flagged, err := s.inner.FlagOverdueInvoices(ctx, actorID)
	if err != nil {
		return flagged, s.handleError(ctx, span, err, "failed to flag overdue invoices")
	}
	span.SetAttributes(attribute.Int("invoices.flagged", flagged))
	if flagged > 0 {
		s.logInfo(ctx, "overdue invoices flagged", slog.Int("invoices.flagged", flagged))
	}
	return flagged, nil
}

func (s *Service) ComputeARAging(ctx context.Context, asOf time.Time) (*paydomain.AgingSummary, []paydomain.StoreAging, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ComputeARAging")
	defer span.End()
	summary, stores, err := s.inner.ComputeARAging(ctx, asOf)
	if err != nil {
		return nil, nil, s.handleError(ctx, span, err, "failed to compute receivables aging")
	}
	span.SetAttributes(attribute.String("receivables.total", summary.Total.String()))
	return summary, stores, nil
}

func (s *Service) TotalPaid(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.TotalPaid",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	total, err := s.inner.TotalPaid(ctx, orderID)
	if err != nil {
		return decimal.Zero, s.handleError(ctx, span, err, "failed to total payments", slog.Int64("order.id", orderID))
	}
	return total, nil
}

func (s *Service) PaymentsByOrder(ctx context.Context, orderID int64) ([]*paydomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.PaymentsByOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.PaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) InvoiceByOrder(ctx context.Context, orderID int64) (*paydomain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.InvoiceByOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.InvoiceByOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load invoice", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) ListInvoices(ctx context.Context, statuses []paydomain.InvoiceStatus) ([]*paydomain.Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ListInvoices")
	defer span.End()
	result, err := s.inner.ListInvoices(ctx, statuses)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list invoices")
	}
	span.SetAttributes(attribute.Int("invoices.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
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
	payments metric.Int64Counter
	invoices metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	payments, _ := m.Int64Counter("payments.service.recorded", metric.WithDescription("Number of payments recorded"))
	invoices, _ := m.Int64Counter("payments.service.invoices", metric.WithDescription("Number of invoices generated"))
	return serviceMetrics{payments: payments, invoices: invoices}
}

func (m serviceMetrics) recordPayment(ctx context.Context, method paydomain.Method) {
	if m.payments != nil {
		m.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", string(method))))
	}
}

func (m serviceMetrics) recordInvoice(ctx context.Context) {
	if m.invoices != nil {
		m.invoices.Add(ctx, 1)
	}
}

var _ payports.Service = (*Service)(nil)
