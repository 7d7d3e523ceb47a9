package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

const tracerName = "github.com/Apurer/go-distribution-api/internal/domains/trips/adapters/observability/service"

// Service decorates the trips service with tracing, logging, and metrics.
type Service struct {
	inner   tripsports.Service
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

// New wraps the core trips service.
func New(inner tripsports.Service, opts ...Option) tripsports.Service {
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

func (s *Service) CreateTrip(ctx context.Context, input tripsports.CreateTripInput) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.CreateTrip",
		trace.WithAttributes(
			attribute.String("trip.driver_id", input.DriverID),
			attribute.Int("trip.stops", len(input.OrderIDs))))
	defer span.End()
	result, err := s.inner.CreateTrip(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create trip", slog.String("driver.id", input.DriverID))
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "trip created",
		slog.Int64("trip.id", result.ID),
		slog.String("trip.reference", result.Reference),
		slog.Int("trip.stops", len(result.Assignments)))
	return result, nil
}

func (s *Service) ReorderAssignments(ctx context.Context, tripID int64, orderIDs []int64, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.ReorderAssignments",
		trace.WithAttributes(attribute.Int64("trip.id", tripID)))
	defer span.End()
	result, err := s.inner.ReorderAssignments(ctx, tripID, orderIDs, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to reorder assignments", slog.Int64("trip.id", tripID))
	}
	s.logInfo(ctx, "trip resequenced", slog.Int64("trip.id", tripID))
	return result, nil
}

func (s *Service) SuggestSequence(ctx context.Context, tripID int64) ([]int64, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.SuggestSequence",
		trace.WithAttributes(attribute.Int64("trip.id", tripID)))
	defer span.End()
	result, err := s.inner.SuggestSequence(ctx, tripID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to suggest sequence", slog.Int64("trip.id", tripID))
	}
	return result, nil
}

func (s *Service) DispatchTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.DispatchTrip",
		trace.WithAttributes(attribute.Int64("trip.id", tripID)))
	defer span.End()
	result, err := s.inner.DispatchTrip(ctx, tripID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to dispatch trip", slog.Int64("trip.id", tripID))
	}
	s.metrics.recordDispatched(ctx)
	s.logInfo(ctx, "trip dispatched", slog.Int64("trip.id", tripID), slog.Int("trip.stops", len(result.Assignments)))
	return result, nil
}

func (s *Service) MarkStop(ctx context.Context, tripID, orderID int64, target tripsdomain.StopStatus, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.MarkStop",
		trace.WithAttributes(
			attribute.Int64("trip.id", tripID),
			attribute.Int64("order.id", orderID),
			attribute.String("stop.target_status", string(target))))
	defer span.End()
	result, err := s.inner.MarkStop(ctx, tripID, orderID, target, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to mark stop",
			slog.Int64("trip.id", tripID), slog.Int64("order.id", orderID), slog.String("target", string(target)))
	}
	s.logInfo(ctx, "stop advanced",
		slog.Int64("trip.id", tripID),
		slog.Int64("order.id", orderID),
		slog.String("stop.status", string(target)))
	return result, nil
}

func (s *Service) AttachDeliveryPhotos(ctx context.Context, tripID, orderID int64, refs []string, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.AttachDeliveryPhotos",
		trace.WithAttributes(
			attribute.Int64("trip.id", tripID),
			attribute.Int64("order.id", orderID),
			attribute.Int("photos", len(refs))))
	defer span.End()
	result, err := s.inner.AttachDeliveryPhotos(ctx, tripID, orderID, refs, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to attach delivery photos",
			slog.Int64("trip.id", tripID), slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) CompleteTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.CompleteTrip",
		trace.WithAttributes(attribute.Int64("trip.id", tripID)))
	defer span.End()
	result, err := s.inner.CompleteTrip(ctx, tripID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to complete trip", slog.Int64("trip.id", tripID))
	}
	s.logInfo(ctx, "trip completed", slog.Int64("trip.id", tripID))
	return result, nil
}

func (s *Service) CancelTrip(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.CancelTrip",
		trace.WithAttributes(attribute.Int64("trip.id", tripID)))
	defer span.End()
	result, err := s.inner.CancelTrip(ctx, tripID, actorID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel trip", slog.Int64("trip.id", tripID))
	}
	s.logInfo(ctx, "trip cancelled", slog.Int64("trip.id", tripID))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.GetByID",
		trace.WithAttributes(attribute.Int64("trip.id", id)))
	defer span.End()
	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load trip", slog.Int64("trip.id", id))
	}
	return result, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses []tripsdomain.Status) ([]*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.ListByStatus")
	defer span.End()
	result, err := s.inner.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list trips")
	}
	span.SetAttributes(attribute.Int("trips.count", len(result)))
	return result, nil
}

func (s *Service) ActiveTripForOrder(ctx context.Context, orderID int64) (*tripsdomain.Trip, error) {
	ctx, span := s.tracer.Start(ctx, "TripService.ActiveTripForOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()
	result, err := s.inner.ActiveTripForOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to find trip for order", slog.Int64("order.id", orderID))
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
	created    metric.Int64Counter
	dispatched metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("trips.service.created", metric.WithDescription("Number of trips created"))
	dispatched, _ := m.Int64Counter("trips.service.dispatched", metric.WithDescription("Number of trips dispatched"))
	return serviceMetrics{created: created, dispatched: dispatched}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.created != nil {
		m.created.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDispatched(ctx context.Context) {
	if m.dispatched != nil {
		m.dispatched.Add(ctx, 1)
	}
}

var _ tripsports.Service = (*Service)(nil)
