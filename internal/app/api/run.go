package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	distributionserver "github.com/Apurer/go-distribution-api/server"

	documentsclient "github.com/Apurer/go-distribution-api/internal/clients/http/documents"
	filestoreclient "github.com/Apurer/go-distribution-api/internal/clients/http/filestore"
	notifyclient "github.com/Apurer/go-distribution-api/internal/clients/http/notify"
	platformmigrations "github.com/Apurer/go-distribution-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-distribution-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-distribution-api/internal/platform/postgres"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/adapters/gateways"
	fulfillmentworkflows "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/adapters/workflows"
	fulfillment "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"

	invmemory "github.com/Apurer/go-distribution-api/internal/domains/inventory/adapters/memory"
	invobs "github.com/Apurer/go-distribution-api/internal/domains/inventory/adapters/observability"
	invpostgres "github.com/Apurer/go-distribution-api/internal/domains/inventory/adapters/persistence/postgres"
	invapp "github.com/Apurer/go-distribution-api/internal/domains/inventory/application"
	invports "github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"

	ordersmemory "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-distribution-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"

	paymemory "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/memory"
	payobs "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/observability"
	paypostgres "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/persistence/postgres"
	payapp "github.com/Apurer/go-distribution-api/internal/domains/payments/application"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"

	refmemory "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/memory"
	refpostgres "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/persistence/postgres"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"

	tripsmemory "github.com/Apurer/go-distribution-api/internal/domains/trips/adapters/memory"
	tripsobs "github.com/Apurer/go-distribution-api/internal/domains/trips/adapters/observability"
	tripspostgres "github.com/Apurer/go-distribution-api/internal/domains/trips/adapters/persistence/postgres"
	tripsapp "github.com/Apurer/go-distribution-api/internal/domains/trips/application"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

// Run boots the distribution HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "distribution-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := platformmigrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	services := buildServices(cfg, db, instruments, logger)
	facade, cleanupFacade := buildFacade(cfg, services, instruments, logger)
	defer cleanupFacade()

	handlers := distributionserver.ApiHandleFunctions{
		OrdersAPI:    distributionserver.NewOrdersAPI(services.orders, facade),
		InventoryAPI: distributionserver.NewInventoryAPI(services.inventory),
		TripsAPI:     distributionserver.NewTripsAPI(services.trips, facade),
		PaymentsAPI:  distributionserver.NewPaymentsAPI(services.payments, facade),
	}

	router := distributionserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("distribution API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("distribution API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// contextServices groups the decorated application services of every bounded
// context plus the shared reference lookup.
type contextServices struct {
	catalog   refports.Lookup
	inventory invports.Service
	orders    ordersports.Service
	payments  payports.Service
	trips     tripsports.Service
}

func buildServices(cfg Config, db *gorm.DB, instruments *platformobservability.Instruments, logger *slog.Logger) *contextServices {
	catalog := buildCatalog(db, logger)

	inventory := invobs.New(
		invapp.NewService(buildInventoryRepository(db, logger)),
		invobs.WithLogger(logger),
		invobs.WithTracer(instruments.Tracer("internal.inventory.application")),
		invobs.WithMeter(instruments.Meter("internal.inventory.application")),
	)

	// The orders and payments services read from each other, so the payment
	// side is bound after both exist.
	paymentReader := &lateBoundPaymentReader{}
	orders := ordersobs.New(
		ordersapp.NewService(buildOrderRepository(db, logger), catalog,
			ordersapp.WithStockReserver(gateways.NewStockReserver(inventory)),
			ordersapp.WithPaymentReader(paymentReader),
			ordersapp.WithTaxRate(cfg.TaxRate),
		),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	payments := payobs.New(
		payapp.NewService(buildPaymentRepository(db, logger), gateways.NewOrderReader(orders),
			payapp.WithOrderPaymentMarker(gateways.NewOrderPaymentMarker(orders)),
			payapp.WithPaymentTerms(time.Duration(cfg.InvoiceTermsDays)*24*time.Hour),
		),
		payobs.WithLogger(logger),
		payobs.WithTracer(instruments.Tracer("internal.payments.application")),
		payobs.WithMeter(instruments.Meter("internal.payments.application")),
	)
	paymentReader.bind(payments)

	trips := tripsobs.New(
		tripsapp.NewService(buildTripRepository(db, logger), gateways.NewOrderGateway(orders, catalog)),
		tripsobs.WithLogger(logger),
		tripsobs.WithTracer(instruments.Tracer("internal.trips.application")),
		tripsobs.WithMeter(instruments.Meter("internal.trips.application")),
	)

	return &contextServices{
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		payments:  payments,
		trips:     trips,
	}
}

func buildFacade(cfg Config, services *contextServices, instruments *platformobservability.Instruments, logger *slog.Logger) (*fulfillment.Facade, func()) {
	var settlementOpts []fulfillment.SettlementOption
	var facadeOpts []fulfillment.FacadeOption

	if renderer := buildDocumentRenderer(cfg, logger); renderer != nil {
		settlementOpts = append(settlementOpts, fulfillment.WithDocumentRenderer(renderer))
	}
	if notifier := buildNotifier(cfg, logger); notifier != nil {
		settlementOpts = append(settlementOpts, fulfillment.WithNotifier(notifier))
	}
	if files := buildFileStore(cfg, logger); files != nil {
		facadeOpts = append(facadeOpts, fulfillment.WithFileStore(files))
	}

	settlement := fulfillment.NewSettlement(services.orders, services.payments, settlementOpts...)
	var orchestrator fulfillmentports.WorkflowOrchestrator = fulfillmentworkflows.NewInlineSettlementWorkflows(settlement)
	cleanup := func() {}
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, settling deliveries inline", slog.String("error", err.Error()))
	} else {
		cleanup = temporalClient.Close
		orchestrator = fulfillmentworkflows.NewTemporalSettlementWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	facadeOpts = append(facadeOpts,
		fulfillment.WithWorkflowOrchestrator(orchestrator),
		fulfillment.WithFacadeLogger(logger),
	)
	return fulfillment.NewFacade(services.orders, services.trips, services.payments, facadeOpts...), cleanup
}

// lateBoundPaymentReader breaks the construction cycle between the orders
// and payments services. Before bind it reports zero paid.
type lateBoundPaymentReader struct {
	inner ordersports.PaymentReader
}

func (r *lateBoundPaymentReader) bind(inner ordersports.PaymentReader) {
	r.inner = inner
}

func (r *lateBoundPaymentReader) TotalPaid(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if r.inner == nil {
		return decimal.Zero, nil
	}
	return r.inner.TotalPaid(ctx, orderID)
}

func buildCatalog(db *gorm.DB, logger *slog.Logger) refports.Lookup {
	if db == nil {
		logger.Warn("reference data lookup running in-memory; seed stores, products, and warehouses before placing orders")
		return refmemory.NewLookup()
	}
	return refpostgres.NewLookup(db)
}

func buildOrderRepository(db *gorm.DB, logger *slog.Logger) ordersports.Repository {
	if db == nil {
		logger.Warn("order repository running in-memory")
		return ordersmemory.NewRepository()
	}
	return orderspostgres.NewRepository(db)
}

func buildInventoryRepository(db *gorm.DB, logger *slog.Logger) invports.Repository {
	if db == nil {
		logger.Warn("inventory repository running in-memory")
		return invmemory.NewRepository()
	}
	return invpostgres.NewRepository(db)
}

func buildPaymentRepository(db *gorm.DB, logger *slog.Logger) payports.Repository {
	if db == nil {
		logger.Warn("payment repository running in-memory")
		return paymemory.NewRepository()
	}
	return paypostgres.NewRepository(db)
}

func buildTripRepository(db *gorm.DB, logger *slog.Logger) tripsports.Repository {
	if db == nil {
		logger.Warn("trip repository running in-memory")
		return tripsmemory.NewRepository()
	}
	return tripspostgres.NewRepository(db)
}

func buildDocumentRenderer(cfg Config, logger *slog.Logger) fulfillmentports.DocumentRenderer {
	if cfg.DocumentsBaseURL == "" {
		logger.Warn("DOCUMENTS_BASE_URL not set, invoice documents will not be rendered")
		return nil
	}
	client, err := documentsclient.NewClient(cfg.DocumentsBaseURL, nil)
	if err != nil {
		logger.Warn("document service client unavailable", slog.String("error", err.Error()))
		return nil
	}
	return client
}

func buildNotifier(cfg Config, logger *slog.Logger) fulfillmentports.Notifier {
	if cfg.NotifyBaseURL == "" {
		logger.Warn("NOTIFY_BASE_URL not set, delivery notifications disabled")
		return nil
	}
	client, err := notifyclient.NewClient(cfg.NotifyBaseURL, nil)
	if err != nil {
		logger.Warn("notification client unavailable", slog.String("error", err.Error()))
		return nil
	}
	return client
}

func buildFileStore(cfg Config, logger *slog.Logger) fulfillmentports.FileStore {
	if cfg.FileStoreBaseURL == "" {
		logger.Warn("FILESTORE_BASE_URL not set, delivery photos will be dropped")
		return nil
	}
	client, err := filestoreclient.NewClient(cfg.FileStoreBaseURL, nil)
	if err != nil {
		logger.Warn("file store client unavailable", slog.String("error", err.Error()))
		return nil
	}
	return client
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
