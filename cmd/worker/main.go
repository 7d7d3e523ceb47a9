package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	documentsclient "github.com/Apurer/go-distribution-api/internal/clients/http/documents"
	notifyclient "github.com/Apurer/go-distribution-api/internal/clients/http/notify"
	platformobservability "github.com/Apurer/go-distribution-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-distribution-api/internal/platform/postgres"
	settlementactivities "github.com/Apurer/go-distribution-api/internal/platform/temporal/activities/settlement"
	settlementworkflows "github.com/Apurer/go-distribution-api/internal/platform/temporal/workflows/settlement"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/adapters/gateways"
	fulfillmentports "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
	ordersmemory "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/memory"
	orderspostgres "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-distribution-api/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	paymemory "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/memory"
	paypostgres "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/persistence/postgres"
	payapp "github.com/Apurer/go-distribution-api/internal/domains/payments/application"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
	refmemory "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/memory"
	refpostgres "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/persistence/postgres"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
)

func main() {
	ctx := context.Background()
	const serviceName = "distribution-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
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

	orders := buildOrderService(db, logger)
	payments := buildPaymentService(db, orders, logger)
	activities := settlementactivities.NewActivities(
		orders,
		payments,
		buildDocumentRenderer(logger),
		buildNotifier(logger),
	)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, settlementworkflows.SettlementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(settlementworkflows.SettlementWorkflow, workflow.RegisterOptions{Name: settlementworkflows.SettlementWorkflowName})
	w.RegisterActivityWithOptions(activities.GenerateInvoice, activity.RegisterOptions{Name: settlementactivities.GenerateInvoiceActivityName})
	w.RegisterActivityWithOptions(activities.RenderInvoiceDocument, activity.RegisterOptions{Name: settlementactivities.RenderInvoiceDocumentActivityName})
	w.RegisterActivityWithOptions(activities.NotifyDelivered, activity.RegisterOptions{Name: settlementactivities.NotifyDeliveredActivityName})

	logger.Info("worker listening", slog.String("taskQueue", settlementworkflows.SettlementTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderService(db *gorm.DB, logger *slog.Logger) ordersports.Service {
	var (
		repo    ordersports.Repository
		catalog refports.Lookup
	)
	if db == nil {
		logger.Warn("worker order repository running in-memory")
		repo = ordersmemory.NewRepository()
		catalog = refmemory.NewLookup()
	} else {
		repo = orderspostgres.NewRepository(db)
		catalog = refpostgres.NewLookup(db)
	}
	return ordersapp.NewService(repo, catalog)
}

func buildPaymentService(db *gorm.DB, orders ordersports.Service, logger *slog.Logger) payports.Service {
	var repo payports.Repository
	if db == nil {
		logger.Warn("worker payment repository running in-memory")
		repo = paymemory.NewRepository()
	} else {
		repo = paypostgres.NewRepository(db)
	}
	return payapp.NewService(repo, gateways.NewOrderReader(orders),
		payapp.WithOrderPaymentMarker(gateways.NewOrderPaymentMarker(orders)),
		payapp.WithPaymentTerms(invoiceTermsFromEnv()),
	)
}

func buildDocumentRenderer(logger *slog.Logger) fulfillmentports.DocumentRenderer {
	base := os.Getenv("DOCUMENTS_BASE_URL")
	if base == "" {
		logger.Warn("DOCUMENTS_BASE_URL not set, invoice documents will not be rendered")
		return nil
	}
	client, err := documentsclient.NewClient(base, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		logger.Warn("document service client unavailable", slog.String("error", err.Error()))
		return nil
	}
	return client
}

func buildNotifier(logger *slog.Logger) fulfillmentports.Notifier {
	base := os.Getenv("NOTIFY_BASE_URL")
	if base == "" {
		logger.Warn("NOTIFY_BASE_URL not set, delivery notifications disabled")
		return nil
	}
	client, err := notifyclient.NewClient(base, nil)
	if err != nil {
		logger.Warn("notification client unavailable", slog.String("error", err.Error()))
		return nil
	}
	return client
}

func invoiceTermsFromEnv() time.Duration {
	const fallback = 30 * 24 * time.Hour
	raw := strings.TrimSpace(os.Getenv("INVOICE_TERMS_DAYS"))
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return time.Duration(days) * 24 * time.Hour
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
