package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/adapters/gateways"
	orderspostgres "github.com/Apurer/go-distribution-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-distribution-api/internal/domains/orders/application"
	paypostgres "github.com/Apurer/go-distribution-api/internal/domains/payments/adapters/persistence/postgres"
	payapp "github.com/Apurer/go-distribution-api/internal/domains/payments/application"
	refpostgres "github.com/Apurer/go-distribution-api/internal/domains/refdata/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-distribution-api/internal/platform/postgres"
)

// Flags issued invoices past their due date as overdue. Intended to be run
// on a schedule (cron or a Kubernetes CronJob).
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot flag overdue invoices")
	}

	orders := ordersapp.NewService(orderspostgres.NewRepository(db), refpostgres.NewLookup(db))
	payments := payapp.NewService(paypostgres.NewRepository(db), gateways.NewOrderReader(orders))
	flagged, err := payments.FlagOverdueInvoices(ctx, "invoice-flagger")
	if err != nil {
		log.Fatalf("failed to flag overdue invoices: %v", err)
	}
	log.Printf("overdue invoice sweep completed, flagged %d", flagged)
}
