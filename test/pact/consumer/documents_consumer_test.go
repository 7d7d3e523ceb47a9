//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pacttest "github.com/Apurer/go-distribution-api/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"

	"github.com/Apurer/go-distribution-api/internal/clients/http/documents"
	"github.com/Apurer/go-distribution-api/internal/clients/http/notify"
	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

func exampleInvoiceDocument() ports.InvoiceDocument {
	issued := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return ports.InvoiceDocument{
		InvoiceNumber:  pacttest.ExampleInvoiceNumber,
		OrderID:        pacttest.ExampleOrderID,
		OrderReference: pacttest.ExampleOrderRef,
		StoreID:        pacttest.ExampleStoreID,
		Subtotal:       decimal.NewFromInt(100),
		Tax:            decimal.NewFromInt(12),
		Total:          decimal.NewFromInt(112),
		IssuedAt:       issued,
		DueAt:          issued.AddDate(0, 0, 30),
	}
}

func TestDocumentServiceContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	doc := exampleInvoiceDocument()
	invoiceBodyMatcher := matchers.Map{
		"invoiceNumber":  matchers.Like(doc.InvoiceNumber),
		"orderId":        matchers.Like(doc.OrderID),
		"orderReference": matchers.Like(doc.OrderReference),
		"storeId":        matchers.Like(doc.StoreID),
		"subtotal":       matchers.Like("100"),
		"tax":            matchers.Like("12"),
		"total":          matchers.Like("112"),
		"issuedAt":       matchers.Like(doc.IssuedAt.Format(time.RFC3339)),
		"dueAt":          matchers.Like(doc.DueAt.Format(time.RFC3339)),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateInvoiceRenderable).
		UponReceiving("a request to render an invoice document").
		WithRequest("POST", fmt.Sprintf("/v1/invoices/%s/render", pacttest.ExampleInvoiceNumber), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(invoiceBodyMatcher)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"documentRef": matchers.Like("documents/INV-PACT-1.pdf"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client, err := documents.NewClient(mockServerURL(config), mockHTTPClient(config))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ref, err := client.RenderInvoice(ctx, exampleInvoiceDocument())
		if err != nil {
			return fmt.Errorf("render invoice: %w", err)
		}
		if ref == "" {
			return fmt.Errorf("expected a document reference")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestDocumentServiceContract_ServerError(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	pact.AddInteraction().
		Given(pacttest.StateRendererDown).
		UponReceiving("a render request while the renderer is failing").
		WithRequest("POST", fmt.Sprintf("/v1/invoices/%s/render", pacttest.ExampleInvoiceNumber), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
		}).
		WillRespondWith(http.StatusServiceUnavailable, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"message": matchers.Like("renderer unavailable"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client, err := documents.NewClient(mockServerURL(config), mockHTTPClient(config))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := client.RenderInvoice(ctx, exampleInvoiceDocument()); err == nil {
			return fmt.Errorf("expected renderer failure to surface")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNotificationServiceContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	deliveredAt := time.Date(2026, 6, 1, 16, 30, 0, 0, time.UTC)
	pact.AddInteraction().
		Given(pacttest.StateNotifyReachable).
		UponReceiving("a delivery notification").
		WithRequest("POST", "/v1/notifications/delivery", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"orderId":        matchers.Like(pacttest.ExampleOrderID),
				"orderReference": matchers.Like(pacttest.ExampleOrderRef),
				"storeId":        matchers.Like(pacttest.ExampleStoreID),
				"tripId":         matchers.Like(pacttest.ExampleTripID),
				"invoiceNumber":  matchers.Like(pacttest.ExampleInvoiceNumber),
				"deliveredAt":    matchers.Like(deliveredAt.Format(time.RFC3339)),
			})
		}).
		WillRespondWith(http.StatusAccepted, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"accepted": matchers.Like(true),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client, err := notify.NewClient(mockServerURL(config), mockHTTPClient(config))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return client.NotifyDelivered(ctx, ports.DeliveryNotice{
			OrderID:        pacttest.ExampleOrderID,
			OrderReference: pacttest.ExampleOrderRef,
			StoreID:        pacttest.ExampleStoreID,
			TripID:         pacttest.ExampleTripID,
			InvoiceNumber:  pacttest.ExampleInvoiceNumber,
			DeliveredAt:    deliveredAt,
		})
	})
	require.NoError(t, err)
}

func mockServerURL(config pactconsumer.MockServerConfig) string {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, config.Port)
}

func mockHTTPClient(config pactconsumer.MockServerConfig) *http.Client {
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}
}
