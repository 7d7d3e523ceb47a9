package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

// Client renders billing documents on the external document service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the documents client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("documents base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}, nil
}

type renderInvoiceRequest struct {
	InvoiceNumber  string          `json:"invoiceNumber"`
	OrderID        int64           `json:"orderId"`
	OrderReference string          `json:"orderReference"`
	StoreID        int64           `json:"storeId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	IssuedAt       time.Time       `json:"issuedAt"`
	DueAt          time.Time       `json:"dueAt"`
}

type renderInvoiceResponse struct {
	DocumentRef string `json:"documentRef"`
}

// RenderInvoice pushes the invoice to the document service and returns
// the reference of the rendered document.
func (c *Client) RenderInvoice(ctx context.Context, doc ports.InvoiceDocument) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", errors.New("documents client not configured")
	}
	if strings.TrimSpace(doc.InvoiceNumber) == "" {
		return "", errors.New("invoice number is required")
	}
	body, err := json.Marshal(renderInvoiceRequest{
		InvoiceNumber:  doc.InvoiceNumber,
		OrderID:        doc.OrderID,
		OrderReference: doc.OrderReference,
		StoreID:        doc.StoreID,
		Subtotal:       doc.Subtotal,
		Tax:            doc.Tax,
		Total:          doc.Total,
		IssuedAt:       doc.IssuedAt,
		DueAt:          doc.DueAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode invoice payload: %w", err)
	}
	url := fmt.Sprintf("%s/v1/invoices/%s/render", c.baseURL, doc.InvoiceNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call document service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("document service error: %s", responseMessage(resp))
	}
	var rendered renderInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return "", fmt.Errorf("decode render response: %w", err)
	}
	if rendered.DocumentRef == "" {
		return "", errors.New("document service returned no document reference")
	}
	return rendered.DocumentRef, nil
}

func responseMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(data, &payload) == nil && strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	return resp.Status
}

var _ ports.DocumentRenderer = (*Client)(nil)
