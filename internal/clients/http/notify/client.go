package notify

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

	"github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
)

// Client pushes delivery notices to the external notification service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the notification client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("notify base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}, nil
}

type deliveryNoticeRequest struct {
	OrderID        int64     `json:"orderId"`
	OrderReference string    `json:"orderReference"`
	StoreID        int64     `json:"storeId"`
	TripID         int64     `json:"tripId"`
	InvoiceNumber  string    `json:"invoiceNumber"`
	DeliveredAt    time.Time `json:"deliveredAt"`
}

// NotifyDelivered tells the store contact that their order arrived.
func (c *Client) NotifyDelivered(ctx context.Context, notice ports.DeliveryNotice) error {
	if c == nil || c.httpClient == nil {
		return errors.New("notify client not configured")
	}
	body, err := json.Marshal(deliveryNoticeRequest{
		OrderID:        notice.OrderID,
		OrderReference: notice.OrderReference,
		StoreID:        notice.StoreID,
		TripID:         notice.TripID,
		InvoiceNumber:  notice.InvoiceNumber,
		DeliveredAt:    notice.DeliveredAt,
	})
	if err != nil {
		return fmt.Errorf("encode delivery notice: %w", err)
	}
	url := fmt.Sprintf("%s/v1/notifications/delivery", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call notification service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notification service error: %s", resp.Status)
	}
	return nil
}

var _ ports.Notifier = (*Client)(nil)
