package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDocument carries the fields the document service needs to
// render a printable invoice.
type InvoiceDocument struct {
	InvoiceNumber  string
	OrderID        int64
	OrderReference string
	StoreID        int64
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	IssuedAt       time.Time
	DueAt          time.Time
}

// DocumentRenderer renders billing documents on an external service.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) (string, error)
}

// DeliveryNotice tells a store contact that their order arrived.
type DeliveryNotice struct {
	OrderID        int64
	OrderReference string
	StoreID        int64
	TripID         int64
	InvoiceNumber  string
	DeliveredAt    time.Time
}

// Notifier pushes delivery notices to an external channel.
type Notifier interface {
	NotifyDelivered(ctx context.Context, notice DeliveryNotice) error
}

// PhotoUpload is one proof-of-delivery image captured at the stop.
type PhotoUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileStore stores binary artifacts and returns an opaque reference.
type FileStore interface {
	Upload(ctx context.Context, upload PhotoUpload) (string, error)
}
