package distributionserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	fulfillment "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application"
	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
)

// PaymentsAPI wires HTTP transport with the payments bounded context.
type PaymentsAPI struct {
	service payports.Service
	flow    *fulfillment.Facade
}

// NewPaymentsAPI creates a PaymentsAPI backed by the provided service and flow facade.
func NewPaymentsAPI(service payports.Service, flow *fulfillment.Facade) PaymentsAPI {
	return PaymentsAPI{service: service, flow: flow}
}

// Post /v1/payments
// Record a tender against an order
func (api *PaymentsAPI) RecordPayment(c *gin.Context) {
	var payload RecordPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.flow.RecordPayment(c.Request.Context(), payports.RecordPaymentInput{
		OrderID:     payload.OrderId,
		Amount:      payload.Amount,
		Method:      paydomain.Method(payload.Method),
		ReferenceNo: payload.ReferenceNo,
		Notes:       payload.Notes,
		ActorID:     payload.ActorId,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RecordPaymentResponse{
		Payment:     fromPayment(result.Payment),
		TotalPaid:   result.TotalPaid,
		Remaining:   result.Remaining,
		OrderPaid:   result.OrderPaid,
		Overpayment: result.Overpayment,
	})
}

// Post /v1/payments/:paymentId/reconcile
// Verify a non-cash tender against its bank or check reference
func (api *PaymentsAPI) ReconcilePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "paymentId")
	if !ok {
		return
	}
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	payment, err := api.service.ReconcilePayment(c.Request.Context(), id, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromPayment(payment))
}

// Get /v1/orders/:orderId/payments
// List the tenders recorded against an order
func (api *PaymentsAPI) ListOrderPayments(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	payments, err := api.service.PaymentsByOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromPaymentList(payments))
}

// Get /v1/orders/:orderId/invoice
// Find the invoice issued for an order
func (api *PaymentsAPI) GetOrderInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	invoice, err := api.service.InvoiceByOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInvoice(invoice))
}

// Post /v1/orders/:orderId/invoice
// Generate the invoice for a delivered order
func (api *PaymentsAPI) GenerateOrderInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	invoice, err := api.service.GenerateInvoice(c.Request.Context(), id, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromInvoice(invoice))
}

// Get /v1/invoices
// List invoices by status
func (api *PaymentsAPI) ListInvoices(c *gin.Context) {
	statuses := make([]paydomain.InvoiceStatus, 0)
	for _, status := range c.QueryArray("status") {
		statuses = append(statuses, paydomain.InvoiceStatus(status))
	}
	invoices, err := api.service.ListInvoices(c.Request.Context(), statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInvoiceList(invoices))
}

// Post /v1/invoices/flag-overdue
// Sweep issued invoices past their due date and flag them overdue
func (api *PaymentsAPI) FlagOverdueInvoices(c *gin.Context) {
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	flagged, err := api.service.FlagOverdueInvoices(c.Request.Context(), actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, FlagOverdueResponse{Flagged: flagged})
}

// Get /v1/reports/ar-aging
// Accounts-receivable aging bucketed from invoice issue dates, as of
// the optional asOf query parameter (defaults to now)
func (api *PaymentsAPI) GetReceivablesAging(c *gin.Context) {
	asOf, ok := parseAsOfQuery(c)
	if !ok {
		return
	}
	overall, perStore, err := api.service.ComputeARAging(c.Request.Context(), asOf)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	report := AgingReport{Overall: fromAgingSummary(overall), PerStore: make([]StoreAging, 0, len(perStore))}
	for _, store := range perStore {
		report.PerStore = append(report.PerStore, StoreAging{
			StoreId: store.StoreID,
			Summary: fromAgingSummary(&store.Summary),
		})
	}
	c.JSON(http.StatusOK, report)
}

// parseAsOfQuery reads the optional asOf query parameter as an RFC
// 3339 timestamp or a plain date. Absent means the zero time, which
// the service treats as now.
func parseAsOfQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Time{}, true
	}
	if asOf, err := time.Parse(time.RFC3339, raw); err == nil {
		return asOf, true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("invalid asOf %q: %w", raw, err))
		return time.Time{}, false
	}
	return asOf, true
}
