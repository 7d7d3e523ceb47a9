package distributionserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"

	fulfillment "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application"
)

// OrdersAPI wires HTTP transport with the orders bounded context. Lifecycle
// shortcuts (confirm, pack, cancel) go through the fulfillment facade so
// stock reservation rides along with the transition.
type OrdersAPI struct {
	service ordersports.Service
	flow    *fulfillment.Facade
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service and flow facade.
func NewOrdersAPI(service ordersports.Service, flow *fulfillment.Facade) OrdersAPI {
	return OrdersAPI{service: service, flow: flow}
}

// Post /v1/orders
// Place a new order for a store
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	var payload PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input := ordersports.CreateOrderInput{
		StoreID:     payload.StoreId,
		WarehouseID: payload.WarehouseId,
		AgentID:     payload.AgentId,
		Items:       toItemInputs(payload.Items),
		ActorID:     payload.ActorId,
	}
	order, err := api.flow.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromOrder(order))
}

// Get /v1/orders
// List orders by status or store
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	if storeID := c.Query("storeId"); storeID != "" {
		api.listByStore(c, storeID)
		return
	}
	statuses := make([]ordersdomain.Status, 0)
	for _, status := range c.QueryArray("status") {
		statuses = append(statuses, ordersdomain.Status(status))
	}
	orders, err := api.service.ListByStatus(c.Request.Context(), statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrderList(orders))
}

func (api *OrdersAPI) listByStore(c *gin.Context, raw string) {
	storeID, ok := parseQueryID(c, raw)
	if !ok {
		return
	}
	orders, err := api.service.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrderList(orders))
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrdersAPI) GetOrderById(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Put /v1/orders/:orderId/items
// Replace the item lines of a pending order
func (api *OrdersAPI) EditOrderItems(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload EditOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.EditOrder(c.Request.Context(), id, toItemInputs(payload.Items), payload.ActorId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Post /v1/orders/:orderId/confirm
// Confirm a pending order
func (api *OrdersAPI) ConfirmOrder(c *gin.Context) {
	api.lifecycleStep(c, api.flow.ConfirmOrder)
}

// Post /v1/orders/:orderId/pack
// Pack a confirmed order, reserving its stock
func (api *OrdersAPI) PackOrder(c *gin.Context) {
	api.lifecycleStep(c, api.flow.PackOrder)
}

// Post /v1/orders/:orderId/cancel
// Cancel an order, releasing reserved stock when applicable
func (api *OrdersAPI) CancelOrder(c *gin.Context) {
	api.lifecycleStep(c, api.flow.CancelOrder)
}

// Post /v1/orders/:orderId/transition
// Move an order to an explicit lifecycle status
func (api *OrdersAPI) TransitionOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload TransitionOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.Transition(c.Request.Context(), id, ordersdomain.Status(payload.Status), payload.ActorId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Get /v1/orders/:orderId/balance
// Get the derived payment balance of an order
func (api *OrdersAPI) GetOrderBalance(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	balance, err := api.service.Balance(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderBalance{
		Total:             balance.Total,
		TotalPaid:         balance.TotalPaid,
		RemainingBalance:  balance.RemainingBalance,
		HasPartialPayment: balance.HasPartialPayment,
	})
}

// Get /v1/orders/:orderId/audit
// List the recorded status changes of an order
func (api *OrdersAPI) GetOrderAuditTrail(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	entries, err := api.service.AuditTrail(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]OrderAuditEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, OrderAuditEntry{
			FromStatus: string(entry.FromStatus),
			ToStatus:   string(entry.ToStatus),
			ActorId:    entry.ActorID,
			Note:       entry.Note,
			At:         entry.At,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (api *OrdersAPI) lifecycleStep(c *gin.Context, step func(ctx context.Context, orderID int64, actorID string) (*ordersdomain.Order, error)) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	payload := ActorRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}
	order, err := step(c.Request.Context(), id, payload.ActorId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}
