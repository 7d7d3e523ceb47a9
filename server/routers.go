package distributionserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = defaultFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// ApiHandleFunctions groups the per-context API handlers bound to the router.
type ApiHandleFunctions struct {
	OrdersAPI    OrdersAPI
	InventoryAPI InventoryAPI
	TripsAPI     TripsAPI
	PaymentsAPI  PaymentsAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{"PlaceOrder", http.MethodPost, "/v1/orders", handleFunctions.OrdersAPI.PlaceOrder},
		{"ListOrders", http.MethodGet, "/v1/orders", handleFunctions.OrdersAPI.ListOrders},
		{"GetOrderById", http.MethodGet, "/v1/orders/:orderId", handleFunctions.OrdersAPI.GetOrderById},
		{"EditOrderItems", http.MethodPut, "/v1/orders/:orderId/items", handleFunctions.OrdersAPI.EditOrderItems},
		{"ConfirmOrder", http.MethodPost, "/v1/orders/:orderId/confirm", handleFunctions.OrdersAPI.ConfirmOrder},
		{"PackOrder", http.MethodPost, "/v1/orders/:orderId/pack", handleFunctions.OrdersAPI.PackOrder},
		{"CancelOrder", http.MethodPost, "/v1/orders/:orderId/cancel", handleFunctions.OrdersAPI.CancelOrder},
		{"TransitionOrder", http.MethodPost, "/v1/orders/:orderId/transition", handleFunctions.OrdersAPI.TransitionOrder},
		{"GetOrderBalance", http.MethodGet, "/v1/orders/:orderId/balance", handleFunctions.OrdersAPI.GetOrderBalance},
		{"GetOrderAuditTrail", http.MethodGet, "/v1/orders/:orderId/audit", handleFunctions.OrdersAPI.GetOrderAuditTrail},

		{"CreateInventoryRecord", http.MethodPost, "/v1/inventory", handleFunctions.InventoryAPI.CreateInventoryRecord},
		{"ListInventory", http.MethodGet, "/v1/inventory", handleFunctions.InventoryAPI.ListInventory},
		{"GetInventoryById", http.MethodGet, "/v1/inventory/:inventoryId", handleFunctions.InventoryAPI.GetInventoryById},
		{"ListMovements", http.MethodGet, "/v1/inventory/:inventoryId/movements", handleFunctions.InventoryAPI.ListMovements},
		{"AdjustInventory", http.MethodPost, "/v1/inventory/:inventoryId/adjust", handleFunctions.InventoryAPI.AdjustInventory},
		{"VerifyInventoryLedger", http.MethodPost, "/v1/inventory/:inventoryId/verify", handleFunctions.InventoryAPI.VerifyInventoryLedger},
		{"RestockInventory", http.MethodPost, "/v1/inventory/restock", handleFunctions.InventoryAPI.RestockInventory},

		{"CreateTrip", http.MethodPost, "/v1/trips", handleFunctions.TripsAPI.CreateTrip},
		{"ListTrips", http.MethodGet, "/v1/trips", handleFunctions.TripsAPI.ListTrips},
		{"GetTripById", http.MethodGet, "/v1/trips/:tripId", handleFunctions.TripsAPI.GetTripById},
		{"ReorderTrip", http.MethodPut, "/v1/trips/:tripId/sequence", handleFunctions.TripsAPI.ReorderTrip},
		{"SuggestTripSequence", http.MethodGet, "/v1/trips/:tripId/sequence/suggestion", handleFunctions.TripsAPI.SuggestTripSequence},
		{"DispatchTrip", http.MethodPost, "/v1/trips/:tripId/dispatch", handleFunctions.TripsAPI.DispatchTrip},
		{"MarkStopInTransit", http.MethodPost, "/v1/trips/:tripId/stops/:orderId/in-transit", handleFunctions.TripsAPI.MarkStopInTransit},
		{"MarkStopAtStore", http.MethodPost, "/v1/trips/:tripId/stops/:orderId/at-store", handleFunctions.TripsAPI.MarkStopAtStore},
		{"MarkStopDelivered", http.MethodPost, "/v1/trips/:tripId/stops/:orderId/delivered", handleFunctions.TripsAPI.MarkStopDelivered},
		{"MarkStopReturned", http.MethodPost, "/v1/trips/:tripId/stops/:orderId/returned", handleFunctions.TripsAPI.MarkStopReturned},
		{"CompleteTrip", http.MethodPost, "/v1/trips/:tripId/complete", handleFunctions.TripsAPI.CompleteTrip},
		{"CancelTrip", http.MethodPost, "/v1/trips/:tripId/cancel", handleFunctions.TripsAPI.CancelTrip},

		{"RecordPayment", http.MethodPost, "/v1/payments", handleFunctions.PaymentsAPI.RecordPayment},
		{"ReconcilePayment", http.MethodPost, "/v1/payments/:paymentId/reconcile", handleFunctions.PaymentsAPI.ReconcilePayment},
		{"ListOrderPayments", http.MethodGet, "/v1/orders/:orderId/payments", handleFunctions.PaymentsAPI.ListOrderPayments},
		{"GetOrderInvoice", http.MethodGet, "/v1/orders/:orderId/invoice", handleFunctions.PaymentsAPI.GetOrderInvoice},
		{"GenerateOrderInvoice", http.MethodPost, "/v1/orders/:orderId/invoice", handleFunctions.PaymentsAPI.GenerateOrderInvoice},
		{"ListInvoices", http.MethodGet, "/v1/invoices", handleFunctions.PaymentsAPI.ListInvoices},
		{"FlagOverdueInvoices", http.MethodPost, "/v1/invoices/flag-overdue", handleFunctions.PaymentsAPI.FlagOverdueInvoices},
		{"GetReceivablesAging", http.MethodGet, "/v1/reports/ar-aging", handleFunctions.PaymentsAPI.GetReceivablesAging},
	}
}

func defaultFunc(c *gin.Context) {
	c.Status(http.StatusNotImplemented)
}
