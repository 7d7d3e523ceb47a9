package distributionserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	invdomain "github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	invports "github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
)

// InventoryAPI wires HTTP transport with the inventory bounded context.
type InventoryAPI struct {
	service invports.Service
}

// NewInventoryAPI creates an InventoryAPI backed by the provided service.
func NewInventoryAPI(service invports.Service) InventoryAPI {
	return InventoryAPI{service: service}
}

// Post /v1/inventory
// Create a stock record for a product at a warehouse
func (api *InventoryAPI) CreateInventoryRecord(c *gin.Context) {
	var payload CreateInventoryRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	record, err := api.service.CreateRecord(c.Request.Context(), invports.CreateRecordInput{
		ProductID:    payload.ProductId,
		WarehouseID:  payload.WarehouseId,
		StockLevel:   payload.StockLevel,
		ReorderLevel: payload.ReorderLevel,
		MaxStock:     payload.MaxStock,
		ActorID:      payload.ActorId,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromInventory(record))
}

// Get /v1/inventory
// List stock records; lowStock=true filters to records at or below reorder level
func (api *InventoryAPI) ListInventory(c *gin.Context) {
	var (
		records []*invdomain.Inventory
		err     error
	)
	if c.Query("lowStock") == "true" {
		records, err = api.service.LowStock(c.Request.Context())
	} else {
		records, err = api.service.List(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInventoryList(records))
}

// Get /v1/inventory/:inventoryId
// Find stock record by ID
func (api *InventoryAPI) GetInventoryById(c *gin.Context) {
	id, ok := parseIDParam(c, "inventoryId")
	if !ok {
		return
	}
	record, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInventory(record))
}

// Get /v1/inventory/:inventoryId/movements
// List the movement ledger of a stock record
func (api *InventoryAPI) ListMovements(c *gin.Context) {
	id, ok := parseIDParam(c, "inventoryId")
	if !ok {
		return
	}
	movements, err := api.service.Movements(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromMovements(movements))
}

// Post /v1/inventory/:inventoryId/adjust
// Apply a manual stock correction
func (api *InventoryAPI) AdjustInventory(c *gin.Context) {
	id, ok := parseIDParam(c, "inventoryId")
	if !ok {
		return
	}
	var payload AdjustInventoryRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	record, err := api.service.Adjust(c.Request.Context(), invports.AdjustInput{
		InventoryID:            id,
		Delta:                  payload.Delta,
		Type:                   invdomain.MovementType(payload.Type),
		Reference:              payload.Reference,
		Notes:                  payload.Notes,
		ActorID:                payload.ActorId,
		AdministrativeOverride: payload.AdministrativeOverride,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInventory(record))
}

// Post /v1/inventory/:inventoryId/verify
// Recompute the movement ledger and compare it to the stored stock level
func (api *InventoryAPI) VerifyInventoryLedger(c *gin.Context) {
	id, ok := parseIDParam(c, "inventoryId")
	if !ok {
		return
	}
	if err := api.service.VerifyLedger(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Post /v1/inventory/restock
// Record incoming stock for a product at a warehouse
func (api *InventoryAPI) RestockInventory(c *gin.Context) {
	var payload RestockRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	record, err := api.service.Restock(c.Request.Context(), payload.ProductId, payload.WarehouseId, payload.Quantity, payload.Reference, payload.ActorId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromInventory(record))
}
