package distributionserver

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	fulfillment "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/go-distribution-api/internal/domains/fulfillment/ports"
	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
)

// maxPhotoBytes caps a single proof-of-delivery upload.
const maxPhotoBytes = 10 << 20

// TripsAPI wires HTTP transport with the trips bounded context. Stop
// transitions go through the fulfillment facade so the matching order
// transition and, on delivery, settlement ride along.
type TripsAPI struct {
	service tripsports.Service
	flow    *fulfillment.Facade
}

// NewTripsAPI creates a TripsAPI backed by the provided service and flow facade.
func NewTripsAPI(service tripsports.Service, flow *fulfillment.Facade) TripsAPI {
	return TripsAPI{service: service, flow: flow}
}

// Post /v1/trips
// Group packed orders onto a driver and vehicle
func (api *TripsAPI) CreateTrip(c *gin.Context) {
	var payload CreateTripRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	trip, err := api.flow.CreateTrip(c.Request.Context(), tripsports.CreateTripInput{
		WarehouseID: payload.WarehouseId,
		DriverID:    payload.DriverId,
		VehicleID:   payload.VehicleId,
		OrderIDs:    payload.OrderIds,
		ActorID:     payload.ActorId,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTrip(trip))
}

// Get /v1/trips
// List trips by status
func (api *TripsAPI) ListTrips(c *gin.Context) {
	statuses := make([]tripsdomain.Status, 0)
	for _, status := range c.QueryArray("status") {
		statuses = append(statuses, tripsdomain.Status(status))
	}
	trips, err := api.service.ListByStatus(c.Request.Context(), statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTripList(trips))
}

// Get /v1/trips/:tripId
// Find trip by ID
func (api *TripsAPI) GetTripById(c *gin.Context) {
	id, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	trip, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTrip(trip))
}

// Put /v1/trips/:tripId/sequence
// Resequence the stops of a trip that has not been dispatched
func (api *TripsAPI) ReorderTrip(c *gin.Context) {
	id, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	var payload ReorderTripRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	trip, err := api.service.ReorderAssignments(c.Request.Context(), id, payload.OrderIds, payload.ActorId)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTrip(trip))
}

// Get /v1/trips/:tripId/sequence/suggestion
// Suggest a stop sequence by store proximity
func (api *TripsAPI) SuggestTripSequence(c *gin.Context) {
	id, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	orderIDs, err := api.service.SuggestSequence(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SequenceSuggestion{OrderIds: orderIDs})
}

// Post /v1/trips/:tripId/dispatch
// Dispatch a trip, moving all stops and their orders to dispatched
func (api *TripsAPI) DispatchTrip(c *gin.Context) {
	id, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	trip, err := api.flow.DispatchTrip(c.Request.Context(), id, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTrip(trip))
}

// Post /v1/trips/:tripId/stops/:orderId/in-transit
// Mark a stop in transit
func (api *TripsAPI) MarkStopInTransit(c *gin.Context) {
	api.stopStep(c, api.flow.MarkStopInTransit)
}

// Post /v1/trips/:tripId/stops/:orderId/at-store
// Mark a stop arrived at the store
func (api *TripsAPI) MarkStopAtStore(c *gin.Context) {
	api.stopStep(c, api.flow.MarkStopAtStore)
}

// Post /v1/trips/:tripId/stops/:orderId/returned
// Mark a stop returned undelivered
func (api *TripsAPI) MarkStopReturned(c *gin.Context) {
	api.stopStep(c, api.flow.MarkStopReturned)
}

// Post /v1/trips/:tripId/stops/:orderId/delivered
// Mark a stop delivered, storing proof-of-delivery photos and settling the order
func (api *TripsAPI) MarkStopDelivered(c *gin.Context) {
	tripID, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	actorID := c.PostForm("actorId")
	photos, err := readPhotoUploads(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.flow.MarkStopDelivered(c.Request.Context(), tripID, orderID, photos, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response := DeliveryResponse{Trip: fromTrip(result.Trip), Warnings: result.Warnings}
	if result.Settlement != nil {
		response.InvoiceNumber = result.Settlement.InvoiceNumber
		response.DocumentRef = result.Settlement.DocumentRef
	}
	c.JSON(http.StatusOK, response)
}

// Post /v1/trips/:tripId/complete
// Complete a trip once every stop is delivered or returned
func (api *TripsAPI) CompleteTrip(c *gin.Context) {
	api.tripStep(c, api.flow.CompleteTrip)
}

// Post /v1/trips/:tripId/cancel
// Cancel a trip, reverting its dispatched orders back to packed
func (api *TripsAPI) CancelTrip(c *gin.Context) {
	api.tripStep(c, api.flow.CancelTrip)
}

type tripStepFunc func(ctx context.Context, tripID int64, actorID string) (*tripsdomain.Trip, error)

type stopStepFunc func(ctx context.Context, tripID, orderID int64, actorID string) (*tripsdomain.Trip, error)

func (api *TripsAPI) tripStep(c *gin.Context, step tripStepFunc) {
	id, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	trip, err := step(c.Request.Context(), id, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTrip(trip))
}

func (api *TripsAPI) stopStep(c *gin.Context, step stopStepFunc) {
	tripID, ok := parseIDParam(c, "tripId")
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	actorID, ok := bindActor(c)
	if !ok {
		return
	}
	trip, err := step(c.Request.Context(), tripID, orderID, actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTrip(trip))
}

func bindActor(c *gin.Context) (string, bool) {
	payload := ActorRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return "", false
		}
	}
	return payload.ActorId, true
}

func readPhotoUploads(c *gin.Context) ([]fulfillmentports.PhotoUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, err
	}
	var photos []fulfillmentports.PhotoUpload
	for _, header := range form.File["photos"] {
		photo, err := readPhoto(header)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

func readPhoto(header *multipart.FileHeader) (fulfillmentports.PhotoUpload, error) {
	file, err := header.Open()
	if err != nil {
		return fulfillmentports.PhotoUpload{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		return fulfillmentports.PhotoUpload{}, err
	}
	return fulfillmentports.PhotoUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
