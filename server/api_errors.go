package distributionserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	invapp "github.com/Apurer/go-distribution-api/internal/domains/inventory/application"
	invdomain "github.com/Apurer/go-distribution-api/internal/domains/inventory/domain"
	invports "github.com/Apurer/go-distribution-api/internal/domains/inventory/ports"
	ordersapp "github.com/Apurer/go-distribution-api/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-distribution-api/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-distribution-api/internal/domains/orders/ports"
	payapp "github.com/Apurer/go-distribution-api/internal/domains/payments/application"
	paydomain "github.com/Apurer/go-distribution-api/internal/domains/payments/domain"
	payports "github.com/Apurer/go-distribution-api/internal/domains/payments/ports"
	refports "github.com/Apurer/go-distribution-api/internal/domains/refdata/ports"
	tripsapp "github.com/Apurer/go-distribution-api/internal/domains/trips/application"
	tripsdomain "github.com/Apurer/go-distribution-api/internal/domains/trips/domain"
	tripsports "github.com/Apurer/go-distribution-api/internal/domains/trips/ports"
	apierrors "github.com/Apurer/go-distribution-api/internal/shared/errors"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondError preserves plain status call sites while returning RFC 7807 responses.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusConflict:
		problem = apierrors.ErrStateConflict.WithDetail(err.Error())
	case http.StatusUnprocessableEntity:
		problem = apierrors.ErrUnprocessable.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondServiceError classifies application and domain sentinels from every
// bounded context into the shared problem-detail catalogue.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case isNotFound(err):
		respondProblem(c, apierrors.ErrNotFound.WithDetail(err.Error()))
	case isInvalidInput(err):
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
	case errors.Is(err, invdomain.ErrLedgerMismatch):
		respondProblem(c, apierrors.ErrUnprocessable.WithDetail(err.Error()))
	case errors.Is(err, invdomain.ErrInsufficientStock):
		respondProblem(c, apierrors.ErrInsufficientStock.WithDetail(err.Error()))
	case errors.Is(err, ordersdomain.ErrCreditLimitBreach):
		respondProblem(c, apierrors.ErrCreditLimitExceeded.WithDetail(err.Error()))
	case isConcurrentModification(err):
		respondProblem(c, apierrors.ErrConcurrentModification.WithDetail(err.Error()))
	case isStateConflict(err):
		respondProblem(c, apierrors.ErrStateConflict.WithDetail(err.Error()))
	default:
		respondProblem(c, apierrors.ErrInternal.WithDetail(err.Error()))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ordersports.ErrNotFound) ||
		errors.Is(err, invports.ErrNotFound) ||
		errors.Is(err, tripsports.ErrNotFound) ||
		errors.Is(err, payports.ErrNotFound) ||
		errors.Is(err, refports.ErrNotFound) ||
		errors.Is(err, tripsdomain.ErrStopNotFound)
}

func isInvalidInput(err error) bool {
	return errors.Is(err, ordersapp.ErrInvalidInput) ||
		errors.Is(err, invapp.ErrInvalidInput) ||
		errors.Is(err, tripsapp.ErrInvalidInput) ||
		errors.Is(err, payapp.ErrInvalidInput)
}

func isConcurrentModification(err error) bool {
	return errors.Is(err, ordersports.ErrConcurrentModification) ||
		errors.Is(err, invports.ErrConcurrentModification) ||
		errors.Is(err, tripsports.ErrConcurrentModification) ||
		errors.Is(err, payports.ErrConcurrentModification)
}

func isStateConflict(err error) bool {
	return errors.Is(err, ordersdomain.ErrIllegalTransition) ||
		errors.Is(err, ordersdomain.ErrItemsLocked) ||
		errors.Is(err, tripsdomain.ErrIllegalTripTransition) ||
		errors.Is(err, tripsdomain.ErrIllegalStopTransition) ||
		errors.Is(err, tripsdomain.ErrTripNotEditable) ||
		errors.Is(err, tripsdomain.ErrTripNotCancellable) ||
		errors.Is(err, tripsdomain.ErrTripNotComplete) ||
		errors.Is(err, tripsapp.ErrOrderNotReady) ||
		errors.Is(err, tripsapp.ErrOrderAlreadyAssigned) ||
		errors.Is(err, tripsapp.ErrWarehouseMismatch) ||
		errors.Is(err, paydomain.ErrAlreadyInvoiced) ||
		errors.Is(err, paydomain.ErrOrderNotDelivered) ||
		errors.Is(err, invports.ErrDuplicateRecord) ||
		errors.Is(err, payports.ErrDuplicateRecord)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func parseQueryID(c *gin.Context, value string) (int64, bool) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
