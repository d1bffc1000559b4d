package handlers

import (
	"errors"
	"net/http"

	"go-pos-backoffice/internal/ai"
	"go-pos-backoffice/internal/catalog"
	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/storage"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const moduleName = "handlers"

var (
	errInvalidID = errors.New("invalid id")
	errNotFound  = errors.New("not found")
)

// statusFor maps domain and persistence errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	var vErr *sales.ValidationError
	switch {
	case errors.Is(err, sales.ErrSaleNotFound),
		errors.Is(err, sales.ErrCustomerNotFound),
		errors.Is(err, sales.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, errNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, sales.ErrInsufficientStock),
		errors.Is(err, sales.ErrCreditLimitExceeded),
		errors.Is(err, sales.ErrSaleNotPayable),
		errors.Is(err, sales.ErrNoExchangeRate),
		errors.Is(err, sales.ErrTotalsMismatch):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, database.ErrLockNotObtained):
		return http.StatusConflict, err.Error()
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "a record with the same unique value already exists"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return http.StatusConflict, "record is linked to existing records"

	case errors.As(err, &vErr),
		errors.Is(err, sales.ErrEmptyCart),
		errors.Is(err, sales.ErrPaymentRequired),
		errors.Is(err, sales.ErrReferenceRequired),
		errors.Is(err, sales.ErrPaymentMethodNotFound),
		errors.Is(err, sales.ErrNoPayments),
		errors.Is(err, sales.ErrInvalidAmount),
		errors.Is(err, sales.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidMovementType),
		errors.Is(err, catalog.ErrInvalidPrefix),
		errors.Is(err, utils.ErrInvalidPhone),
		errors.Is(err, storage.ErrNotAnImage),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, errInvalidID):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ai.ErrDisabled):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondError writes {"error": ...} and logs anything unexpected.
func (h *Handler) respondError(c *gin.Context, funcName string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		config.LogError(h.Logger, moduleName, funcName, c.Request.Method+" "+c.FullPath(), nil, err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
