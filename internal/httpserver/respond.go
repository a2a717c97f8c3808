package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service/identity"

	"github.com/gin-gonic/gin"
)

// envelope is the wire shape of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondNullable keeps a null data field in the payload, used by cart
// mutations that may delete the cart.
func respondNullable(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondError maps the error taxonomy onto status codes. Unknown errors
// are reported generically unless the server runs in dev mode.
func respondError(c *gin.Context, devMode bool, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case domain.IsValidation(err), domain.IsInsufficientStock(err),
		errors.Is(err, domain.ErrInvalidCoupon), errors.Is(err, domain.ErrEmptyCart):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, identity.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrPaymentDeclined):
		status = http.StatusPaymentRequired
		message = err.Error()
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	default:
		if devMode {
			message = err.Error()
		}
	}

	c.JSON(status, envelope{Success: false, Message: message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: message})
}
