package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront-cart/internal/domain"
	cartsvc "storefront-cart/internal/service/cart"
	customersvc "storefront-cart/internal/service/customer"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps service errors to status codes. Unmapped errors are
// recorded on the context and reported as 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "not found", Code: "not_found"})
	case errors.Is(err, domain.ErrAlreadyInCart):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error(), Code: "already_in_cart"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error(), Code: "already_exists"})
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error(), Code: "invalid_credentials"})
	case errors.Is(err, cartsvc.ErrInvalidInput), errors.Is(err, customersvc.ErrInvalidSignup):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "invalid_request"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "invalid_request"})
}
