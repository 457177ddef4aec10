package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// APIResponse is the standard response envelope.
type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries the machine-readable error payload.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIResponse{Success: false, Error: &ErrorInfo{Code: code, Message: message}})
}

// respondDomainError maps the catalog error taxonomy onto HTTP statuses.
// Upstream supplier failures surface as gateway errors; rate limiting
// propagates the Retry-After hint.
func respondDomainError(c *gin.Context, err error) {
	var rateErr *catalog.RateLimitError
	var authErr *catalog.AuthError
	var transientErr *catalog.TransientError

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, catalog.ErrUnknownSupplier):
		respondError(c, http.StatusBadRequest, "unknown_supplier", err.Error())
	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		respondError(c, http.StatusTooManyRequests, "rate_limited", "supplier rate limit exceeded")
	case errors.As(err, &authErr):
		respondError(c, http.StatusBadGateway, "supplier_auth", "supplier authentication failed")
	case errors.As(err, &transientErr):
		respondError(c, http.StatusBadGateway, "supplier_unavailable", "supplier temporarily unavailable")
	default:
		respondError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
