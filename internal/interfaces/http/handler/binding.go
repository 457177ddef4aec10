package handler

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// skuParam binds and validates the :sku path parameter shared by every
// product endpoint.
type skuParam struct {
	SKU string `uri:"sku" binding:"required,sku"`
}

// RegisterValidations installs the custom binding validations on gin's
// validator engine. Call once before routes are mounted.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("handler: unexpected gin validator engine")
	}
	return v.RegisterValidation("sku", validSKU)
}

// validSKU accepts SKUs that survive canonical sanitization unchanged apart
// from case, so lookups stay bijective with stored keys.
func validSKU(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	return raw != "" && catalog.SanitizeSKU(raw) != ""
}
