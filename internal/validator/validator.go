// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"woodshop/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom tags on an arbitrary validator instance.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("order_status", validateOrderStatus)
	_ = v.RegisterValidation("delivery_status", validateDeliveryStatus)
	_ = v.RegisterValidation("stock_operation", validateStockOperation)
	_ = v.RegisterValidation("date_ymd", validateDate)
	_ = v.RegisterValidation("http_url", validateHTTPURL)
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	return models.OrderStatus(fl.Field().String()).Valid()
}

func validateDeliveryStatus(fl validator.FieldLevel) bool {
	switch models.DeliveryStatus(fl.Field().String()) {
	case models.DeliveryPending, models.DeliveryScheduled, models.DeliveryDelivered, models.DeliveryCancelled:
		return true
	}
	return false
}

func validateStockOperation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "add", "remove":
		return true
	}
	return false
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
