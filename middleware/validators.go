package middleware

import (
	"fmt"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain enum checks to gin's binding validator so request
// structs can use binding:"order_status", binding:"request_status" and binding:"role".
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	checks := map[string]validator.Func{
		"order_status": func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		},
		"request_status": func(fl validator.FieldLevel) bool {
			return models.RequestStatus(fl.Field().String()).Valid()
		},
		"role": func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range checks {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
