package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tasknest/internal/domain/model"
)

// RegisterValidations hooks custom rules into gin's binding validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("taskcategory", func(fl validator.FieldLevel) bool {
		return model.TaskCategory(fl.Field().String()).Valid()
	})
}
