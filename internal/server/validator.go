package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"example.com/expense-tracker/backend/internal/tips"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор на базе go-playground/validator с тегом category.
func NewValidator() *CustomValidator {
	v := validator.New()
	if err := v.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("register category validation: %v", err))
	}
	return &CustomValidator{validator: v}
}

// Validate запускает проверку структуры по тегам.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func validateCategory(fl validator.FieldLevel) bool {
	_, ok := tips.ParseCategory(fl.Field().String())
	return ok
}
