package services

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/apperrors"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/pkg/utils"
	"github.com/go-playground/validator/v10"
)

// NewValidator returns the validator shared by all services. Field names in
// messages come from json tags. The "username" tag applies
// utils.ValidateUsername and "currency" accepts models.Currencies.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return utils.ValidateUsername(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.Currencies, fl.Field().String())
	})
	return v
}

var fieldLabels = map[string]string{
	"username":        "Username",
	"email":           "Email",
	"password":        "Password",
	"currentPassword": "Current password",
	"newPassword":     "New password",
	"title":           "Title",
	"url":             "URL",
	"name":            "Name",
	"description":     "Description",
	"price":           "Price",
	"id":              "Id",
	"order":           "Order",
}

var urlMessages = map[string]string{
	"url":      "Invalid URL",
	"icon":     "Invalid icon URL",
	"imageUrl": "Invalid image URL",
}

func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Wrap(err, "validate")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperrors.NewValidation(msgs...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email"
	case "url":
		if msg, ok := urlMessages[field]; ok {
			return msg
		}
		return "Invalid " + field
	case "username":
		if err := utils.ValidateUsername(stringValue(fe.Value())); err != nil {
			return err.Error()
		}
		return "Invalid username"
	case "min":
		if isString && fe.Param() == "1" {
			return label + " is required"
		}
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "currency":
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.Join(models.Currencies, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}
