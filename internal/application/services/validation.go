package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// fieldMessages maps a JSON field to the message shown for any rule it breaks
var fieldMessages = map[string]string{
	"patientName":  "Name must be at least 2 characters",
	"patientEmail": "Please enter a valid email address",
	"patientPhone": "Please enter a valid phone number",
	"serviceType":  "Please select a service",
	"date":         "Invalid date format",
	"time":         "Invalid time format",
}

// RequestValidator checks appointment requests field by field
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator with the booking rules registered
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegisterValidation(v, "service", func(fl validator.FieldLevel) bool {
		return entities.IsKnownService(fl.Field().String())
	})
	mustRegisterValidation(v, "calendardate", func(fl validator.FieldLevel) bool {
		_, err := ParseCalendarDate(fl.Field().String())
		return err == nil
	})
	mustRegisterValidation(v, "clocktime", func(fl validator.FieldLevel) bool {
		_, _, err := parseClockTime(fl.Field().String())
		return err == nil
	})
	return &RequestValidator{validate: v}
}

func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Validate returns a validation error listing every failing field, or nil
func (v *RequestValidator) Validate(req entities.AppointmentRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("Invalid input data")
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " failed " + fe.Tag()
		}
		fields = append(fields, apperrors.FieldError{Field: fe.Field(), Message: msg})
	}
	return apperrors.NewFieldValidationError("Invalid input data", fields)
}
