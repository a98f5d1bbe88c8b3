package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

func validRequest() entities.AppointmentRequest {
	return entities.AppointmentRequest{
		PatientName:  "Amina Haddad",
		PatientEmail: "amina@example.com",
		PatientPhone: "+213555123456",
		ServiceType:  "Teeth Cleaning",
		Date:         "2025-06-02",
		Time:         "10:00",
	}
}

func TestRequestValidator(t *testing.T) {
	v := services.NewRequestValidator()

	t.Run("accepts a complete request", func(t *testing.T) {
		assert.NoError(t, v.Validate(validRequest()))
	})

	tests := []struct {
		name    string
		mutate  func(r *entities.AppointmentRequest)
		field   string
		message string
	}{
		{"short name", func(r *entities.AppointmentRequest) { r.PatientName = "A" }, "patientName", "Name must be at least 2 characters"},
		{"bad email", func(r *entities.AppointmentRequest) { r.PatientEmail = "not-an-email" }, "patientEmail", "Please enter a valid email address"},
		{"short phone", func(r *entities.AppointmentRequest) { r.PatientPhone = "12345" }, "patientPhone", "Please enter a valid phone number"},
		{"unknown service", func(r *entities.AppointmentRequest) { r.ServiceType = "Haircut" }, "serviceType", "Please select a service"},
		{"missing service", func(r *entities.AppointmentRequest) { r.ServiceType = "" }, "serviceType", "Please select a service"},
		{"impossible date", func(r *entities.AppointmentRequest) { r.Date = "2025-02-30" }, "date", "Invalid date format"},
		{"bad time", func(r *entities.AppointmentRequest) { r.Time = "10am" }, "time", "Invalid time format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
			require.Len(t, appErr.Fields, 1)
			assert.Equal(t, tt.field, appErr.Fields[0].Field)
			assert.Equal(t, tt.message, appErr.Fields[0].Message)
		})
	}

	t.Run("reports every failing field", func(t *testing.T) {
		appErr, ok := apperrors.AsAppError(v.Validate(entities.AppointmentRequest{}))
		require.True(t, ok)
		assert.Len(t, appErr.Fields, 6)
	})
}
