package scheduling

import "github.com/zatekoja/clinicbooking/internal/domain/entities"

// Private extended property keys carrying the booking request on its calendar event
const (
	propSource       = "bookingSource"
	propPatientName  = "patientName"
	propPatientEmail = "patientEmail"
	propPatientPhone = "patientPhone"
	propServiceType  = "serviceType"
	propDate         = "date"
	propTime         = "time"
	propNotes        = "notes"

	bookingSourceWebsite = "website"
)

func encodeDetails(req entities.AppointmentRequest) map[string]string {
	props := map[string]string{
		propSource:       bookingSourceWebsite,
		propPatientName:  req.PatientName,
		propPatientEmail: req.PatientEmail,
		propPatientPhone: req.PatientPhone,
		propServiceType:  req.ServiceType,
		propDate:         req.Date,
		propTime:         req.Time,
	}
	if req.Notes != "" {
		props[propNotes] = req.Notes
	}
	return props
}

// decodeDetails recovers the booking request; ok is false for events created elsewhere
func decodeDetails(props map[string]string) (entities.AppointmentRequest, bool) {
	if props[propSource] != bookingSourceWebsite {
		return entities.AppointmentRequest{}, false
	}
	return entities.AppointmentRequest{
		PatientName:  props[propPatientName],
		PatientEmail: props[propPatientEmail],
		PatientPhone: props[propPatientPhone],
		ServiceType:  props[propServiceType],
		Date:         props[propDate],
		Time:         props[propTime],
		Notes:        props[propNotes],
	}, true
}
