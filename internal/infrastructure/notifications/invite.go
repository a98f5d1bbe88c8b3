package notifications

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

const inviteProductID = "-//Clinic Booking//Appointments//EN"

// ICSEncoder renders appointment invites as iCalendar documents
type ICSEncoder struct{}

// NewICSEncoder creates an invite encoder
func NewICSEncoder() *ICSEncoder {
	return &ICSEncoder{}
}

// EncodeInvite builds a single-event calendar carrying the iTIP method of the invite
func (e *ICSEncoder) EncodeInvite(invite entities.CalendarInvite) ([]byte, error) {
	if invite.UID == "" {
		return nil, fmt.Errorf("invite uid is required")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, inviteProductID)
	cal.Props.SetText(ical.PropMethod, string(invite.Method))

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, invite.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, invite.Stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, invite.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, invite.End.UTC())
	event.Props.SetText(ical.PropSummary, invite.Summary)
	if invite.Description != "" {
		event.Props.SetText(ical.PropDescription, invite.Description)
	}
	if invite.Location != "" {
		event.Props.SetText(ical.PropLocation, invite.Location)
	}

	// Cancellations supersede the original request.
	if invite.Method == entities.InviteMethodCancel {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
		event.Props.SetText(ical.PropSequence, "1")
	} else {
		event.Props.SetText(ical.PropStatus, "CONFIRMED")
		event.Props.SetText(ical.PropSequence, "0")
	}

	if invite.OrganizerEmail != "" {
		event.Props.Set(calendarAddress(ical.PropOrganizer, invite.OrganizerName, invite.OrganizerEmail))
	}
	if invite.AttendeeEmail != "" {
		event.Props.Set(calendarAddress(ical.PropAttendee, invite.AttendeeName, invite.AttendeeEmail))
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode invite: %w", err)
	}
	return buf.Bytes(), nil
}

func calendarAddress(name, commonName, email string) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = "mailto:" + email
	if commonName != "" {
		prop.Params.Set(ical.ParamCommonName, commonName)
	}
	return prop
}
