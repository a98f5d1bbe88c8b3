package providers

import "github.com/zatekoja/clinicbooking/internal/domain/entities"

// InviteEncoder renders calendar invites as iCalendar documents
type InviteEncoder interface {
	EncodeInvite(invite entities.CalendarInvite) ([]byte, error)
}
