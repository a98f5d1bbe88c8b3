package providers

import (
	"context"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

// Mailer delivers rendered emails through a mail relay
type Mailer interface {
	Send(ctx context.Context, msg *entities.EmailMessage) error

	// Verify connects and authenticates with the relay without sending mail
	Verify(ctx context.Context) error
}
