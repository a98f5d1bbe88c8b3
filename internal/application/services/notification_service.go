package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectDateLayout = "Jan 02, 2006"
	bodyDateLayout    = "January 02, 2006"

	businessSenderName = "Website Bookings"
	inviteFilename     = "appointment.ics"
	inviteContentType  = "text/calendar"
)

// ClinicInfo identifies the clinic in outgoing emails
type ClinicInfo struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

// ClinicInfoFromConfig applies the display defaults for unset clinic fields
func ClinicInfoFromConfig(cfg config.ClinicConfig) ClinicInfo {
	info := ClinicInfo{
		Name:    cfg.Name,
		Phone:   cfg.Phone,
		Address: cfg.Address,
		Email:   cfg.Email,
	}
	if info.Name == "" {
		info.Name = "Dental Clinic"
	}
	if info.Phone == "" {
		info.Phone = "Not provided"
	}
	if info.Address == "" {
		info.Address = "Not provided"
	}
	return info
}

// NotificationContext contains all data needed for notification rendering
type NotificationContext struct {
	EventID      string
	PatientName  string
	PatientEmail string
	PatientPhone string
	Service      string
	Notes        string
	Date         string
	Time         string
	Clinic       ClinicInfo
}

// NotificationService renders appointment emails and hands them to the mailer
type NotificationService struct {
	mailer    providers.Mailer
	invites   providers.InviteEncoder
	clinic    ClinicInfo
	templates *template.Template
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewNotificationService parses the embedded templates once; invites may be nil
func NewNotificationService(mailer providers.Mailer, invites providers.InviteEncoder, clinic ClinicInfo, metrics *observability.Metrics) (*NotificationService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &NotificationService{
		mailer:    mailer,
		invites:   invites,
		clinic:    clinic,
		templates: tmpl,
		metrics:   metrics,
		now:       time.Now,
	}, nil
}

// SendPatientConfirmation emails the patient their booking details with a calendar invite
func (n *NotificationService) SendPatientConfirmation(ctx context.Context, notice entities.AppointmentNotice) error {
	data, err := n.buildContext(notice)
	if err != nil {
		return err
	}

	msg, err := n.render(entities.NotificationPatientConfirmation, "patient_confirmation.html", data)
	if err != nil {
		return err
	}
	msg.FromName = n.clinic.Name
	msg.To = notice.Appointment.PatientEmail
	msg.Subject = fmt.Sprintf("Appointment Confirmation - %s", data.subjectDate)

	if err := n.attachInvite(msg, notice, entities.InviteMethodRequest); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", notice.EventID).Msg("Sending confirmation without calendar invite")
	}

	return n.send(ctx, msg)
}

// SendBusinessNotification emails the clinic inbox about a new booking
func (n *NotificationService) SendBusinessNotification(ctx context.Context, notice entities.AppointmentNotice) error {
	if n.clinic.Email == "" {
		n.record(ctx, entities.NotificationBusinessNotification, false)
		return apperrors.NewConfigurationError("Clinic email not configured", "CLINIC_EMAIL")
	}

	data, err := n.buildContext(notice)
	if err != nil {
		return err
	}

	msg, err := n.render(entities.NotificationBusinessNotification, "business_notification.html", data)
	if err != nil {
		return err
	}
	msg.FromName = businessSenderName
	msg.To = n.clinic.Email
	msg.Subject = fmt.Sprintf("New Appointment: %s - %s", notice.Appointment.PatientName, data.subjectDate)

	return n.send(ctx, msg)
}

// SendReminder emails the patient the day before their appointment
func (n *NotificationService) SendReminder(ctx context.Context, notice entities.AppointmentNotice) error {
	data, err := n.buildContext(notice)
	if err != nil {
		return err
	}

	msg, err := n.render(entities.NotificationReminder, "appointment_reminder.html", data)
	if err != nil {
		return err
	}
	msg.FromName = n.clinic.Name
	msg.To = notice.Appointment.PatientEmail
	msg.Subject = fmt.Sprintf("Reminder: Your appointment tomorrow at %s", notice.Appointment.Time)

	return n.send(ctx, msg)
}

// SendCancellationNotice tells the patient their appointment was cancelled
func (n *NotificationService) SendCancellationNotice(ctx context.Context, notice entities.AppointmentNotice) error {
	data, err := n.buildContext(notice)
	if err != nil {
		return err
	}

	msg, err := n.render(entities.NotificationCancellation, "cancellation_notice.html", data)
	if err != nil {
		return err
	}
	msg.FromName = n.clinic.Name
	msg.To = notice.Appointment.PatientEmail
	msg.Subject = fmt.Sprintf("Appointment Cancelled - %s", data.subjectDate)

	if err := n.attachInvite(msg, notice, entities.InviteMethodCancel); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", notice.EventID).Msg("Sending cancellation without calendar invite")
	}

	return n.send(ctx, msg)
}

// VerifyConfiguration reports whether the mail relay accepts our credentials
func (n *NotificationService) VerifyConfiguration(ctx context.Context) bool {
	if err := n.mailer.Verify(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Email configuration check failed")
		return false
	}
	return true
}

type renderData struct {
	NotificationContext
	subjectDate string
}

func (n *NotificationService) buildContext(notice entities.AppointmentNotice) (renderData, error) {
	appt := notice.Appointment
	date, err := ParseCalendarDate(appt.Date)
	if err != nil {
		return renderData{}, err
	}
	// Only the components are formatted, so UTC here never shifts the day
	day := date.In(time.UTC)

	return renderData{
		NotificationContext: NotificationContext{
			EventID:      notice.EventID,
			PatientName:  appt.PatientName,
			PatientEmail: appt.PatientEmail,
			PatientPhone: appt.PatientPhone,
			Service:      appt.ServiceType,
			Notes:        appt.Notes,
			Date:         day.Format(bodyDateLayout),
			Time:         appt.Time,
			Clinic:       n.clinic,
		},
		subjectDate: day.Format(subjectDateLayout),
	}, nil
}

func (n *NotificationService) render(kind entities.NotificationType, name string, data renderData) (*entities.EmailMessage, error) {
	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, name, data.NotificationContext); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return &entities.EmailMessage{
		Type:     kind,
		HTMLBody: body.String(),
	}, nil
}

func (n *NotificationService) attachInvite(msg *entities.EmailMessage, notice entities.AppointmentNotice, method entities.InviteMethod) error {
	if n.invites == nil || notice.EventID == "" || notice.Start.IsZero() {
		return nil
	}
	appt := notice.Appointment
	content, err := n.invites.EncodeInvite(entities.CalendarInvite{
		UID:            notice.EventID,
		Method:         method,
		Summary:        fmt.Sprintf("%s - %s", appt.ServiceType, n.clinic.Name),
		Description:    entities.EventDescription(appt),
		Location:       n.clinic.Address,
		Start:          notice.Start,
		End:            notice.End,
		OrganizerName:  n.clinic.Name,
		OrganizerEmail: n.clinic.Email,
		AttendeeName:   appt.PatientName,
		AttendeeEmail:  appt.PatientEmail,
		Stamp:          n.now(),
	})
	if err != nil {
		return err
	}
	msg.Attachments = append(msg.Attachments, entities.EmailAttachment{
		Filename:    inviteFilename,
		ContentType: inviteContentType,
		Content:     content,
	})
	return nil
}

func (n *NotificationService) send(ctx context.Context, msg *entities.EmailMessage) error {
	err := n.mailer.Send(ctx, msg)
	n.record(ctx, msg.Type, err == nil)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("notification_type", string(msg.Type)).
			Msg("Failed to send email")
		return err
	}
	observability.LoggerFromContext(ctx).Info().
		Str("notification_type", string(msg.Type)).
		Msg("Email sent")
	return nil
}

func (n *NotificationService) record(ctx context.Context, kind entities.NotificationType, sent bool) {
	observability.RecordEmail(ctx, n.metrics, string(kind), sent)
}
