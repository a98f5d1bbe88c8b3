package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicbooking/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/bootstrap"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

type nopMailer struct{ sent int }

func (m *nopMailer) Send(ctx context.Context, msg *entities.EmailMessage) error {
	m.sent++
	return nil
}

func (m *nopMailer) Verify(ctx context.Context) error { return nil }

func newTestCLI(t *testing.T) (*cli, *scheduling.MockCalendar, *nopMailer, *bytes.Buffer) {
	t.Helper()
	calendar := scheduling.NewMockCalendar()
	mailer := &nopMailer{}
	hours := config.DefaultBusinessHours

	notifier, err := services.NewNotificationService(mailer, nil, services.ClinicInfo{Name: "Dental Clinic"}, nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	c := &cli{
		out: out,
		components: &bootstrap.Components{
			Config:        &config.Config{},
			Hours:         hours,
			Calendar:      calendar,
			Notifications: notifier,
			Availability:  services.NewAvailabilityService(calendar, hours, nil),
		},
	}
	return c, calendar, mailer, out
}

func seedAppointment(t *testing.T, calendar *scheduling.MockCalendar, start time.Time) string {
	t.Helper()
	req := entities.AppointmentRequest{
		PatientName:  "Amina Haddad",
		PatientEmail: "amina@example.com",
		PatientPhone: "+213555123456",
		ServiceType:  "Teeth Cleaning",
		Date:         start.Format("2006-01-02"),
		Time:         "10:00",
	}
	id, err := calendar.CreateEvent(context.Background(), entities.NewAppointmentEvent(req, start, start.Add(time.Hour)))
	require.NoError(t, err)
	return id
}

func execute(t *testing.T, c *cli, args ...string) error {
	t.Helper()
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestUpcoming(t *testing.T) {
	c, calendar, _, out := newTestCLI(t)
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	id := seedAppointment(t, calendar, start)

	require.NoError(t, execute(t, c, "upcoming", "--days", "7"))

	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "Amina Haddad")
	assert.Contains(t, out.String(), "Teeth Cleaning")
}

func TestUpcoming_JSON(t *testing.T) {
	c, calendar, _, out := newTestCLI(t)
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	id := seedAppointment(t, calendar, start)

	require.NoError(t, execute(t, c, "upcoming", "--json"))

	var appointments []entities.ScheduledAppointment
	require.NoError(t, json.Unmarshal(out.Bytes(), &appointments))
	require.Len(t, appointments, 1)
	assert.Equal(t, id, appointments[0].EventID)
}

func TestCancel_Notify(t *testing.T) {
	c, calendar, mailer, out := newTestCLI(t)
	id := seedAppointment(t, calendar, time.Now().UTC().Add(72*time.Hour).Truncate(time.Hour))

	require.NoError(t, execute(t, c, "cancel", id, "--notify"))

	assert.Contains(t, out.String(), "Cancelled "+id)
	assert.Contains(t, out.String(), "patient notified: true")
	assert.Equal(t, 1, mailer.sent)

	_, err := calendar.GetEvent(context.Background(), id)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCancel_RequiresEventID(t *testing.T) {
	c, _, _, _ := newTestCLI(t)
	assert.Error(t, execute(t, c, "cancel"))
}

func TestAvailability(t *testing.T) {
	c, _, _, out := newTestCLI(t)

	require.NoError(t, execute(t, c, "availability", "2099-06-01"))

	assert.Contains(t, out.String(), "09:00")
	assert.Contains(t, out.String(), "2099-06-01T08:00:00Z")
	assert.Contains(t, out.String(), "16:00")
}

func TestAvailability_InvalidDate(t *testing.T) {
	c, _, _, _ := newTestCLI(t)
	assert.Error(t, execute(t, c, "availability", "06/01/2099"))
}

func TestVerify_Incomplete(t *testing.T) {
	c, _, _, out := newTestCLI(t)

	err := execute(t, c, "verify")

	assert.Error(t, err)
	assert.Contains(t, out.String(), "incomplete")
	assert.Contains(t, out.String(), "missing GOOGLE_CALENDAR_ID")
}
