package services

import (
	"context"

	"github.com/zatekoja/clinicbooking/pkg/config"
)

// Configuration report statuses
const (
	ConfigStatusReady      = "ready"
	ConfigStatusIncomplete = "incomplete"
	ConfigStatusError      = "error"
)

// ServiceStatus is the configuration state of one integration
type ServiceStatus struct {
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing"`
}

// EmailStatus adds the result of the relay handshake to the email integration status
type EmailStatus struct {
	ServiceStatus
	Tested bool `json:"tested"`
}

// ServicesStatus groups the integration statuses
type ServicesStatus struct {
	Calendar ServiceStatus `json:"calendar"`
	Email    EmailStatus   `json:"email"`
	Clinic   ServiceStatus `json:"clinic"`
}

// ConfigReport is the operator-facing summary of the deployment's configuration
type ConfigReport struct {
	Status           string         `json:"status"`
	Message          string         `json:"message"`
	Services         ServicesStatus `json:"services"`
	TotalMissing     int            `json:"totalMissing"`
	MissingVariables []string       `json:"missingVariables"`
}

// ConfigStatusService reports which required settings are missing
type ConfigStatusService struct {
	cfg           *config.Config
	notifications *NotificationService
}

// NewConfigStatusService creates a new configuration status service
func NewConfigStatusService(cfg *config.Config, notifications *NotificationService) *ConfigStatusService {
	return &ConfigStatusService{
		cfg:           cfg,
		notifications: notifications,
	}
}

// Report builds the configuration summary. The relay is only contacted when email is fully configured.
func (s *ConfigStatusService) Report(ctx context.Context) *ConfigReport {
	if s.cfg == nil {
		return &ConfigReport{
			Status:           ConfigStatusError,
			Message:          "Failed to test configuration",
			MissingVariables: []string{},
		}
	}

	missing := nonNil(s.cfg.MissingVariables())
	calendar := groupStatus(missing, config.CalendarVariables)
	email := EmailStatus{ServiceStatus: groupStatus(missing, config.EmailVariables)}
	clinic := groupStatus(missing, config.ClinicVariables)

	if email.Configured && s.notifications != nil {
		email.Tested = s.notifications.VerifyConfiguration(ctx)
	}

	report := &ConfigReport{
		Status:  ConfigStatusIncomplete,
		Message: "Some services need configuration",
		Services: ServicesStatus{
			Calendar: calendar,
			Email:    email,
			Clinic:   clinic,
		},
		TotalMissing:     len(missing),
		MissingVariables: missing,
	}
	if calendar.Configured && email.Configured && clinic.Configured {
		report.Status = ConfigStatusReady
		report.Message = "All services are configured and ready"
	}
	return report
}

func groupStatus(missing, group []string) ServiceStatus {
	m := nonNil(filterGroup(missing, group))
	return ServiceStatus{Configured: len(m) == 0, Missing: m}
}

func filterGroup(missing, group []string) []string {
	var out []string
	for _, name := range missing {
		for _, g := range group {
			if name == g {
				out = append(out, name)
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
