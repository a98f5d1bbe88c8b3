package config

import (
	"fmt"
	"time"

	// Embedded zone database so the business zone resolves on hosts without one
	_ "time/tzdata"
)

// BusinessHours describes the bookable window of a business day in its local zone
type BusinessHours struct {
	StartHour    int
	EndHour      int
	SlotDuration time.Duration
	TimeZone     string
}

// DefaultBusinessHours is the clinic's fixed schedule: 09:00-17:00 Africa/Algiers, one-hour slots.
// It is a process-wide constant and is not read from the environment.
var DefaultBusinessHours = BusinessHours{
	StartHour:    9,
	EndHour:      17,
	SlotDuration: time.Hour,
	TimeZone:     "Africa/Algiers",
}

// Location resolves the configured IANA zone
func (b BusinessHours) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", b.TimeZone, err)
	}
	return loc, nil
}

// Validate checks that the window splits into whole slots
func (b BusinessHours) Validate() error {
	if b.StartHour < 0 || b.EndHour > 24 || b.EndHour <= b.StartHour {
		return fmt.Errorf("invalid business hours %d-%d", b.StartHour, b.EndHour)
	}
	if b.SlotDuration <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}
	window := time.Duration(b.EndHour-b.StartHour) * time.Hour
	if window%b.SlotDuration != 0 {
		return fmt.Errorf("slot duration %s does not divide the %s business window", b.SlotDuration, window)
	}
	return nil
}

// SlotsPerDay returns the number of slots in one business day
func (b BusinessHours) SlotsPerDay() int {
	return int(time.Duration(b.EndHour-b.StartHour) * time.Hour / b.SlotDuration)
}
