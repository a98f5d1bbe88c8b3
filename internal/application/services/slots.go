package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

var (
	calendarDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTimePattern    = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseCalendarDate parses a YYYY-MM-DD string into its date components.
// The string is never interpreted as an instant, so the host zone cannot shift the day.
func ParseCalendarDate(s string) (entities.CalendarDate, error) {
	if !calendarDatePattern.MatchString(s) {
		return entities.CalendarDate{}, apperrors.NewValidationError("Invalid date format. Use YYYY-MM-DD")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return entities.CalendarDate{}, apperrors.NewValidationError(fmt.Sprintf("Invalid date: %s", s))
	}
	return entities.CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// parseClockTime splits an HH:MM string into hour and minute
func parseClockTime(s string) (int, int, error) {
	if !clockTimePattern.MatchString(s) {
		return 0, 0, apperrors.NewValidationError("Invalid time format. Use HH:MM")
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, apperrors.NewValidationError(fmt.Sprintf("Invalid time: %s", s))
	}
	return t.Hour(), t.Minute(), nil
}

func businessLocation(hours config.BusinessHours) (*time.Location, error) {
	if err := hours.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	loc, err := hours.Location()
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	return loc, nil
}

// GenerateSlots returns the business-day slots of date in UTC, ascending and contiguous.
// Every boundary is computed from the local wall clock of the business zone.
func GenerateSlots(date entities.CalendarDate, hours config.BusinessHours) ([]entities.TimeSlot, error) {
	loc, err := businessLocation(hours)
	if err != nil {
		return nil, err
	}

	step := int(hours.SlotDuration / time.Minute)
	count := hours.SlotsPerDay()
	slots := make([]entities.TimeSlot, 0, count)
	for i := 0; i < count; i++ {
		offset := hours.StartHour*60 + i*step
		start := time.Date(date.Year, date.Month, date.Day, 0, offset, 0, 0, loc)
		end := time.Date(date.Year, date.Month, date.Day, 0, offset+step, 0, 0, loc)
		slots = append(slots, entities.TimeSlot{
			Start:     start.UTC(),
			End:       end.UTC(),
			Available: true,
		})
	}
	return slots, nil
}

// DayBounds returns local midnight of date and of the following day, in UTC
func DayBounds(date entities.CalendarDate, hours config.BusinessHours) (time.Time, time.Time, error) {
	loc, err := businessLocation(hours)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := date.In(loc)
	end := time.Date(date.Year, date.Month, date.Day+1, 0, 0, 0, 0, loc)
	return start.UTC(), end.UTC(), nil
}

// SlotStart converts a local HH:MM on date to a UTC instant
func SlotStart(date entities.CalendarDate, clock string, hours config.BusinessHours) (time.Time, error) {
	loc, err := businessLocation(hours)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := parseClockTime(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day, hour, minute, 0, 0, loc).UTC(), nil
}

// findSlot returns the slot starting at start, if any
func findSlot(slots []entities.TimeSlot, start time.Time) (entities.TimeSlot, bool) {
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return slot, true
		}
	}
	return entities.TimeSlot{}, false
}

// ValidateNotPast rejects dates before today in the business zone
func ValidateNotPast(date entities.CalendarDate, now time.Time, hours config.BusinessHours) error {
	loc, err := businessLocation(hours)
	if err != nil {
		return err
	}
	if date.Before(entities.DateOf(now, loc)) {
		return apperrors.NewValidationError("Cannot check availability for past dates")
	}
	return nil
}
