package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// AvailabilityService computes the free/busy slots of a business day
type AvailabilityService struct {
	calendar providers.CalendarProvider
	hours    config.BusinessHours
	metrics  *observability.Metrics
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(calendar providers.CalendarProvider, hours config.BusinessHours, metrics *observability.Metrics) *AvailabilityService {
	return &AvailabilityService{
		calendar: calendar,
		hours:    hours,
		metrics:  metrics,
	}
}

// Hours returns the business hours slots are generated from
func (s *AvailabilityService) Hours() config.BusinessHours {
	return s.hours
}

// GetAvailability returns every slot of date, marking those that intersect an existing event.
// Callers reject past dates first (see ValidateNotPast).
func (s *AvailabilityService) GetAvailability(ctx context.Context, date entities.CalendarDate) ([]entities.TimeSlot, error) {
	return s.availability(ctx, date, "")
}

// availability computes the day's slots ignoring busy intervals of excludeEventID
func (s *AvailabilityService) availability(ctx context.Context, date entities.CalendarDate, excludeEventID string) ([]entities.TimeSlot, error) {
	ctx, span := observability.StartSpan(ctx, "availability.get")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("availability.date", date.String()))

	slots, err := GenerateSlots(date, s.hours)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	dayStart, dayEnd, err := DayBounds(date, s.hours)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	busy, err := s.calendar.ListBusyIntervals(ctx, dayStart, dayEnd)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	free := 0
	for i := range slots {
		for _, b := range busy {
			if excludeEventID != "" && b.EventID == excludeEventID {
				continue
			}
			if slots[i].Overlaps(b.Start, b.End) {
				slots[i].Available = false
				break
			}
		}
		if slots[i].Available {
			free++
		}
	}

	observability.SetSpanAttributes(span,
		attribute.Int("availability.busy_intervals", len(busy)),
		attribute.Int("availability.free_slots", free),
	)
	observability.RecordFreeSlots(ctx, s.metrics, free)

	return slots, nil
}
