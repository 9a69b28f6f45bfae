package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"controlling_pump/internal/logger"
	"controlling_pump/internal/models"
	"controlling_pump/internal/mqtt"
	"controlling_pump/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	publisher mqtt.Publisher
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, publisher mqtt.Publisher, log *logger.Logger) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, publisher: publisher, log: log}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidLimit     = errors.New("invalid limit: must be between 0 and 1000")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, errInvalidTimeRange
	}
	if f.Limit < 0 || f.Limit > maxLogLimit {
		return repository.EventFilter{}, errInvalidLimit
	}
	limit := f.Limit
	if limit == 0 {
		limit = defaultLogLimit
	}

	return repository.EventFilter{From: from, To: to, Type: normalizeEventType(f.Type), Limit: limit}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error) {
	rf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, rf)
}

// Record persists e and mirrors it to MQTT. Failures are logged, never returned:
// event history must not stall the control loop.
func (s *EventLogService) Record(ctx context.Context, e models.PumpEvent) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	e.Type = normalizeEventType(e.Type)

	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Errorw("event_append_failed", "type", e.Type, "err", err)
	}
	if err := s.publisher.PublishEvent(e); err != nil {
		s.log.Warnw("event_publish_failed", "type", e.Type, "err", err)
	}
}
