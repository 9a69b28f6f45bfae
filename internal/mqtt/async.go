package mqtt

import (
	"context"
	"errors"

	"controlling_pump/internal/logger"
	"controlling_pump/internal/metrics"
	"controlling_pump/internal/models"
)

// DefaultQueueDepth bounds the messages waiting for the broker.
const DefaultQueueDepth = 32

var ErrQueueFull = errors.New("mqtt: publish queue full")

// AsyncPublisher hands messages to a wrapped Publisher from a single goroutine,
// so a slow or unreachable broker never blocks the caller. Messages produced
// while the queue is full are dropped.
type AsyncPublisher struct {
	next  Publisher
	queue chan func() error
	log   *logger.Logger
}

// NewAsyncPublisher wraps next. Run must be started for anything to be sent.
func NewAsyncPublisher(next Publisher, depth int, log *logger.Logger) *AsyncPublisher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AsyncPublisher{next: next, queue: make(chan func() error, depth), log: log}
}

func (p *AsyncPublisher) PublishTelemetry(t models.Telemetry) error {
	return p.enqueue(func() error { return p.next.PublishTelemetry(t) })
}

func (p *AsyncPublisher) PublishEvent(e models.PumpEvent) error {
	return p.enqueue(func() error { return p.next.PublishEvent(e) })
}

func (p *AsyncPublisher) enqueue(publish func() error) error {
	select {
	case p.queue <- publish:
		return nil
	default:
		metrics.RecordMQTTDrop()
		return ErrQueueFull
	}
}

// Run publishes queued messages until ctx is canceled.
func (p *AsyncPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case publish := <-p.queue:
			if err := publish(); err != nil {
				metrics.RecordMQTTFailure()
				p.log.Warnw("mqtt_publish_failed", "err", err)
			}
		}
	}
}

// Close disconnects the wrapped publisher.
func (p *AsyncPublisher) Close() error {
	return p.next.Close()
}
