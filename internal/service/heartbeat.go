package service

import (
	"context"
	"time"

	"controlling_pump/internal/gpio"
	"controlling_pump/internal/logger"
)

const DefaultHeartbeatPeriod = time.Second

// HeartbeatService toggles the status LED so a stalled process is visible on the board.
type HeartbeatService struct {
	led gpio.Output
	on  bool
	log *logger.Logger
}

func NewHeartbeatService(led gpio.Output, log *logger.Logger) *HeartbeatService {
	return &HeartbeatService{led: led, log: log}
}

// Run toggles the LED every period until ctx is canceled, then drives it low.
func (s *HeartbeatService) Run(ctx context.Context, period time.Duration) {
	if s.led == nil {
		return
	}
	if period <= 0 {
		period = DefaultHeartbeatPeriod
	}
	t := time.NewTicker(period)
	defer t.Stop()
	failing := false
	for {
		select {
		case <-ctx.Done():
			_ = s.led.Set(false)
			return
		case <-t.C:
			err := s.toggle()
			switch {
			case err != nil && !failing:
				s.log.Warnw("heartbeat_write_failed", "err", err)
				failing = true
			case err == nil && failing:
				s.log.Infow("heartbeat_write_recovered")
				failing = false
			}
		}
	}
}

func (s *HeartbeatService) toggle() error {
	next := !s.on
	if err := s.led.Set(next); err != nil {
		return err
	}
	s.on = next
	return nil
}
