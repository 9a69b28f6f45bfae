package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"controlling_pump/internal/gpio"
	"controlling_pump/internal/logger"
)

func TestHeartbeat_TogglesAndTurnsOffOnCancel(t *testing.T) {
	t.Parallel()

	led := gpio.NewFakeOutput()
	hb := NewHeartbeatService(led, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hb.Run(ctx, 2*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for led.WriteCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("heartbeat did not toggle")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	writes := append([]bool(nil), led.Writes...)
	for i := 1; i < len(writes)-1; i++ {
		if writes[i] == writes[i-1] {
			t.Fatalf("writes should alternate: %v", writes)
		}
	}
	if !writes[0] || led.Value() {
		t.Fatalf("first write on, last write off: %v", writes)
	}
}

var errTestLED = errors.New("line busy")

func TestHeartbeat_WriteFailureKeepsState(t *testing.T) {
	t.Parallel()

	led := gpio.NewFakeOutput()
	hb := NewHeartbeatService(led, logger.NewNop())

	led.Fail(errTestLED)
	if err := hb.toggle(); err == nil {
		t.Fatalf("expected error")
	}
	if hb.on {
		t.Fatalf("state must not change on failed write")
	}
	led.Fail(nil)
	if err := hb.toggle(); err != nil || !hb.on {
		t.Fatalf("toggle after recovery: on=%v err=%v", hb.on, err)
	}
}

func TestHeartbeat_NilLEDReturns(t *testing.T) {
	t.Parallel()
	NewHeartbeatService(nil, logger.NewNop()).Run(context.Background(), time.Millisecond)
}
