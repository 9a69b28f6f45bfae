package sensor

import (
	"fmt"

	"controlling_pump/internal/logger"
	"controlling_pump/internal/models"
)

// Readings holds one sample per channel, indexed by models.ChannelID.
type Readings [models.ChannelCount]models.SensorReading

// Ambient returns the ambient channel reading.
func (r Readings) Ambient() models.SensorReading { return r[models.ChannelAmbient] }

// Water returns the water channel reading.
func (r Readings) Water() models.SensorReading { return r[models.ChannelWater] }

// Addresses pins channels to specific probe addresses. Empty fields are
// filled from discovery order.
type Addresses struct {
	Ambient string
	Water   string
}

// Reader samples every channel once per call.
type Reader struct {
	bus   Bus
	slots [models.ChannelCount]string
	log   *logger.Logger
}

// NewReader runs discovery once and assigns probes to channels. Finding fewer
// probes than channels is not fatal: missing slots always read as disconnected.
func NewReader(bus Bus, pinned Addresses, log *logger.Logger) (*Reader, error) {
	r := &Reader{bus: bus, log: log}
	r.slots[models.ChannelAmbient] = pinned.Ambient
	r.slots[models.ChannelWater] = pinned.Water

	found, err := bus.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover temperature probes: %w", err)
	}
	if len(found) > int(models.ChannelCount) {
		found = found[:models.ChannelCount]
	}
	if len(found) != int(models.ChannelCount) {
		log.Warnw("sensor_discovery_incomplete", "expected", int(models.ChannelCount), "found", len(found))
	}

	r.assign(found)
	for ch, addr := range r.slots {
		log.Infow("sensor_assigned", "channel", models.ChannelID(ch).String(), "address", addr)
	}
	return r, nil
}

// assign fills unpinned slots with discovered addresses not already pinned.
func (r *Reader) assign(found []string) {
	used := make(map[string]bool, len(r.slots))
	for _, a := range r.slots {
		if a != "" {
			used[a] = true
		}
	}
	next := 0
	for ch := range r.slots {
		if r.slots[ch] != "" {
			continue
		}
		for next < len(found) && used[found[next]] {
			next++
		}
		if next == len(found) {
			return
		}
		r.slots[ch] = found[next]
		used[found[next]] = true
		next++
	}
}

// Address returns the probe address assigned to ch, or "" when none was found.
func (r *Reader) Address(ch models.ChannelID) string {
	return r.slots[ch]
}

// SampleAll requests one conversion on the bus and reads every channel,
// retrying each up to MaxReadAttempts times.
func (r *Reader) SampleAll() Readings {
	if err := r.bus.RequestConversion(); err != nil {
		r.log.Warnw("sensor_conversion_failed", "err", err)
	}

	var out Readings
	for ch := range r.slots {
		v := r.readChannel(r.slots[ch])
		out[ch] = models.NewSensorReading(models.ChannelID(ch), v)
		if !out[ch].Valid {
			r.log.Warnw("sensor_disconnected", "channel", models.ChannelID(ch).String(), "attempts", MaxReadAttempts)
		}
	}
	return out
}

func (r *Reader) readChannel(addr string) float32 {
	if addr == "" {
		return models.DisconnectedSentinel
	}
	for i := 0; i < MaxReadAttempts; i++ {
		if v := r.bus.ReadChannel(addr); !models.IsDisconnected(v) {
			return v
		}
	}
	return models.DisconnectedSentinel
}
