// Package sensor reads the ambient and water temperature probes sharing a
// one-wire bus. Failures are never returned to callers: an unreadable probe is
// reported as models.DisconnectedSentinel.
package sensor

// MaxReadAttempts bounds the reads per channel per sample.
const MaxReadAttempts = 5

// Bus is a shared temperature bus with addressable probes.
type Bus interface {
	// RequestConversion asks every probe on the bus to start a conversion.
	RequestConversion() error
	// ReadChannel returns the last converted value of the probe at addr,
	// or models.DisconnectedSentinel.
	ReadChannel(addr string) float32
	// Discover enumerates probe addresses on the bus.
	Discover() ([]string, error)
}
