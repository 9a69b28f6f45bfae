// Package gpio drives digital outputs (pump relay, status LED).
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Output is a single digital output line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Close releases the line, leaving it low.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultChip    = "gpiochip0"
	DefaultPinPump = 4
	DefaultPinLED  = 2
)
