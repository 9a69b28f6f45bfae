package sensor

import (
	"sync"

	"controlling_pump/internal/models"
)

// FakeBus is a test double that returns scripted readings per address.
type FakeBus struct {
	mu sync.Mutex

	// Addresses is returned by Discover.
	Addresses []string

	// Values contains scripted readings per address. Each ReadChannel call
	// consumes the next value; the last value repeats once exhausted.
	Values map[string][]float32

	// DiscoverError, if set, is returned by Discover.
	DiscoverError error

	// ConversionError, if set, is returned by RequestConversion.
	ConversionError error

	index       map[string]int
	Conversions int
	Reads       map[string]int
}

// NewFakeBus creates a FakeBus with the given addresses and no readings.
func NewFakeBus(addrs ...string) *FakeBus {
	return &FakeBus{
		Addresses: addrs,
		Values:    make(map[string][]float32),
		index:     make(map[string]int),
		Reads:     make(map[string]int),
	}
}

// Script replaces the readings returned for addr.
func (f *FakeBus) Script(addr string, values ...float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Values[addr] = values
	f.index[addr] = 0
}

func (f *FakeBus) RequestConversion() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Conversions++
	return f.ConversionError
}

func (f *FakeBus) ReadChannel(addr string) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads[addr]++
	vals := f.Values[addr]
	if len(vals) == 0 {
		return models.DisconnectedSentinel
	}
	i := f.index[addr]
	if i < len(vals)-1 {
		f.index[addr] = i + 1
	}
	return vals[i]
}

func (f *FakeBus) Discover() ([]string, error) {
	if f.DiscoverError != nil {
		return nil, f.DiscoverError
	}
	return append([]string(nil), f.Addresses...), nil
}
