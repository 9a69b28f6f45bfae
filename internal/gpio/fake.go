package gpio

import "sync"

// FakeOutput is a test double that records every write.
type FakeOutput struct {
	mu sync.Mutex

	// Writes contains every value passed to Set, in order.
	Writes []bool

	// SetError, if set, is returned by Set and the value is not recorded.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, on)
	return nil
}

func (f *FakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Value returns the last written value (false if never written).
func (f *FakeOutput) Value() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Writes) == 0 {
		return false
	}
	return f.Writes[len(f.Writes)-1]
}

// WriteCount returns the number of successful writes.
func (f *FakeOutput) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// Fail makes subsequent Set calls return err (nil clears it).
func (f *FakeOutput) Fail(err error) {
	f.mu.Lock()
	f.SetError = err
	f.mu.Unlock()
}
