package logger

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultFanOutQueue = 64

// LineSink receives rendered log lines. Implementations must not log.
type LineSink interface {
	WriteLine(line string)
}

// FanOut copies log lines to a LineSink from a single goroutine.
// Lines produced while the queue is full are dropped.
type FanOut struct {
	mu      sync.RWMutex
	sink    LineSink
	lines   chan string
	dropped atomic.Uint64
	onDrop  func()
}

// NewFanOut creates a fan-out with the given queue depth.
func NewFanOut(depth int) *FanOut {
	if depth <= 0 {
		depth = defaultFanOutQueue
	}
	return &FanOut{lines: make(chan string, depth)}
}

// SetSink installs the destination. Lines logged before a sink exists are discarded.
func (f *FanOut) SetSink(s LineSink) {
	f.mu.Lock()
	f.sink = s
	f.mu.Unlock()
}

// OnDrop registers a callback invoked for every dropped line.
func (f *FanOut) OnDrop(fn func()) {
	f.mu.Lock()
	f.onDrop = fn
	f.mu.Unlock()
}

// Dropped returns the number of lines discarded because the queue was full.
func (f *FanOut) Dropped() uint64 {
	return f.dropped.Load()
}

func (f *FanOut) enqueue(line string) {
	f.mu.RLock()
	hasSink := f.sink != nil
	onDrop := f.onDrop
	f.mu.RUnlock()
	if !hasSink {
		return
	}
	select {
	case f.lines <- line:
	default:
		f.dropped.Add(1)
		if onDrop != nil {
			onDrop()
		}
	}
}

// Run forwards queued lines to the sink until ctx is canceled.
func (f *FanOut) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-f.lines:
			f.mu.RLock()
			s := f.sink
			f.mu.RUnlock()
			if s != nil {
				s.WriteLine(line)
			}
		}
	}
}

func (f *FanOut) core(level zapcore.LevelEnabler) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	cfg.EncodeCaller = nil
	cfg.CallerKey = ""
	return &fanOutCore{
		LevelEnabler: level,
		enc:          zapcore.NewConsoleEncoder(cfg),
		out:          f,
	}
}

// fanOutCore renders entries to single text lines for FanOut.
type fanOutCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	out *FanOut
}

func (c *fanOutCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.enc.Clone()
	for _, fld := range fields {
		fld.AddTo(clone)
	}
	return &fanOutCore{LevelEnabler: c.LevelEnabler, enc: clone, out: c.out}
}

func (c *fanOutCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *fanOutCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := strings.TrimRight(buf.String(), "\n")
	buf.Free()
	c.out.enqueue(line)
	return nil
}

func (c *fanOutCore) Sync() error { return nil }
