// Package progress provides ProgressSink implementations for the comparison
// side channel: buffered channels for streaming callers, a logger mirror for
// operators and an in-memory collector for synchronous responses.
package progress

import (
	"sync"
	"sync/atomic"

	"sheetdiff/internal"
	"sheetdiff/ports"
)

// ChannelSink forwards events to a buffered channel. When the buffer is full
// the event is dropped and counted.
type ChannelSink struct {
	ch      chan ports.ProgressEvent
	dropped atomic.Int64
	closed  atomic.Bool
	mu      sync.RWMutex
}

// NewChannelSink creates a sink with the given buffer size
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan ports.ProgressEvent, buffer)}
}

// Emit never blocks
func (s *ChannelSink) Emit(ev ports.ProgressEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Events is the receive side
func (s *ChannelSink) Events() <-chan ports.ProgressEvent {
	return s.ch
}

// Dropped counts events lost to a full buffer
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close closes the channel; later Emits are ignored
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}

// LogSink mirrors progress lines into the logger
type LogSink struct {
	logger *internal.Logger
}

func NewLogSink(logger *internal.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ev ports.ProgressEvent) {
	switch ev.Level {
	case ports.ProgressError:
		s.logger.Error("[%s] %s: %s", ev.RunID.Short(), ev.Stage, ev.Message)
	case ports.ProgressWarn:
		s.logger.Warn("[%s] %s: %s", ev.RunID.Short(), ev.Stage, ev.Message)
	default:
		s.logger.Info("[%s] %s: %s", ev.RunID.Short(), ev.Stage, ev.Message)
	}
}

// Collector keeps every event in memory
type Collector struct {
	mu     sync.Mutex
	events []ports.ProgressEvent
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Emit(ev ports.ProgressEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

// Events returns a copy of the collected events in emission order
func (c *Collector) Events() []ports.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.ProgressEvent(nil), c.events...)
}

// Lines renders the collected events as "stage: message" strings
func (c *Collector) Lines() []string {
	events := c.Events()
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, Format(ev))
	}
	return lines
}

// Warnings returns the messages of warn-level events
func (c *Collector) Warnings() []string {
	var out []string
	for _, ev := range c.Events() {
		if ev.Level == ports.ProgressWarn {
			out = append(out, ev.Message)
		}
	}
	return out
}

// Multi fans out to every non-nil sink
type Multi []ports.ProgressSink

// NewMulti drops nil sinks
func NewMulti(sinks ...ports.ProgressSink) Multi {
	m := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m Multi) Emit(ev ports.ProgressEvent) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Discard drops everything
var Discard ports.ProgressSink = ports.ProgressFunc(func(ports.ProgressEvent) {})

// Format renders one event as a single human-readable line
func Format(ev ports.ProgressEvent) string {
	if ev.Level == ports.ProgressInfo || ev.Level == "" {
		return ev.Stage + ": " + ev.Message
	}
	return ev.Stage + " [" + string(ev.Level) + "]: " + ev.Message
}
