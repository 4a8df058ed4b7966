package ports

import (
	"time"

	"sheetdiff/domain/core"
)

// ProgressLevel grades a progress line
type ProgressLevel string

const (
	ProgressInfo  ProgressLevel = "info"
	ProgressWarn  ProgressLevel = "warn"
	ProgressError ProgressLevel = "error"
)

// ProgressEvent is one human-readable line on the comparison side channel
type ProgressEvent struct {
	RunID   core.RunID    `json:"run_id"`
	Stage   string        `json:"stage"`
	Level   ProgressLevel `json:"level"`
	Message string        `json:"message"`
	Time    time.Time     `json:"time"`
}

// ProgressSink consumes progress events. Emit must not block the pipeline
// for long; implementations that forward to slow consumers should buffer or drop.
type ProgressSink interface {
	Emit(ev ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(ev ProgressEvent)

func (f ProgressFunc) Emit(ev ProgressEvent) { f(ev) }
