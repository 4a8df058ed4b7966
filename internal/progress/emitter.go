package progress

import (
	"fmt"
	"time"

	"sheetdiff/domain/core"
	"sheetdiff/ports"
)

// Emitter stamps events with a run id and the current time
type Emitter struct {
	runID core.RunID
	sink  ports.ProgressSink
	now   func() time.Time
}

// NewEmitter wraps sink; a nil sink discards
func NewEmitter(runID core.RunID, sink ports.ProgressSink) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{runID: runID, sink: sink, now: time.Now}
}

func (e *Emitter) emit(level ports.ProgressLevel, stage, format string, args ...interface{}) {
	e.sink.Emit(ports.ProgressEvent{
		RunID:   e.runID,
		Stage:   stage,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Time:    e.now(),
	})
}

func (e *Emitter) Info(stage, format string, args ...interface{}) {
	e.emit(ports.ProgressInfo, stage, format, args...)
}

func (e *Emitter) Warn(stage, format string, args ...interface{}) {
	e.emit(ports.ProgressWarn, stage, format, args...)
}

func (e *Emitter) Error(stage, format string, args ...interface{}) {
	e.emit(ports.ProgressError, stage, format, args...)
}

// RunID is the id every emitted event carries
func (e *Emitter) RunID() core.RunID { return e.runID }
