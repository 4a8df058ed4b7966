package progress

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/domain/core"
	"sheetdiff/internal"
	"sheetdiff/ports"
)

func TestChannelSinkDropsWhenFull(t *testing.T) {
	sink := NewChannelSink(2)
	for i := 0; i < 5; i++ {
		sink.Emit(ports.ProgressEvent{Stage: "load"})
	}
	assert.Equal(t, int64(3), sink.Dropped())
	assert.Len(t, sink.Events(), 2)

	sink.Close()
	sink.Emit(ports.ProgressEvent{Stage: "late"})
	sink.Close()

	var got []string
	for ev := range sink.Events() {
		got = append(got, ev.Stage)
	}
	assert.Equal(t, []string{"load", "load"}, got)
}

func TestCollectorConcurrentEmit(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Emit(ports.ProgressEvent{Stage: "diff", Level: ports.ProgressInfo, Message: "x"})
		}()
	}
	wg.Wait()
	assert.Len(t, c.Events(), 20)
	assert.Equal(t, "diff: x", c.Lines()[0])
}

func TestEmitterStampsEvents(t *testing.T) {
	id := core.NewRunID()
	c := NewCollector()
	e := NewEmitter(id, c)

	e.Info("load", "loaded %d rows", 12)
	e.Warn("columns", "column count differs")
	e.Error("save", "disk full")

	events := c.Events()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, id, ev.RunID)
		assert.False(t, ev.Time.IsZero())
	}
	assert.Equal(t, "loaded 12 rows", events[0].Message)
	assert.Equal(t, []string{"column count differs"}, c.Warnings())
	assert.Equal(t, "save [error]: disk full", Format(events[2]))
}

func TestNilSinkDiscards(t *testing.T) {
	e := NewEmitter(core.NewRunID(), nil)
	assert.NotPanics(t, func() { e.Info("load", "ok") })
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	var buf bytes.Buffer
	logSink := NewLogSink(internal.NewLogger(internal.LogLevelInfo, "json", &buf))

	m := NewMulti(a, nil, b, logSink)
	require.Len(t, m, 3)

	m.Emit(ports.ProgressEvent{RunID: core.NewRunID(), Stage: "rows", Level: ports.ProgressWarn, Message: "fallback"})
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
	assert.Contains(t, buf.String(), "rows: fallback")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
