package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/internal"
	"sheetdiff/ports"
)

// Event types streamed to SSE clients
const (
	EventProgress = "progress"
	EventSummary  = "summary"
)

// RunEvent is one SSE message for a comparison run
type RunEvent struct {
	RunID     core.RunID           `json:"run_id"`
	EventType string               `json:"event_type"`
	Progress  *ports.ProgressEvent `json:"progress,omitempty"`
	Summary   *run.Summary         `json:"summary,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// sseClient represents a connected SSE client
type sseClient struct {
	runID   core.RunID
	channel chan RunEvent
}

// runLog is the replay buffer of one run
type runLog struct {
	events     []RunEvent
	finishedAt time.Time
}

// ProgressHub fans comparison progress out to SSE clients keyed by run id.
// Events are kept per run so clients that subscribe late get a replay; runs
// are forgotten some time after their summary event.
type ProgressHub struct {
	clients    map[core.RunID]map[chan RunEvent]bool
	runs       map[core.RunID]*runLog
	register   chan sseClient
	unregister chan sseClient
	broadcast  chan RunEvent
	done       chan struct{}
	closeOnce  sync.Once

	maxEvents    int
	retention    time.Duration
	pingInterval time.Duration
	logger       *internal.Logger
}

// NewProgressHub creates a hub and starts its dispatch loop
func NewProgressHub(logger *internal.Logger) *ProgressHub {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	hub := &ProgressHub{
		clients:      make(map[core.RunID]map[chan RunEvent]bool),
		runs:         make(map[core.RunID]*runLog),
		register:     make(chan sseClient, 10),
		unregister:   make(chan sseClient, 10),
		broadcast:    make(chan RunEvent, 256),
		done:         make(chan struct{}),
		maxEvents:    500,
		retention:    10 * time.Minute,
		pingInterval: 30 * time.Second,
		logger:       logger,
	}

	go hub.run()
	return hub
}

// run processes hub operations
func (h *ProgressHub) run() {
	prune := time.NewTicker(time.Minute)
	defer prune.Stop()
	for {
		select {
		case client := <-h.register:
			if h.clients[client.runID] == nil {
				h.clients[client.runID] = make(map[chan RunEvent]bool)
			}
			h.clients[client.runID][client.channel] = true
			if rl, ok := h.runs[client.runID]; ok {
				for _, ev := range rl.events {
					h.deliver(client.channel, ev)
				}
			}
			h.logger.Debug("[SSE] Client registered for run %s (total clients: %d)",
				client.runID.Short(), len(h.clients[client.runID]))

		case client := <-h.unregister:
			if clients, exists := h.clients[client.runID]; exists {
				delete(clients, client.channel)
				if len(clients) == 0 {
					delete(h.clients, client.runID)
				}
			}

		case event := <-h.broadcast:
			rl := h.runs[event.RunID]
			if rl == nil {
				rl = &runLog{}
				h.runs[event.RunID] = rl
			}
			if len(rl.events) < h.maxEvents || event.EventType == EventSummary {
				rl.events = append(rl.events, event)
			}
			if event.EventType == EventSummary {
				rl.finishedAt = time.Now()
			}
			for ch := range h.clients[event.RunID] {
				h.deliver(ch, event)
			}

		case now := <-prune.C:
			for id, rl := range h.runs {
				if !rl.finishedAt.IsZero() && now.Sub(rl.finishedAt) > h.retention {
					delete(h.runs, id)
				}
			}

		case <-h.done:
			return
		}
	}
}

func (h *ProgressHub) deliver(ch chan RunEvent, event RunEvent) {
	select {
	case ch <- event:
	default:
		h.logger.Warn("[SSE] Client channel full for run %s, skipping %s event", event.RunID.Short(), event.EventType)
	}
}

// Sink returns a progress sink publishing to the run's subscribers
func (h *ProgressHub) Sink(runID core.RunID) ports.ProgressSink {
	return ports.ProgressFunc(func(ev ports.ProgressEvent) {
		ev.RunID = runID
		h.Broadcast(RunEvent{RunID: runID, EventType: EventProgress, Progress: &ev, Timestamp: ev.Time})
	})
}

// Broadcast queues a progress event; it drops the event when the hub is saturated
func (h *ProgressHub) Broadcast(event RunEvent) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.logger.Warn("[SSE] Broadcast channel full, dropping %s event for run %s", event.EventType, event.RunID.Short())
	}
}

// Finish publishes the terminal summary. It waits for queue space because
// clients stream until they see it.
func (h *ProgressHub) Finish(sum *run.Summary) {
	event := RunEvent{RunID: sum.RunID, EventType: EventSummary, Summary: sum, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.logger.Error("[SSE] Could not publish summary for run %s", sum.RunID.Short())
	}
}

// Close stops the dispatch loop
func (h *ProgressHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// HandleSSE streams the events of one run until its summary has been sent
func (h *ProgressHub) HandleSSE(c *gin.Context) {
	runID, err := core.ParseRunID(c.Query("run_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "run_id parameter required"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan RunEvent, h.maxEvents+16)

	select {
	case h.register <- sseClient{runID: runID, channel: clientChan}:
	case <-time.After(time.Second):
		c.JSON(503, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- sseClient{runID: runID, channel: clientChan}:
		case <-h.done:
		}
	}()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return event.EventType != EventSummary

		case <-time.After(h.pingInterval):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}
