package registry

import (
	"sync"

	"github.com/google/uuid"

	"dronewatch/internal/telemetry"
)

// hub fans snapshots out to subscribers with last-value-wins semantics: each
// subscriber owns a depth-1 channel, and a full buffer is drained and
// replaced rather than queued behind. A slow consumer sees the latest
// snapshot, never a backlog, and never blocks the sender.
type hub struct {
	mu   sync.Mutex
	subs map[string]chan telemetry.Snapshot
}

func newHub() *hub {
	return &hub{subs: make(map[string]chan telemetry.Snapshot)}
}

func (h *hub) subscribe() (string, <-chan telemetry.Snapshot) {
	id := uuid.New().String()
	ch := make(chan telemetry.Snapshot, 1)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *hub) unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) broadcast(snap telemetry.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			// Evict the unconsumed snapshot and retry once. The second send
			// can only miss if the consumer drained concurrently, in which
			// case it already holds a fresher value than the evicted one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
