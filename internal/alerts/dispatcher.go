package alerts

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"kitchenboard/internal/models"
	"kitchenboard/internal/urgency"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Handler receives alert events. A returned error is logged and counted but
// never causes the alert to be emitted again.
type Handler func(ctx context.Context, event models.AlertEvent) error

// Dispatcher turns successive board snapshots into one-shot alerts
type Dispatcher struct {
	// tickMu keeps ticks from overlapping
	tickMu         sync.Mutex
	overdueAlerted map[string]struct{}
	lastNewCount   int

	enabled  atomic.Bool
	failures atomic.Int64

	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

// NewDispatcher creates an enabled dispatcher with no handlers
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		overdueAlerted: make(map[string]struct{}),
		handlers:       make(map[int]Handler),
	}
	d.enabled.Store(true)
	return d
}

// Subscribe registers a handler and returns a func that removes it
func (d *Dispatcher) Subscribe(h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.handlers[id] = h

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.handlers, id)
	}
}

// SetEnabled turns alerting on or off. While disabled, ticks are ignored and
// bookkeeping is frozen, so anything that happened meanwhile alerts on resume.
func (d *Dispatcher) SetEnabled(enabled bool) {
	d.enabled.Store(enabled)
}

// Enabled reports whether alerting is on
func (d *Dispatcher) Enabled() bool {
	return d.enabled.Load()
}

// Failures returns how many handler invocations have failed
func (d *Dispatcher) Failures() int64 {
	return d.failures.Load()
}

// Reset clears all de-duplication state
func (d *Dispatcher) Reset() {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	d.overdueAlerted = make(map[string]struct{})
	d.lastNewCount = 0
}

// OnTick evaluates the current orders and emits any alerts that are due.
// Bookkeeping is advanced before handlers run.
func (d *Dispatcher) OnTick(ctx context.Context, current []models.Order, now time.Time) []models.AlertEvent {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	if !d.Enabled() {
		return nil
	}

	var events []models.AlertEvent

	newCount := 0
	for _, o := range current {
		if o.Stage == models.StageNew {
			newCount++
		}
	}
	if newCount > d.lastNewCount {
		events = append(events, newEvent(models.AlertNewOrder, "", now))
	}
	d.lastNewCount = newCount

	overdueNow := make(map[string]struct{})
	for _, o := range current {
		if o.Stage == models.StageCompleted {
			continue
		}
		if !urgency.Evaluate(o, now).IsOverdue {
			continue
		}
		overdueNow[o.ID] = struct{}{}
		if _, alerted := d.overdueAlerted[o.ID]; !alerted {
			d.overdueAlerted[o.ID] = struct{}{}
			events = append(events, newEvent(models.AlertOrderOverdue, o.ID, now))
		}
	}

	for id := range d.overdueAlerted {
		if _, still := overdueNow[id]; !still {
			delete(d.overdueAlerted, id)
		}
	}

	// map iteration order is random; keep output deterministic
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Kind != events[j].Kind {
			return events[i].Kind == models.AlertNewOrder
		}
		return events[i].OrderID < events[j].OrderID
	})

	d.dispatch(ctx, events)
	return events
}

func (d *Dispatcher) dispatch(ctx context.Context, events []models.AlertEvent) {
	if len(events) == 0 {
		return
	}

	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, event := range events {
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				d.failures.Add(1)
				log.WithFields(log.Fields{
					"alert_id": event.ID,
					"kind":     event.Kind,
					"order_id": event.OrderID,
				}).Warnf("Alert handler failed: %v", err)
			}
		}
	}
}

func newEvent(kind models.AlertKind, orderID string, now time.Time) models.AlertEvent {
	return models.AlertEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		OrderID:   orderID,
		EmittedAt: now,
	}
}
