package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kitchenboard/internal/models"
	"kitchenboard/internal/orders"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrIllegalTransition is returned when the requested edge is not in the pipeline
	ErrIllegalTransition = errors.New("illegal stage transition")
	// ErrStaleTransition is returned when the caller's view of the stage is out of date
	ErrStaleTransition = errors.New("stale stage transition")
)

// Transition defines a legal stage change and the action label shown to staff
type Transition struct {
	From   models.Stage
	To     models.Stage
	Action string
}

// transitions is the authoritative pipeline definition
var transitions = []Transition{
	{From: models.StageNew, To: models.StagePrep, Action: "Start Preparation"},
	{From: models.StagePrep, To: models.StageQuality, Action: "Ready for QC"},
	{From: models.StageQuality, To: models.StageCompleted, Action: "Complete Order"},
	// Recovery edges: failed quality check and post-completion corrections
	{From: models.StageQuality, To: models.StagePrep, Action: "Return to Prep"},
	{From: models.StageCompleted, To: models.StageQuality, Action: "Reopen Order"},
}

type transitionKey struct {
	From models.Stage
	To   models.Stage
}

var transitionMap = func() map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(transitions))
	for _, t := range transitions {
		m[transitionKey{t.From, t.To}] = t
	}
	return m
}()

// TransitionError describes a rejected move
type TransitionError struct {
	OrderID string
	From    models.Stage
	To      models.Stage
	Actual  models.Stage
	Err     error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Err, ErrStaleTransition) {
		return fmt.Sprintf("%v: order %s is in %s, not %s", e.Err, e.OrderID, e.Actual, e.From)
	}
	return fmt.Sprintf("%v: %s → %s is not allowed. Valid transitions from %s are: %s",
		e.Err, e.From, e.To, e.From, describeValidFrom(e.From))
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// ValidTransitionsFrom returns all stages reachable from the given stage
func ValidTransitionsFrom(stage models.Stage) []models.Stage {
	var nexts []models.Stage
	for _, t := range transitions {
		if t.From == stage {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// Actions returns the transitions available from the given stage
func Actions(stage models.Stage) []Transition {
	var actions []Transition
	for _, t := range transitions {
		if t.From == stage {
			actions = append(actions, t)
		}
	}
	return actions
}

// AllTransitions returns the full pipeline definition
func AllTransitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// CanTransition checks whether from → to is a legal edge
func CanTransition(from, to models.Stage) error {
	if _, ok := transitionMap[transitionKey{from, to}]; ok {
		return nil
	}
	return ErrIllegalTransition
}

func describeValidFrom(stage models.Stage) string {
	nexts := ValidTransitionsFrom(stage)
	if len(nexts) == 0 {
		return "none"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Engine is the only component allowed to change an order's stage
type Engine struct {
	store *orders.Store
	now   func() time.Time

	mu          sync.RWMutex
	subscribers map[int]func(models.StageChanged)
	nextID      int
}

// NewEngine creates a transition engine over the given store
func NewEngine(store *orders.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:       store,
		now:         now,
		subscribers: make(map[int]func(models.StageChanged)),
	}
}

// Subscribe registers fn to receive StageChanged events. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(models.StageChanged)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.subscribers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Transition moves an order from one stage to another. The caller asserts the
// current stage; a mismatch is reported as stale and nothing changes.
func (e *Engine) Transition(ctx context.Context, orderID string, from, to models.Stage) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	var actual models.Stage
	order, err := e.store.Update(orderID, func(o *models.Order) error {
		actual = o.Stage
		if o.Stage != from {
			return &TransitionError{OrderID: orderID, From: from, To: to, Actual: o.Stage, Err: ErrStaleTransition}
		}
		if err := CanTransition(from, to); err != nil {
			return &TransitionError{OrderID: orderID, From: from, To: to, Actual: o.Stage, Err: err}
		}
		o.Stage = to
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"order_id": orderID,
			"from":     from,
			"to":       to,
			"actual":   actual,
		}).Debugf("Transition rejected: %v", err)
		return order, err
	}

	event := models.StageChanged{OrderID: orderID, From: from, To: to, At: e.now()}
	log.WithFields(log.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	}).Info("Order moved")

	e.publish(event)
	return order, nil
}

func (e *Engine) publish(event models.StageChanged) {
	e.mu.RLock()
	subs := make([]func(models.StageChanged), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.RUnlock()

	for _, fn := range subs {
		fn(event)
	}
}
