// Package kds ties the order store, workflow engine, alert dispatcher and
// views together behind the operations a kitchen display needs.
package kds

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"kitchenboard/internal/alerts"
	"kitchenboard/internal/models"
	"kitchenboard/internal/orders"
	"kitchenboard/internal/urgency"
	"kitchenboard/internal/views"
	"kitchenboard/internal/workflow"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrIntakePaused is returned by Receive while emergency mode is on
var ErrIntakePaused = errors.New("order intake paused: emergency mode")

const (
	defaultTickInterval = time.Second
	defaultPrepTime     = 20 * time.Minute
)

// Unsubscribe removes a previously registered subscriber
type Unsubscribe func()

// Journal stores and replays stage transitions
type Journal interface {
	Observe(event models.StageChanged)
	History(orderID string) ([]models.StageChanged, error)
}

// Metrics receives board activity
type Metrics interface {
	ObserveTransition(event models.StageChanged)
	RecordRejected(reason string)
	RecordCompletion(order models.Order, at time.Time)
	RecordBoard(summary map[models.Stage]int, overdue int, at time.Time)
	AlertSink(ctx context.Context, event models.AlertEvent) error
}

// Config wires optional collaborators into a Board
type Config struct {
	Clock        func() time.Time
	TickInterval time.Duration
	// DefaultPrepTime sets the estimate of orders received without one
	DefaultPrepTime time.Duration
	Journal         Journal
	Metrics         Metrics
}

// Board is the kitchen display's order workflow
type Board struct {
	store      *orders.Store
	engine     *workflow.Engine
	dispatcher *alerts.Dispatcher
	view       *views.View
	journal    Journal
	metrics    Metrics

	now       func() time.Time
	interval  time.Duration
	prepTime  time.Duration
	emergency atomic.Bool
}

// NewBoard creates a board over the given store
func NewBoard(store *orders.Store, cfg Config) *Board {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.DefaultPrepTime <= 0 {
		cfg.DefaultPrepTime = defaultPrepTime
	}

	b := &Board{
		store:      store.WithClock(cfg.Clock),
		engine:     workflow.NewEngine(store, cfg.Clock),
		dispatcher: alerts.NewDispatcher(),
		view:       views.NewView(store),
		journal:    cfg.Journal,
		metrics:    cfg.Metrics,
		now:        cfg.Clock,
		interval:   cfg.TickInterval,
		prepTime:   cfg.DefaultPrepTime,
	}

	if b.journal != nil {
		b.engine.Subscribe(b.journal.Observe)
	}
	if b.metrics != nil {
		b.engine.Subscribe(b.metrics.ObserveTransition)
		b.dispatcher.Subscribe(b.metrics.AlertSink)
	}
	return b
}

// Receive ingests a new order from a delivery platform. Missing ids are
// generated, the stage is always new and the estimate defaults to the
// configured prep time.
func (b *Board) Receive(order models.Order) (models.Order, error) {
	return b.ReceiveWithPrep(order, 0)
}

// ReceiveWithPrep is Receive with a per-order prep time for orders that
// carry no estimate. A non-positive prep uses the board default.
func (b *Board) ReceiveWithPrep(order models.Order, prep time.Duration) (models.Order, error) {
	if prep <= 0 {
		prep = b.prepTime
	}
	if b.Emergency() {
		return models.Order{}, ErrIntakePaused
	}

	now := b.now()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.Stage = models.StageNew
	if order.OrderTime.IsZero() {
		order.OrderTime = now
	}
	if order.EstimatedCompletionTime.IsZero() {
		order.EstimatedCompletionTime = order.OrderTime.Add(prep)
	}
	if order.Priority == "" {
		order.Priority = models.PriorityNormal
	}
	if order.Platform == "" {
		order.Platform = models.PlatformDirect
	}

	if err := b.store.Upsert(order); err != nil {
		return models.Order{}, err
	}

	log.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"platform":     order.Platform,
	}).Info("Order received")
	return b.store.Get(order.ID)
}

// Seed loads orders as they are, stage included. Used for demo shifts.
func (b *Board) Seed(batch []models.Order) error {
	for _, o := range batch {
		if err := b.store.Upsert(o); err != nil {
			return fmt.Errorf("failed to seed order %s: %w", o.ID, err)
		}
	}
	return nil
}

// Order returns one order by id
func (b *Board) Order(id string) (models.Order, error) {
	return b.store.Get(id)
}

// ListOrders returns the orders matching the filter
func (b *Board) ListOrders(filter views.Filter) []models.Order {
	return b.view.Filter(filter)
}

// Columns returns the kanban columns for the filter at the current time
func (b *Board) Columns(filter views.Filter) []views.Column {
	return b.view.Board(filter, b.now())
}

// Summary counts orders per stage
func (b *Board) Summary() map[models.Stage]int {
	return b.view.Summary()
}

// View exposes the read-only query view
func (b *Board) View() *views.View {
	return b.view
}

// MoveOrder changes an order's stage through the workflow engine
func (b *Board) MoveOrder(ctx context.Context, orderID string, from, to models.Stage) (models.Order, error) {
	order, err := b.engine.Transition(ctx, orderID, from, to)
	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordRejected(rejectReason(err))
		}
		return order, err
	}

	if to == models.StageCompleted && b.metrics != nil {
		b.metrics.RecordCompletion(order, b.now())
	}
	return order, nil
}

// Now reads the board clock
func (b *Board) Now() time.Time {
	return b.now()
}

// GetUrgency evaluates an order's urgency at the given instant
func (b *Board) GetUrgency(orderID string, now time.Time) (models.UrgencyState, error) {
	order, err := b.store.Get(orderID)
	if err != nil {
		return models.UrgencyState{}, err
	}
	return urgency.Evaluate(order, now), nil
}

// SubscribeAlerts registers an alert handler
func (b *Board) SubscribeAlerts(h alerts.Handler) Unsubscribe {
	return Unsubscribe(b.dispatcher.Subscribe(h))
}

// SubscribeStageChanges registers a StageChanged observer
func (b *Board) SubscribeStageChanges(fn func(models.StageChanged)) Unsubscribe {
	return Unsubscribe(b.engine.Subscribe(fn))
}

// SetStation assigns an order to a prep station
func (b *Board) SetStation(orderID, station string) (models.Order, error) {
	return b.store.SetStation(orderID, station)
}

// SetPriority changes an order's priority
func (b *Board) SetPriority(orderID string, level models.Priority) (models.Order, error) {
	return b.store.SetPriority(orderID, level)
}

// SetRush flags an order as a rush
func (b *Board) SetRush(orderID string, rush bool) (models.Order, error) {
	return b.store.SetRush(orderID, rush)
}

// ReviseEstimate moves an order's estimated completion time
func (b *Board) ReviseEstimate(orderID string, eta time.Time) (models.Order, error) {
	return b.store.ReviseEstimate(orderID, eta)
}

// History returns an order's journaled transitions
func (b *Board) History(orderID string) ([]models.StageChanged, error) {
	if _, err := b.store.Get(orderID); err != nil {
		return nil, err
	}
	if b.journal == nil {
		return []models.StageChanged{}, nil
	}
	return b.journal.History(orderID)
}

// SetEmergency toggles emergency mode: alerts are silenced and intake paused
func (b *Board) SetEmergency(on bool) {
	b.emergency.Store(on)
	b.dispatcher.SetEnabled(!on)
	log.WithField("emergency", on).Warn("Emergency mode changed")
}

// Emergency reports whether emergency mode is on
func (b *Board) Emergency() bool {
	return b.emergency.Load()
}

// Tick runs one evaluation cycle and returns the alerts it emitted
func (b *Board) Tick(ctx context.Context) []models.AlertEvent {
	now := b.now()
	snapshot := b.store.All()
	events := b.dispatcher.OnTick(ctx, snapshot, now)

	if b.metrics != nil {
		summary := make(map[models.Stage]int, len(models.Stages))
		for _, s := range models.Stages {
			summary[s] = 0
		}
		overdue := 0
		for _, o := range snapshot {
			summary[o.Stage]++
			if o.Stage != models.StageCompleted && urgency.Evaluate(o, now).IsOverdue {
				overdue++
			}
		}
		b.metrics.RecordBoard(summary, overdue, now)
	}
	return events
}

// Run ticks at the configured interval until ctx is cancelled
func (b *Board) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	log.WithField("interval", b.interval).Info("Board ticking")
	b.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Board stopped")
			return nil
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, workflow.ErrStaleTransition):
		return "stale"
	case errors.Is(err, workflow.ErrIllegalTransition):
		return "illegal"
	case errors.Is(err, orders.ErrNotFound):
		return "not_found"
	}
	return "other"
}
