package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kitchenboard/internal/models"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

func order(id string, stage models.Stage, due time.Time) models.Order {
	return models.Order{
		ID:                      id,
		Stage:                   stage,
		Priority:                models.PriorityNormal,
		OrderTime:               t0.Add(-10 * time.Minute),
		EstimatedCompletionTime: due,
		Items:                   []models.OrderItem{{Name: "Edamame", Quantity: 1}},
	}
}

func countKind(events []models.AlertEvent, kind models.AlertKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewOrderAlertFiresOncePerTick(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	due := t0.Add(time.Hour)

	events := d.OnTick(ctx, nil, t0)
	assert.Empty(t, events)

	batch := []models.Order{
		order("A", models.StageNew, due),
		order("B", models.StageNew, due),
		order("C", models.StageNew, due),
	}
	events = d.OnTick(ctx, batch, t0.Add(time.Second))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertNewOrder, events[0].Kind)
	assert.Empty(t, events[0].OrderID)
	assert.NotEmpty(t, events[0].ID)

	events = d.OnTick(ctx, batch, t0.Add(2*time.Second))
	assert.Empty(t, events)
}

func TestNewOrderAlertAfterCountDrops(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	due := t0.Add(time.Hour)

	d.OnTick(ctx, []models.Order{order("A", models.StageNew, due), order("B", models.StageNew, due)}, t0)

	// A moved to prep, count falls to 1
	shrunk := []models.Order{order("A", models.StagePrep, due), order("B", models.StageNew, due)}
	assert.Empty(t, d.OnTick(ctx, shrunk, t0.Add(time.Second)))

	// a new arrival raises it back to 2, which is above the last seen count
	grown := append(shrunk, order("C", models.StageNew, due))
	events := d.OnTick(ctx, grown, t0.Add(2*time.Second))
	assert.Equal(t, 1, countKind(events, models.AlertNewOrder))
}

func TestOverdueAlertDeduplicated(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	o := order("O1", models.StagePrep, t0.Add(5*time.Second))
	current := []models.Order{o}

	total := 0
	for i := 0; i < 30; i++ {
		events := d.OnTick(ctx, current, t0.Add(time.Duration(i)*time.Second))
		total += countKind(events, models.AlertOrderOverdue)
	}
	assert.Equal(t, 1, total)
}

func TestOverdueAlertRearmsAfterEstimateRevision(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	o := order("O1", models.StagePrep, t0)

	events := d.OnTick(ctx, []models.Order{o}, t0.Add(time.Second))
	require.Equal(t, 1, countKind(events, models.AlertOrderOverdue))
	assert.Equal(t, "O1", events[0].OrderID)

	// estimate pushed out: no longer overdue
	o.EstimatedCompletionTime = t0.Add(time.Minute)
	assert.Empty(t, d.OnTick(ctx, []models.Order{o}, t0.Add(2*time.Second)))

	// late again
	total := 0
	for i := 61; i < 70; i++ {
		total += countKind(d.OnTick(ctx, []models.Order{o}, t0.Add(time.Duration(i)*time.Second)), models.AlertOrderOverdue)
	}
	assert.Equal(t, 1, total)
}

func TestOverdueAlertRearmsWhenOrderLeavesTracking(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	o := order("O1", models.StagePrep, t0)

	require.Len(t, d.OnTick(ctx, []models.Order{o}, t0.Add(time.Second)), 1)
	assert.Empty(t, d.OnTick(ctx, nil, t0.Add(2*time.Second)))

	events := d.OnTick(ctx, []models.Order{o}, t0.Add(3*time.Second))
	assert.Equal(t, 1, countKind(events, models.AlertOrderOverdue))
}

func TestCompletedOrdersDoNotAlertOverdue(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()

	done := order("O1", models.StageCompleted, t0)
	assert.Empty(t, d.OnTick(ctx, []models.Order{done}, t0.Add(time.Minute)))

	// reopened while still late
	done.Stage = models.StageQuality
	events := d.OnTick(ctx, []models.Order{done}, t0.Add(2*time.Minute))
	assert.Equal(t, 1, countKind(events, models.AlertOrderOverdue))
}

func TestHandlerFailureStillAdvancesBookkeeping(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()

	calls := 0
	d.Subscribe(func(ctx context.Context, e models.AlertEvent) error {
		calls++
		return errors.New("speaker unplugged")
	})

	o := order("O1", models.StagePrep, t0)
	for i := 1; i <= 5; i++ {
		d.OnTick(ctx, []models.Order{o}, t0.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), d.Failures())
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()

	var received []models.AlertEvent
	unsubscribe := d.Subscribe(func(ctx context.Context, e models.AlertEvent) error {
		received = append(received, e)
		return nil
	})

	d.OnTick(ctx, []models.Order{order("A", models.StageNew, t0.Add(time.Hour))}, t0)
	require.Len(t, received, 1)

	unsubscribe()
	d.OnTick(ctx, []models.Order{
		order("A", models.StageNew, t0.Add(time.Hour)),
		order("B", models.StageNew, t0.Add(time.Hour)),
	}, t0.Add(time.Second))
	assert.Len(t, received, 1)
}

func TestDisabledDispatcherFreezesBookkeeping(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	due := t0.Add(time.Hour)

	d.OnTick(ctx, []models.Order{order("A", models.StageNew, due)}, t0)

	d.SetEnabled(false)
	assert.False(t, d.Enabled())
	paused := []models.Order{
		order("A", models.StageNew, due),
		order("B", models.StageNew, due),
		order("L", models.StagePrep, t0),
	}
	assert.Empty(t, d.OnTick(ctx, paused, t0.Add(time.Minute)))

	d.SetEnabled(true)
	events := d.OnTick(ctx, paused, t0.Add(2*time.Minute))
	assert.Equal(t, 1, countKind(events, models.AlertNewOrder))
	assert.Equal(t, 1, countKind(events, models.AlertOrderOverdue))
}

func TestEventsOrderedDeterministically(t *testing.T) {
	d := NewDispatcher()
	var current []models.Order
	for i := 0; i < 5; i++ {
		current = append(current, order(fmt.Sprintf("O%d", i), models.StageNew, t0))
	}

	events := d.OnTick(context.Background(), current, t0.Add(time.Second))
	require.Len(t, events, 6)
	assert.Equal(t, models.AlertNewOrder, events[0].Kind)
	for i := 1; i < len(events); i++ {
		assert.Equal(t, fmt.Sprintf("O%d", i-1), events[i].OrderID)
	}
}

func TestReset(t *testing.T) {
	d := NewDispatcher()
	ctx := context.Background()
	o := order("O1", models.StageNew, t0)

	require.Len(t, d.OnTick(ctx, []models.Order{o}, t0.Add(time.Second)), 2)
	d.Reset()
	assert.Len(t, d.OnTick(ctx, []models.Order{o}, t0.Add(2*time.Second)), 2)
}

func TestLogSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := LogSink(logger)

	require.NoError(t, sink(context.Background(), models.AlertEvent{ID: "a1", Kind: models.AlertOrderOverdue, OrderID: "O1"}))
	require.NoError(t, sink(context.Background(), models.AlertEvent{ID: "a2", Kind: models.AlertNewOrder}))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, log.WarnLevel, entries[0].Level)
	assert.Equal(t, "O1", entries[0].Data["order_id"])
	assert.Equal(t, log.InfoLevel, entries[1].Level)
}
