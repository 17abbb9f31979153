package urgency

import (
	"testing"
	"time"

	"kitchenboard/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

func orderDueIn(d time.Duration) models.Order {
	return models.Order{
		ID:                      "O1",
		Stage:                   models.StageNew,
		Priority:                models.PriorityNormal,
		OrderTime:               now.Add(-10 * time.Minute),
		EstimatedCompletionTime: now.Add(d),
	}
}

func TestEvaluateScenario(t *testing.T) {
	o := orderDueIn(300 * time.Second)

	state := Evaluate(o, now)
	assert.Equal(t, models.BucketSafe, state.Bucket)
	assert.Equal(t, int64(300), state.SecondsRemaining)
	assert.False(t, state.IsOverdue)

	state = Evaluate(o, now.Add(301*time.Second))
	assert.Equal(t, models.BucketOverdue, state.Bucket)
	assert.True(t, state.IsOverdue)
	assert.Equal(t, int64(-1), state.SecondsRemaining)
}

func TestEvaluateBoundaries(t *testing.T) {
	testCases := []struct {
		name      string
		remaining time.Duration
		secs      int64
		overdue   bool
		bucket    models.Bucket
	}{
		{"exactly due", 0, 0, false, models.BucketWarning},
		{"half second left", 500 * time.Millisecond, 0, false, models.BucketWarning},
		{"half second late", -500 * time.Millisecond, -1, true, models.BucketOverdue},
		{"one nanosecond late", -time.Nanosecond, -1, true, models.BucketOverdue},
		{"just under warning", 299 * time.Second, 299, false, models.BucketWarning},
		{"warning threshold", 300 * time.Second, 300, false, models.BucketSafe},
		{"fraction over threshold", 299*time.Second + 999*time.Millisecond, 299, false, models.BucketWarning},
		{"far future", time.Hour, 3600, false, models.BucketSafe},
		{"long overdue", -90 * time.Second, -90, true, models.BucketOverdue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := Evaluate(orderDueIn(tc.remaining), now)
			assert.Equal(t, tc.secs, state.SecondsRemaining)
			assert.Equal(t, tc.overdue, state.IsOverdue)
			assert.Equal(t, tc.bucket, state.Bucket)
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	o := orderDueIn(42 * time.Second)
	assert.Equal(t, Evaluate(o, now), Evaluate(o, now))
}

func TestOverdueIffPastEstimate(t *testing.T) {
	o := orderDueIn(0)
	for _, offset := range []time.Duration{-time.Second, -time.Millisecond, 0, time.Millisecond, time.Second} {
		at := now.Add(offset)
		assert.Equal(t, at.After(o.EstimatedCompletionTime), Evaluate(o, at).IsOverdue, "offset %v", offset)
	}
}

func TestEvaluateWithThreshold(t *testing.T) {
	state := EvaluateWithThreshold(orderDueIn(9*time.Minute), now, 10*time.Minute)
	assert.Equal(t, models.BucketWarning, state.Bucket)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5:00", Format(models.UrgencyState{SecondsRemaining: 300}))
	assert.Equal(t, "0:07", Format(models.UrgencyState{SecondsRemaining: 7}))
	assert.Equal(t, "+1:05", Format(models.UrgencyState{SecondsRemaining: -65, IsOverdue: true}))
	assert.Equal(t, "0:00", Format(models.UrgencyState{}))
}

func TestHighlight(t *testing.T) {
	o := orderDueIn(time.Hour)
	assert.Equal(t, models.BucketSafe, Highlight(o, Evaluate(o, now)))

	o.Priority = models.PriorityHigh
	assert.Equal(t, models.BucketWarning, Highlight(o, Evaluate(o, now)))

	o = orderDueIn(-time.Minute)
	o.Priority = models.PriorityHigh
	assert.Equal(t, models.BucketOverdue, Highlight(o, Evaluate(o, now)))
}
