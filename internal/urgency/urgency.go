// Package urgency derives how close an order is to missing its estimate.
package urgency

import (
	"fmt"
	"time"

	"kitchenboard/internal/models"
)

// WarningThreshold is how close to the estimate an order turns to warning
const WarningThreshold = 5 * time.Minute

// Evaluate computes the urgency of an order at the given instant.
// A remaining time of exactly zero is not overdue.
func Evaluate(order models.Order, now time.Time) models.UrgencyState {
	return EvaluateWithThreshold(order, now, WarningThreshold)
}

// EvaluateWithThreshold is Evaluate with a configurable warning threshold
func EvaluateWithThreshold(order models.Order, now time.Time, warning time.Duration) models.UrgencyState {
	remaining := floorSeconds(order.EstimatedCompletionTime.Sub(now))

	state := models.UrgencyState{
		SecondsRemaining: remaining,
		IsOverdue:        remaining < 0,
	}
	switch {
	case state.IsOverdue:
		state.Bucket = models.BucketOverdue
	case remaining < int64(warning/time.Second):
		state.Bucket = models.BucketWarning
	default:
		state.Bucket = models.BucketSafe
	}
	return state
}

// floorSeconds rounds toward negative infinity so that any instant past the
// estimate yields a negative count
func floorSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}

// Format renders the countdown as m:ss, prefixed with + once overdue
func Format(state models.UrgencyState) string {
	secs := state.SecondsRemaining
	prefix := ""
	if secs < 0 {
		secs = -secs
		prefix = "+"
	}
	return fmt.Sprintf("%s%d:%02d", prefix, secs/60, secs%60)
}

// Highlight picks the card accent: overdue beats high priority, which beats
// the warning window
func Highlight(order models.Order, state models.UrgencyState) models.Bucket {
	if state.IsOverdue {
		return models.BucketOverdue
	}
	if order.Priority == models.PriorityHigh || state.Bucket == models.BucketWarning {
		return models.BucketWarning
	}
	return models.BucketSafe
}
