package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// StageChanged is published after every successful stage transition
type StageChanged struct {
	OrderID string    `json:"order_id"`
	From    Stage     `json:"from"`
	To      Stage     `json:"to"`
	At      time.Time `json:"at"`
}

// AlertKind identifies what triggered an alert
type AlertKind string

const (
	AlertNewOrder     AlertKind = "new-order"
	AlertOrderOverdue AlertKind = "order-overdue"
)

// AlertEvent is a one-shot notification emitted by the alert dispatcher
type AlertEvent struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"kind"`
	OrderID   string    `json:"order_id,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Bucket classifies how urgent an order is
type Bucket string

const (
	BucketSafe    Bucket = "safe"
	BucketWarning Bucket = "warning"
	BucketOverdue Bucket = "overdue"
)

// UrgencyState is derived from an order's estimate and the current time
type UrgencyState struct {
	SecondsRemaining int64  `json:"seconds_remaining"`
	IsOverdue        bool   `json:"is_overdue"`
	Bucket           Bucket `json:"bucket"`
}

// StageTransition is one row of the shift's transition journal
type StageTransition struct {
	gorm.Model
	OrderID   string `gorm:"index;not null"`
	FromStage Stage  `gorm:"not null"`
	ToStage   Stage  `gorm:"not null"`
	MovedAt   time.Time
}
