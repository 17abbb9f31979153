package database

import (
	"fmt"

	"kitchenboard/internal/models"

	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

// Journal records every stage change of the shift
type Journal struct {
	db *gorm.DB
}

// NewJournal wraps an open database
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Record appends a transition to the journal
func (j *Journal) Record(event models.StageChanged) error {
	row := models.StageTransition{
		OrderID:   event.OrderID,
		FromStage: event.From,
		ToStage:   event.To,
		MovedAt:   event.At,
	}
	if err := j.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record transition for %s: %w", event.OrderID, err)
	}
	return nil
}

// Observe is a StageChanged subscriber. Journal write failures are logged;
// the move itself has already happened.
func (j *Journal) Observe(event models.StageChanged) {
	if err := j.Record(event); err != nil {
		log.WithField("order_id", event.OrderID).Errorf("Journal write failed: %v", err)
	}
}

// History returns an order's transitions, oldest first
func (j *Journal) History(orderID string) ([]models.StageChanged, error) {
	var rows []models.StageTransition
	err := j.db.Where("order_id = ?", orderID).Order("moved_at asc, id asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", orderID, err)
	}

	history := make([]models.StageChanged, len(rows))
	for i, row := range rows {
		history[i] = models.StageChanged{
			OrderID: row.OrderID,
			From:    row.FromStage,
			To:      row.ToStage,
			At:      row.MovedAt,
		}
	}
	return history, nil
}

// Count returns how many transitions have been journaled
func (j *Journal) Count() (int, error) {
	var count int
	if err := j.db.Model(&models.StageTransition{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
