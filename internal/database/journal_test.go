package database

import (
	"testing"
	"time"

	"kitchenboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := Open("sqlite3", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJournal(db)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mssql", "whatever")
	assert.Error(t, err)
}

func TestJournalRecordAndHistory(t *testing.T) {
	j := openTestJournal(t)
	at := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	moves := []models.StageChanged{
		{OrderID: "O1", From: models.StageNew, To: models.StagePrep, At: at},
		{OrderID: "O2", From: models.StageNew, To: models.StagePrep, At: at.Add(time.Second)},
		{OrderID: "O1", From: models.StagePrep, To: models.StageQuality, At: at.Add(2 * time.Minute)},
		{OrderID: "O1", From: models.StageQuality, To: models.StagePrep, At: at.Add(3 * time.Minute)},
	}
	for _, m := range moves {
		j.Observe(m)
	}

	history, err := j.History("O1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.StagePrep, history[0].To)
	assert.Equal(t, models.StageQuality, history[1].To)
	assert.Equal(t, models.StageQuality, history[2].From)
	assert.True(t, history[2].At.Equal(at.Add(3*time.Minute)))

	count, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestJournalHistoryUnknownOrder(t *testing.T) {
	j := openTestJournal(t)
	history, err := j.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}
