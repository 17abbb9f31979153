package views

import (
	"testing"
	"time"

	"kitchenboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

type staticSource struct {
	orders []models.Order
	calls  int
}

func (s *staticSource) All() []models.Order {
	s.calls++
	out := make([]models.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

func mk(id string, stage models.Stage, station, brand string, dueIn time.Duration) models.Order {
	o := models.Order{
		ID:                      id,
		OrderNumber:             id,
		Platform:                models.PlatformDoorDash,
		Brand:                   brand,
		Stage:                   stage,
		Priority:                models.PriorityNormal,
		OrderTime:               now.Add(-10 * time.Minute),
		EstimatedCompletionTime: now.Add(dueIn),
		Items:                   []models.OrderItem{{Name: "Buffalo Wings", Quantity: 12}},
	}
	if station != "" {
		o.AssignedStation = &station
	}
	return o
}

func fixture() *staticSource {
	return &staticSource{orders: []models.Order{
		mk("1", models.StageNew, "grill", "burger-barn", 10*time.Minute),
		mk("2", models.StagePrep, "pizza", "pizza-palace", -5*time.Minute),
		mk("3", models.StageQuality, "grill", "burger-barn", 2*time.Minute),
		mk("4", models.StageCompleted, "dessert", "", 15*time.Minute),
		mk("5", models.StageNew, "", "sushi-spot", 20*time.Minute),
		mk("6", models.StagePrep, "grill", "burger-barn", 7*time.Minute),
	}}
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestByStage(t *testing.T) {
	v := NewView(fixture())
	assert.Equal(t, []string{"1", "5"}, ids(v.ByStage(models.StageNew)))
	assert.Equal(t, []string{"2", "6"}, ids(v.ByStage(models.StagePrep)))
	assert.Empty(t, v.ByStage("plating"))
}

func TestByStation(t *testing.T) {
	v := NewView(fixture())
	assert.Equal(t, []string{"3", "6", "1"}, ids(v.ByStation("grill")))
	assert.Empty(t, v.ByStation("fryer"))
	assert.Len(t, v.ByStation(All), 6)
}

func TestByStageAndStation(t *testing.T) {
	v := NewView(fixture())
	assert.Equal(t, []string{"6"}, ids(v.ByStageAndStation(models.StagePrep, "grill")))
	assert.Empty(t, v.ByStageAndStation(models.StageCompleted, "grill"))
}

func TestFilterBrandPlatformRush(t *testing.T) {
	src := fixture()
	src.orders[0].IsRush = true
	src.orders[1].Platform = models.PlatformUberEats
	v := NewView(src)

	assert.Equal(t, []string{"3", "6", "1"}, ids(v.ByBrand("burger-barn")))
	assert.Equal(t, []string{"2"}, ids(v.Filter(Filter{Platform: "uber-eats"})))
	assert.Empty(t, v.Filter(Filter{Platform: "postmates"}))
	assert.Equal(t, []string{"1"}, ids(v.Filter(Filter{RushOnly: true})))
	assert.Len(t, v.Filter(Filter{Stage: "ALL", Station: "all", Brand: "all"}), 6)
}

func TestEachQueryTakesOneSnapshot(t *testing.T) {
	src := fixture()
	v := NewView(src)

	v.ByStageAndStation(models.StageNew, "grill")
	assert.Equal(t, 1, src.calls)

	v.Board(Filter{}, now)
	assert.Equal(t, 2, src.calls)
}

func TestBoard(t *testing.T) {
	v := NewView(fixture())

	columns := v.Board(Filter{Station: "grill", Stage: "new"}, now)
	require.Len(t, columns, 4)
	assert.Equal(t, models.StageNew, columns[0].Stage)
	assert.Equal(t, "In Preparation", columns[1].Title)

	assert.Len(t, columns[0].Orders, 1)
	assert.Len(t, columns[1].Orders, 1)
	assert.Len(t, columns[2].Orders, 1)
	assert.Empty(t, columns[3].Orders)

	qc := columns[2].Orders[0]
	assert.Equal(t, models.BucketWarning, qc.Urgency.Bucket)
	assert.Equal(t, "2:00", qc.Countdown)
	assert.Equal(t, "Car", qc.Icon)
}

func TestBoardOverdueCard(t *testing.T) {
	v := NewView(fixture())
	columns := v.Board(Filter{Brand: "pizza-palace"}, now)

	card := columns[1].Orders[0]
	assert.True(t, card.Urgency.IsOverdue)
	assert.Equal(t, "+5:00", card.Countdown)
	assert.Equal(t, models.BucketOverdue, card.Highlight)
}

func TestSummary(t *testing.T) {
	v := NewView(fixture())
	assert.Equal(t, map[models.Stage]int{
		models.StageNew:       2,
		models.StagePrep:      2,
		models.StageQuality:   1,
		models.StageCompleted: 1,
	}, v.Summary())

	empty := NewView(&staticSource{})
	assert.Equal(t, 0, empty.Summary()[models.StageNew])
	assert.Len(t, empty.Summary(), 4)
}
