package views

import (
	"sort"
	"strings"
	"time"

	"kitchenboard/internal/models"
	"kitchenboard/internal/urgency"
)

// All is the wildcard accepted by every filter dimension
const All = "all"

// Snapshotter is anything that can hand out a consistent copy of the orders
type Snapshotter interface {
	All() []models.Order
}

// Filter narrows a view. Empty fields and "all" match everything.
type Filter struct {
	Stage    string
	Station  string
	Brand    string
	Platform string
	RushOnly bool
}

// Column is one lane of the kitchen board
type Column struct {
	Stage  models.Stage `json:"stage"`
	Title  string       `json:"title"`
	Orders []Card       `json:"orders"`
}

// Card is an order together with its urgency at the time the board was built
type Card struct {
	models.Order
	Urgency   models.UrgencyState `json:"urgency"`
	Countdown string              `json:"countdown"`
	Highlight models.Bucket       `json:"highlight"`
	Icon      string              `json:"platform_icon"`
}

// View answers read-only queries. Each call works on exactly one snapshot.
type View struct {
	source Snapshotter
}

// NewView creates a view over the given source
func NewView(source Snapshotter) *View {
	return &View{source: source}
}

// ByStage returns the orders currently in the given stage
func (v *View) ByStage(stage models.Stage) []models.Order {
	return v.Filter(Filter{Stage: string(stage)})
}

// ByStation returns the orders assigned to the given station
func (v *View) ByStation(station string) []models.Order {
	return v.Filter(Filter{Station: station})
}

// ByStageAndStation composes ByStage and ByStation
func (v *View) ByStageAndStation(stage models.Stage, station string) []models.Order {
	return v.Filter(Filter{Stage: string(stage), Station: station})
}

// ByBrand returns the orders for one virtual brand
func (v *View) ByBrand(brand string) []models.Order {
	return v.Filter(Filter{Brand: brand})
}

// Filter returns the orders matching every constraint in f, soonest due first
func (v *View) Filter(f Filter) []models.Order {
	return apply(v.source.All(), f)
}

// Board groups the filtered orders into one column per stage
func (v *View) Board(f Filter, now time.Time) []Column {
	f.Stage = ""
	matched := apply(v.source.All(), f)

	columns := make([]Column, len(models.Stages))
	index := make(map[models.Stage]int, len(models.Stages))
	for i, stage := range models.Stages {
		columns[i] = Column{Stage: stage, Title: stage.Title(), Orders: []Card{}}
		index[stage] = i
	}

	for _, o := range matched {
		state := urgency.Evaluate(o, now)
		i := index[o.Stage]
		columns[i].Orders = append(columns[i].Orders, Card{
			Order:     o,
			Urgency:   state,
			Countdown: urgency.Format(state),
			Highlight: urgency.Highlight(o, state),
			Icon:      o.Platform.Icon(),
		})
	}
	return columns
}

// Summary counts orders per stage. Every stage is present, even when empty.
func (v *View) Summary() map[models.Stage]int {
	summary := make(map[models.Stage]int, len(models.Stages))
	for _, s := range models.Stages {
		summary[s] = 0
	}
	for _, o := range v.source.All() {
		summary[o.Stage]++
	}
	return summary
}

func apply(snapshot []models.Order, f Filter) []models.Order {
	matched := make([]models.Order, 0, len(snapshot))
	for _, o := range snapshot {
		if matches(o, f) {
			matched = append(matched, o)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.EstimatedCompletionTime.Equal(b.EstimatedCompletionTime) {
			return a.EstimatedCompletionTime.Before(b.EstimatedCompletionTime)
		}
		if a.OrderNumber != b.OrderNumber {
			return a.OrderNumber < b.OrderNumber
		}
		return a.ID < b.ID
	})
	return matched
}

func matches(o models.Order, f Filter) bool {
	if !wildcard(f.Stage) && string(o.Stage) != f.Stage {
		return false
	}
	if !wildcard(f.Station) && o.Station() != f.Station {
		return false
	}
	if !wildcard(f.Brand) && o.Brand != f.Brand {
		return false
	}
	if !wildcard(f.Platform) {
		p, err := models.ParsePlatform(f.Platform)
		if err != nil || o.Platform != p {
			return false
		}
	}
	if f.RushOnly && !o.IsRush {
		return false
	}
	return true
}

func wildcard(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}
