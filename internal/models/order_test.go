package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() Order {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	station := "grill"
	return Order{
		ID:                      "ORD-001",
		OrderNumber:             "1247",
		Platform:                PlatformUberEats,
		Stage:                   StageNew,
		OrderTime:               now,
		EstimatedCompletionTime: now.Add(20 * time.Minute),
		Priority:                PriorityNormal,
		AssignedStation:         &station,
		Items: []OrderItem{
			{Name: "Classic Cheeseburger", Quantity: 2, Modifications: []string{"No pickles"}},
		},
		Allergens: []string{"Gluten"},
	}
}

func TestOrderValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(o *Order)
		wantErr bool
	}{
		{"valid", func(o *Order) {}, false},
		{"no items", func(o *Order) { o.Items = nil }, true},
		{"empty items", func(o *Order) { o.Items = []OrderItem{} }, true},
		{"unknown stage", func(o *Order) { o.Stage = "plating" }, true},
		{"empty stage", func(o *Order) { o.Stage = "" }, true},
		{"missing id", func(o *Order) { o.ID = "" }, true},
		{"zero quantity", func(o *Order) { o.Items[0].Quantity = 0 }, true},
		{"unnamed item", func(o *Order) { o.Items[0].Name = "" }, true},
		{"unknown platform", func(o *Order) { o.Platform = "seamless" }, true},
		{"unknown priority", func(o *Order) { o.Priority = "urgent" }, true},
		{"missing estimate", func(o *Order) { o.EstimatedCompletionTime = time.Time{} }, true},
		{"no station", func(o *Order) { o.AssignedStation = nil }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mutate(&o)
			err := o.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidOrder))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("uber-eats")
	require.NoError(t, err)
	assert.Equal(t, PlatformUberEats, p)
	assert.Equal(t, "Truck", p.Icon())

	p, err = ParsePlatform("DoorDash")
	require.NoError(t, err)
	assert.Equal(t, PlatformDoorDash, p)

	_, err = ParsePlatform("postmates")
	assert.Error(t, err)
	assert.Equal(t, "Package", Platform("postmates").Icon())
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages {
		parsed, err := ParseStage(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStage("cooking")
	assert.Error(t, err)
}

func TestOrderClone(t *testing.T) {
	o := validOrder()
	c := o.Clone()

	*c.AssignedStation = "fryer"
	c.Items[0].Modifications[0] = "Extra pickles"
	c.Allergens[0] = "Nuts"

	assert.Equal(t, "grill", o.Station())
	assert.Equal(t, "No pickles", o.Items[0].Modifications[0])
	assert.Equal(t, "Gluten", o.Allergens[0])
}
