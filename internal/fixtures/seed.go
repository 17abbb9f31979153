// Package fixtures provides the demo shift loaded when seeding is enabled.
package fixtures

import (
	"time"

	"kitchenboard/internal/models"

	log "github.com/sirupsen/logrus"
)

// Seeder accepts orders as they are, stage included
type Seeder interface {
	Seed(batch []models.Order) error
}

func station(name string) *string {
	return &name
}

// DemoOrders returns six orders spread across every stage, timed relative to now.
// ORD-002 is already overdue and ORD-001 is inside the warning window.
func DemoOrders(now time.Time) []models.Order {
	orders := []models.Order{
		{
			ID:                      "ORD-001",
			OrderNumber:             "1247",
			Platform:                models.PlatformUberEats,
			Brand:                   "burger-barn",
			CustomerName:            "Sarah Johnson",
			CustomerPhone:           "+1-555-0123",
			DeliveryAddress:         "123 Main St, Apt 4B, New York, NY 10001",
			OrderTime:               now.Add(-15 * time.Minute),
			EstimatedCompletionTime: now.Add(5 * time.Minute),
			Stage:                   models.StageNew,
			Priority:                models.PriorityNormal,
			AssignedStation:         station("grill"),
			SpecialInstructions:     "Extra crispy fries, no pickles on burger",
			Allergens:               []string{"Gluten", "Dairy"},
			Items: []models.OrderItem{
				{Name: "Classic Cheeseburger", Quantity: 2, Size: "Regular", Modifications: []string{"No pickles", "Extra cheese"}, CookingInstructions: "Medium-well, extra crispy"},
				{Name: "French Fries", Quantity: 1, Size: "Large", Modifications: []string{"Extra crispy"}, CookingInstructions: "Cook until golden brown"},
				{Name: "Chocolate Milkshake", Quantity: 1, Size: "Regular", CookingInstructions: "Extra thick"},
			},
		},
		{
			ID:                      "ORD-002",
			OrderNumber:             "1248",
			Platform:                models.PlatformDoorDash,
			Brand:                   "pizza-palace",
			CustomerName:            "Mike Chen",
			CustomerPhone:           "+1-555-0124",
			DeliveryAddress:         "456 Oak Ave, Suite 12, Brooklyn, NY 11201",
			OrderTime:               now.Add(-20 * time.Minute),
			EstimatedCompletionTime: now.Add(-5 * time.Minute),
			Stage:                   models.StagePrep,
			Priority:                models.PriorityHigh,
			IsRush:                  true,
			AssignedStation:         station("pizza"),
			SpecialInstructions:     "Customer has severe nut allergy - please use separate prep area",
			Allergens:               []string{"Nuts"},
			Items: []models.OrderItem{
				{Name: "Margherita Pizza", Quantity: 1, Size: "Large", Modifications: []string{"Extra basil", "Light cheese"}, CookingInstructions: "Well done crust"},
				{Name: "Caesar Salad", Quantity: 1, Size: "Regular", Modifications: []string{"No croutons", "Dressing on side"}, CookingInstructions: "Fresh romaine only"},
			},
		},
		{
			ID:                      "ORD-003",
			OrderNumber:             "1249",
			Platform:                models.PlatformGrubhub,
			Brand:                   "sushi-spot",
			CustomerName:            "Emily Rodriguez",
			CustomerPhone:           "+1-555-0125",
			DeliveryAddress:         "789 Pine St, Floor 3, Manhattan, NY 10002",
			OrderTime:               now.Add(-10 * time.Minute),
			EstimatedCompletionTime: now.Add(10 * time.Minute),
			Stage:                   models.StageQuality,
			Priority:                models.PriorityNormal,
			AssignedStation:         station("sushi"),
			Allergens:               []string{"Fish", "Soy"},
			Items: []models.OrderItem{
				{Name: "California Roll", Quantity: 2, Size: "8 pieces", Modifications: []string{"No avocado"}, CookingInstructions: "Fresh wasabi on side"},
				{Name: "Miso Soup", Quantity: 1, Size: "Regular", CookingInstructions: "Extra hot"},
				{Name: "Edamame", Quantity: 1, Size: "Regular", Modifications: []string{"Extra salt"}, CookingInstructions: "Steam until tender"},
			},
		},
		{
			ID:                      "ORD-004",
			OrderNumber:             "1250",
			Platform:                models.PlatformDirect,
			Brand:                   "burger-barn",
			CustomerName:            "David Kim",
			CustomerPhone:           "+1-555-0126",
			DeliveryAddress:         "321 Elm St, Apt 7A, Queens, NY 11375",
			OrderTime:               now.Add(-5 * time.Minute),
			EstimatedCompletionTime: now.Add(15 * time.Minute),
			Stage:                   models.StageCompleted,
			Priority:                models.PriorityNormal,
			AssignedStation:         station("dessert"),
			SpecialInstructions:     "Birthday order - please add candles",
			Allergens:               []string{"Eggs", "Dairy"},
			Items: []models.OrderItem{
				{Name: "Chocolate Birthday Cake", Quantity: 1, Size: "9 inch", Modifications: []string{"Happy Birthday message", "Extra frosting"}, CookingInstructions: "Add birthday candles"},
				{Name: "Vanilla Ice Cream", Quantity: 2, Size: "Pint", CookingInstructions: "Keep frozen until pickup"},
			},
		},
		{
			ID:                      "ORD-005",
			OrderNumber:             "1251",
			Platform:                models.PlatformUberEats,
			Brand:                   "taco-time",
			CustomerName:            "Lisa Thompson",
			CustomerPhone:           "+1-555-0127",
			DeliveryAddress:         "654 Maple Dr, Unit 5, Bronx, NY 10451",
			OrderTime:               now.Add(-3 * time.Minute),
			EstimatedCompletionTime: now.Add(20 * time.Minute),
			Stage:                   models.StageNew,
			Priority:                models.PriorityNormal,
			AssignedStation:         station("salad"),
			SpecialInstructions:     "Vegan order - no animal products",
			Allergens:               []string{},
			Items: []models.OrderItem{
				{Name: "Quinoa Power Bowl", Quantity: 1, Size: "Large", Modifications: []string{"Extra quinoa", "No cheese", "Vegan dressing"}, CookingInstructions: "Use vegan prep area"},
				{Name: "Green Smoothie", Quantity: 1, Size: "Large", Modifications: []string{"Almond milk", "Extra spinach"}, CookingInstructions: "Blend until smooth"},
			},
		},
		{
			ID:                      "ORD-006",
			OrderNumber:             "1252",
			Platform:                models.PlatformDoorDash,
			Brand:                   "pizza-palace",
			CustomerName:            "James Wilson",
			CustomerPhone:           "+1-555-0128",
			DeliveryAddress:         "987 Cedar Ln, Apt 2C, Staten Island, NY 10301",
			OrderTime:               now.Add(-450 * time.Second),
			EstimatedCompletionTime: now.Add(450 * time.Second),
			Stage:                   models.StagePrep,
			Priority:                models.PriorityHigh,
			AssignedStation:         station("fryer"),
			SpecialInstructions:     "Customer requested extra sauce packets",
			Allergens:               []string{"Gluten"},
			Items: []models.OrderItem{
				{Name: "Buffalo Wings", Quantity: 12, Size: "Regular", Modifications: []string{"Extra hot sauce", "Ranch dressing"}, CookingInstructions: "Crispy wings, toss in buffalo sauce"},
				{Name: "Onion Rings", Quantity: 1, Size: "Large", Modifications: []string{"Extra crispy"}, CookingInstructions: "Golden brown, drain well"},
			},
		},
	}
	return orders
}

// SeedDemo loads the demo shift into the board
func SeedDemo(s Seeder, now time.Time) error {
	batch := DemoOrders(now)
	if err := s.Seed(batch); err != nil {
		return err
	}
	log.WithField("orders", len(batch)).Info("Demo shift seeded")
	return nil
}
