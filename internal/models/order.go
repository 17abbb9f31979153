package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidOrder is returned when an order violates its structural invariants
var ErrInvalidOrder = errors.New("invalid order")

// Stage is an order's position in the kitchen pipeline
type Stage string

const (
	StageNew       Stage = "new"
	StagePrep      Stage = "prep"
	StageQuality   Stage = "quality"
	StageCompleted Stage = "completed"
)

// Stages lists every stage in pipeline order
var Stages = []Stage{StageNew, StagePrep, StageQuality, StageCompleted}

// Valid reports whether s is one of the four pipeline stages
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StagePrep, StageQuality, StageCompleted:
		return true
	}
	return false
}

// Title returns the column heading shown on the display
func (s Stage) Title() string {
	switch s {
	case StageNew:
		return "New Orders"
	case StagePrep:
		return "In Preparation"
	case StageQuality:
		return "Quality Check"
	case StageCompleted:
		return "Completed"
	}
	return string(s)
}

// ParseStage converts a raw string to a Stage
func ParseStage(raw string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}

// Platform identifies the channel an order came in through
type Platform string

const (
	PlatformUberEats Platform = "ubereats"
	PlatformDoorDash Platform = "doordash"
	PlatformGrubhub  Platform = "grubhub"
	PlatformDirect   Platform = "direct"
)

// ParsePlatform accepts both "ubereats" and the dashed "uber-eats" spelling
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", ""))
	switch p {
	case PlatformUberEats, PlatformDoorDash, PlatformGrubhub, PlatformDirect:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", raw)
}

// Icon returns the icon name the display uses for the platform
func (p Platform) Icon() string {
	switch p {
	case PlatformUberEats:
		return "Truck"
	case PlatformDoorDash:
		return "Car"
	case PlatformGrubhub:
		return "Bike"
	case PlatformDirect:
		return "Store"
	}
	return "Package"
}

// Priority is the kitchen priority of an order
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a raw string to a Priority
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PriorityNormal, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", raw)
}

// Order represents one customer order moving through the kitchen
type Order struct {
	ID                      string      `json:"id" validate:"required"`
	OrderNumber             string      `json:"order_number"`
	Platform                Platform    `json:"platform" validate:"oneof=ubereats doordash grubhub direct"`
	Brand                   string      `json:"brand,omitempty"`
	Stage                   Stage       `json:"stage" validate:"oneof=new prep quality completed"`
	OrderTime               time.Time   `json:"order_time" validate:"required"`
	EstimatedCompletionTime time.Time   `json:"estimated_completion_time" validate:"required"`
	IsRush                  bool        `json:"is_rush"`
	Priority                Priority    `json:"priority" validate:"oneof=normal high"`
	AssignedStation         *string     `json:"assigned_station"`
	Items                   []OrderItem `json:"items" validate:"min=1,dive"`
	Allergens               []string    `json:"allergens"`
	SpecialInstructions     string      `json:"special_instructions,omitempty"`
	CustomerName            string      `json:"customer_name,omitempty"`
	CustomerPhone           string      `json:"customer_phone,omitempty"`
	DeliveryAddress         string      `json:"delivery_address,omitempty"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// OrderItem represents a line item in an order
type OrderItem struct {
	Name                string   `json:"name" validate:"required"`
	Quantity            int      `json:"quantity" validate:"min=1"`
	Size                string   `json:"size,omitempty"`
	Modifications       []string `json:"modifications"`
	CookingInstructions string   `json:"cooking_instructions,omitempty"`
}

var validate = validator.New()

// Validate checks the order's structural invariants
func (o *Order) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidOrder, strings.Join(problems, "; "))
}

// Station returns the assigned station or an empty string
func (o *Order) Station() string {
	if o.AssignedStation == nil {
		return ""
	}
	return *o.AssignedStation
}

// Clone returns a deep copy of the order
func (o Order) Clone() Order {
	c := o
	if o.AssignedStation != nil {
		station := *o.AssignedStation
		c.AssignedStation = &station
	}
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			c.Items[i] = item
			if item.Modifications != nil {
				c.Items[i].Modifications = append([]string(nil), item.Modifications...)
			}
		}
	}
	if o.Allergens != nil {
		c.Allergens = append([]string(nil), o.Allergens...)
	}
	return c
}
