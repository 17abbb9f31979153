package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"
)

// ApiClient talks to the kitchen board API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	UseMock    bool

	mu        sync.Mutex
	mock      []Card
	emergency bool
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("KITCHENBOARD_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
	}

	// Fall back to a local demo board if the server is not reachable
	if ok, _ := client.CheckHealth(); !ok {
		fmt.Printf("Warning: API server at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
		client.mock = mockCards(time.Now())
	}

	return client
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}
	return true, nil
}

// OrderItem is a line of an order
type OrderItem struct {
	Name                string   `json:"name"`
	Quantity            int      `json:"quantity"`
	Size                string   `json:"size,omitempty"`
	Modifications       []string `json:"modifications"`
	CookingInstructions string   `json:"cooking_instructions,omitempty"`
}

// Card is an order as rendered on the board
type Card struct {
	ID                      string      `json:"id"`
	OrderNumber             string      `json:"order_number"`
	Platform                string      `json:"platform"`
	Brand                   string      `json:"brand,omitempty"`
	Stage                   string      `json:"stage"`
	Priority                string      `json:"priority"`
	IsRush                  bool        `json:"is_rush"`
	AssignedStation         *string     `json:"assigned_station"`
	EstimatedCompletionTime time.Time   `json:"estimated_completion_time"`
	Items                   []OrderItem `json:"items"`
	Allergens               []string    `json:"allergens"`
	SpecialInstructions     string      `json:"special_instructions,omitempty"`
	CustomerName            string      `json:"customer_name,omitempty"`
	Countdown               string      `json:"countdown"`
	Highlight               string      `json:"highlight"`
	Icon                    string      `json:"platform_icon"`
}

// Station returns the assigned station or "-"
func (c Card) Station() string {
	if c.AssignedStation == nil || *c.AssignedStation == "" {
		return "-"
	}
	return *c.AssignedStation
}

// Column is one stage lane
type Column struct {
	Stage  string `json:"stage"`
	Title  string `json:"title"`
	Orders []Card `json:"orders"`
}

// Board is the full kanban state
type Board struct {
	Columns   []Column `json:"columns"`
	Emergency bool     `json:"emergency"`
}

// Action is a move available from an order's current stage
type Action struct {
	To     string `json:"to"`
	Title  string `json:"title"`
	Action string `json:"action"`
}

// NewOrder is the ingest payload
type NewOrder struct {
	OrderNumber string      `json:"order_number"`
	Platform    string      `json:"platform"`
	Brand       string      `json:"brand,omitempty"`
	PrepMinutes int         `json:"prep_minutes,omitempty"`
	Items       []OrderItem `json:"items"`
}

type apiError struct {
	Error           string   `json:"error"`
	ValidNextStates []string `json:"valid_next_states,omitempty"`
}

// GetBoard retrieves the board filtered by station and brand
func (c *ApiClient) GetBoard(station, brand string) (*Board, error) {
	if c.UseMock {
		return c.mockBoard(station, brand), nil
	}

	q := url.Values{}
	if station != "" {
		q.Set("station", station)
	}
	if brand != "" {
		q.Set("brand", brand)
	}

	var board Board
	if err := c.do("GET", "/api/v1/board?"+q.Encode(), nil, http.StatusOK, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// GetActions retrieves the moves available for an order
func (c *ApiClient) GetActions(id string) ([]Action, error) {
	if c.UseMock {
		card, ok := c.mockCard(id)
		if !ok {
			return nil, fmt.Errorf("order %s not found", id)
		}
		return mockActions[card.Stage], nil
	}

	var body struct {
		Actions []Action `json:"actions"`
	}
	if err := c.do("GET", "/api/v1/orders/"+url.PathEscape(id)+"/actions", nil, http.StatusOK, &body); err != nil {
		return nil, err
	}
	return body.Actions, nil
}

// MoveOrder moves an order between stages
func (c *ApiClient) MoveOrder(id, from, to string) error {
	if c.UseMock {
		return c.mockMove(id, from, to)
	}
	payload := map[string]string{"from": from, "to": to}
	return c.do("POST", "/api/v1/orders/"+url.PathEscape(id)+"/move", payload, http.StatusOK, nil)
}

// SetRush toggles the rush flag of an order
func (c *ApiClient) SetRush(id string, rush bool) error {
	if c.UseMock {
		return c.mockUpdate(id, func(card *Card) { card.IsRush = rush })
	}
	payload := map[string]bool{"rush": rush}
	return c.do("PUT", "/api/v1/orders/"+url.PathEscape(id)+"/rush", payload, http.StatusOK, nil)
}

// SetEmergency switches emergency mode
func (c *ApiClient) SetEmergency(on bool) error {
	if c.UseMock {
		c.mu.Lock()
		c.emergency = on
		c.mu.Unlock()
		return nil
	}
	payload := map[string]bool{"enabled": on}
	return c.do("PUT", "/api/v1/emergency", payload, http.StatusOK, nil)
}

// CreateOrder ingests a new order
func (c *ApiClient) CreateOrder(order NewOrder) (*Card, error) {
	if c.UseMock {
		return c.mockCreate(order)
	}

	var created Card
	if err := c.do("POST", "/api/v1/orders", order, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *ApiClient) do(method, path string, payload interface{}, want int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		var e apiError
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Mock data used when no server is reachable

var stageTitles = []struct{ stage, title string }{
	{"new", "New Orders"},
	{"prep", "In Preparation"},
	{"quality", "Quality Check"},
	{"completed", "Completed"},
}

var mockActions = map[string][]Action{
	"new":       {{To: "prep", Title: "In Preparation", Action: "Start Preparation"}},
	"prep":      {{To: "quality", Title: "Quality Check", Action: "Ready for QC"}},
	"quality":   {{To: "completed", Title: "Completed", Action: "Complete Order"}, {To: "prep", Title: "In Preparation", Action: "Return to Prep"}},
	"completed": {{To: "quality", Title: "Quality Check", Action: "Reopen Order"}},
}

func mockCards(now time.Time) []Card {
	grill, pizza, sushi, fryer := "grill", "pizza", "sushi", "fryer"
	return []Card{
		{ID: "ORD-001", OrderNumber: "1247", Platform: "ubereats", Brand: "burger-barn", Stage: "new", Priority: "normal", AssignedStation: &grill,
			EstimatedCompletionTime: now.Add(5 * time.Minute), Items: []OrderItem{{Name: "Classic Cheeseburger", Quantity: 2}, {Name: "French Fries", Quantity: 1}}},
		{ID: "ORD-002", OrderNumber: "1248", Platform: "doordash", Brand: "pizza-palace", Stage: "prep", Priority: "high", IsRush: true, AssignedStation: &pizza,
			EstimatedCompletionTime: now.Add(-5 * time.Minute), Items: []OrderItem{{Name: "Margherita Pizza", Quantity: 1}}, Allergens: []string{"Nuts"}},
		{ID: "ORD-003", OrderNumber: "1249", Platform: "grubhub", Brand: "sushi-spot", Stage: "quality", Priority: "normal", AssignedStation: &sushi,
			EstimatedCompletionTime: now.Add(10 * time.Minute), Items: []OrderItem{{Name: "California Roll", Quantity: 2}}},
		{ID: "ORD-006", OrderNumber: "1252", Platform: "doordash", Brand: "pizza-palace", Stage: "prep", Priority: "high", AssignedStation: &fryer,
			EstimatedCompletionTime: now.Add(450 * time.Second), Items: []OrderItem{{Name: "Buffalo Wings", Quantity: 12}}},
	}
}

func (c *ApiClient) mockBoard(station, brand string) *Board {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	board := &Board{Emergency: c.emergency}
	for _, st := range stageTitles {
		col := Column{Stage: st.stage, Title: st.title, Orders: []Card{}}
		for _, card := range c.mock {
			if card.Stage != st.stage || !matchFilter(card.Station(), station) || !matchFilter(card.Brand, brand) {
				continue
			}
			card.Countdown, card.Highlight = countdown(card, now)
			col.Orders = append(col.Orders, card)
		}
		sort.Slice(col.Orders, func(i, j int) bool {
			return col.Orders[i].EstimatedCompletionTime.Before(col.Orders[j].EstimatedCompletionTime)
		})
		board.Columns = append(board.Columns, col)
	}
	return board
}

func (c *ApiClient) mockCard(id string) (Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, card := range c.mock {
		if card.ID == id {
			return card, true
		}
	}
	return Card{}, false
}

func (c *ApiClient) mockUpdate(id string, fn func(card *Card)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.mock {
		if c.mock[i].ID == id {
			fn(&c.mock[i])
			return nil
		}
	}
	return fmt.Errorf("order %s not found", id)
}

func (c *ApiClient) mockMove(id, from, to string) error {
	card, ok := c.mockCard(id)
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if card.Stage != from {
		return fmt.Errorf("order %s is in %s, not %s", id, card.Stage, from)
	}
	for _, a := range mockActions[from] {
		if a.To == to {
			return c.mockUpdate(id, func(card *Card) { card.Stage = to })
		}
	}
	return fmt.Errorf("%s → %s is not allowed", from, to)
}

func (c *ApiClient) mockCreate(order NewOrder) (*Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emergency {
		return nil, fmt.Errorf("order intake paused: emergency mode")
	}

	prep := order.PrepMinutes
	if prep <= 0 {
		prep = 20
	}
	card := Card{
		ID:                      fmt.Sprintf("MOCK-%d", time.Now().UnixNano()%100000),
		OrderNumber:             order.OrderNumber,
		Platform:                order.Platform,
		Brand:                   order.Brand,
		Stage:                   "new",
		Priority:                "normal",
		EstimatedCompletionTime: time.Now().Add(time.Duration(prep) * time.Minute),
		Items:                   order.Items,
	}
	c.mock = append(c.mock, card)
	return &card, nil
}

func matchFilter(value, filter string) bool {
	return filter == "" || filter == "all" || value == filter
}

// countdown mirrors the server's m:ss rendering for mock cards
func countdown(card Card, now time.Time) (string, string) {
	d := card.EstimatedCompletionTime.Sub(now)
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}

	highlight := "safe"
	switch {
	case secs < 0:
		highlight = "overdue"
	case secs < 300 || card.Priority == "high":
		highlight = "warning"
	}

	prefix := ""
	if secs < 0 {
		secs = -secs
		prefix = "+"
	}
	return fmt.Sprintf("%s%d:%02d", prefix, secs/60, secs%60), highlight
}
