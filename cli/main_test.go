package main

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
)

func TestParseOrderInput(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
		qty     int
	}{
		{"1253,ubereats,Classic Burger", false, 1},
		{"1253, doordash , Wings, 12", false, 12},
		{"1253,ubereats", true, 0},
		{",ubereats,Burger", true, 0},
		{"1253,ubereats,Burger,zero", true, 0},
	}

	for _, tt := range tests {
		order, err := parseOrderInput(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseOrderInput(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err == nil && order.Items[0].Quantity != tt.qty {
			t.Errorf("parseOrderInput(%q) quantity = %d, want %d", tt.input, order.Items[0].Quantity, tt.qty)
		}
	}
}

func TestCountdown(t *testing.T) {
	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		eta       time.Time
		priority  string
		want      string
		highlight string
	}{
		{now.Add(301 * time.Second), "normal", "5:01", "safe"},
		{now.Add(300 * time.Second), "high", "5:00", "warning"},
		{now.Add(299 * time.Second), "normal", "4:59", "warning"},
		{now.Add(-500 * time.Millisecond), "normal", "+0:01", "overdue"},
	}

	for _, tt := range tests {
		got, highlight := countdown(Card{EstimatedCompletionTime: tt.eta, Priority: tt.priority}, now)
		if got != tt.want || highlight != tt.highlight {
			t.Errorf("countdown = %s/%s, want %s/%s", got, highlight, tt.want, tt.highlight)
		}
	}
}

func TestMockClient(t *testing.T) {
	c := &ApiClient{UseMock: true, mock: mockCards(time.Now())}

	if err := c.MoveOrder("ORD-001", "new", "completed"); err == nil {
		t.Error("expected illegal move to fail")
	}
	if err := c.MoveOrder("ORD-001", "prep", "quality"); err == nil {
		t.Error("expected stale move to fail")
	}
	if err := c.MoveOrder("ORD-001", "new", "prep"); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	board, err := c.GetBoard("grill", "")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(board.Columns[1].Orders); n != 1 {
		t.Errorf("prep column for grill has %d orders, want 1", n)
	}

	if err := c.SetEmergency(true); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateOrder(NewOrder{OrderNumber: "1", Platform: "direct"}); err == nil {
		t.Error("expected intake to be paused")
	}
}

func TestBoardRows(t *testing.T) {
	c := &ApiClient{UseMock: true, mock: mockCards(time.Now())}
	board, _ := c.GetBoard("", "")

	tbl := table.New(table.WithColumns([]table.Column{
		{Title: "Stage"}, {Title: "Order"}, {Title: "Platform"}, {Title: "Station"},
		{Title: "Brand"}, {Title: "Due"}, {Title: "Flags"}, {Title: "Items"},
	}))
	cards, tbl := boardRows(board, tbl)

	if len(cards) != 4 || len(tbl.Rows()) != 4 {
		t.Fatalf("got %d cards and %d rows, want 4", len(cards), len(tbl.Rows()))
	}
	if cards[0].Stage != "new" {
		t.Errorf("first row stage = %s, want new", cards[0].Stage)
	}
}
