package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#ffd60a")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

var (
	stations = []string{"all", "grill", "fryer", "salad", "pizza", "sushi", "dessert"}
	brands   = []string{"all", "pizza-palace", "burger-barn", "taco-time", "sushi-spot"}
)

const refreshInterval = time.Second

// Model defines the application state
type Model struct {
	mainMenu   list.Model
	boardTable table.Model
	spinner    spinner.Model
	textInput  textinput.Model
	client     *ApiClient

	board       *Board
	cards       []Card
	detail      Card
	actions     []Action
	stationIdx  int
	brandIdx    int
	currentView string
	message     string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Kitchen Board", desc: "Live orders by stage with countdowns"},
		item{title: "New Order", desc: "Ingest an order by hand"},
		item{title: "Emergency Stop", desc: "Pause intake and silence alerts"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Kitchen Board"

	columns := []table.Column{
		{Title: "Stage", Width: 15},
		{Title: "Order", Width: 8},
		{Title: "Platform", Width: 10},
		{Title: "Station", Width: 9},
		{Title: "Brand", Width: 13},
		{Title: "Due", Width: 8},
		{Title: "Flags", Width: 16},
		{Title: "Items", Width: 30},
	}
	boardTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	ti := textinput.New()
	ti.Placeholder = "1253,ubereats,Classic Burger,2"
	ti.CharLimit = 156
	ti.Width = 40

	return Model{
		mainMenu:    mainMenu,
		boardTable:  boardTable,
		spinner:     s,
		textInput:   ti,
		client:      NewApiClient(),
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen, tick())
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		if m.currentView == "create_order" {
			return m.updateCreateOrder(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.error = ""
			switch m.currentView {
			case "order_detail":
				m.currentView = "board"
			case "board":
				m.currentView = "main"
			}
			return m, nil
		}
		switch m.currentView {
		case "main":
			if msg.String() == "enter" {
				return m.selectMenu()
			}
		case "board":
			if cmd, ok := m.boardKey(msg.String()); ok {
				return m, cmd
			}
			if msg.String() == "s" {
				m.stationIdx = (m.stationIdx + 1) % len(stations)
				return m, m.refresh()
			}
			if msg.String() == "b" {
				m.brandIdx = (m.brandIdx + 1) % len(brands)
				return m, m.refresh()
			}
		case "order_detail":
			return m, m.detailKey(msg.String())
		}
	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())
	case boardMsg:
		m.board = msg.board
		m.cards, m.boardTable = boardRows(msg.board, m.boardTable)
		if m.currentView == "order_detail" {
			for _, card := range m.cards {
				if card.ID == m.detail.ID {
					m.detail = card
				}
			}
		}
		return m, nil
	case actionsMsg:
		m.actions = msg.actions
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	case confirmMsg:
		m.error = ""
		m.message = msg.message
		if m.currentView == "order_detail" {
			return m, tea.Batch(m.refresh(), fetchActions(m.client, m.detail.ID))
		}
		return m, m.refresh()
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "board":
		m.boardTable, cmd = m.boardTable.Update(msg)
	default:
		m.spinner, cmd = m.spinner.Update(msg)
	}
	return m, cmd
}

func (m Model) selectMenu() (tea.Model, tea.Cmd) {
	selected, ok := m.mainMenu.SelectedItem().(item)
	if !ok {
		return m, nil
	}
	switch selected.title {
	case "Exit":
		return m, tea.Quit
	case "Kitchen Board":
		m.currentView = "board"
		return m, m.refresh()
	case "New Order":
		m.currentView = "create_order"
		m.textInput.SetValue("")
		m.textInput.Focus()
	case "Emergency Stop":
		return m, toggleEmergency(m.client, m.board)
	}
	return m, nil
}

func (m *Model) boardKey(key string) (tea.Cmd, bool) {
	switch key {
	case "enter":
		idx := m.boardTable.Cursor()
		if idx < 0 || idx >= len(m.cards) {
			return nil, true
		}
		m.detail = m.cards[idx]
		m.actions = nil
		m.currentView = "order_detail"
		return fetchActions(m.client, m.detail.ID), true
	case "e":
		return toggleEmergency(m.client, m.board), true
	case "n":
		m.currentView = "create_order"
		m.textInput.SetValue("")
		m.textInput.Focus()
		return nil, true
	}
	return nil, false
}

func (m Model) detailKey(key string) tea.Cmd {
	if key == "r" {
		return setRush(m.client, m.detail.ID, !m.detail.IsRush)
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > len(m.actions) {
		return nil
	}
	return moveOrder(m.client, m.detail, m.actions[n-1])
}

func (m Model) updateCreateOrder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.textInput.Blur()
		m.currentView = "board"
		return m, m.refresh()
	case "enter":
		order, err := parseOrderInput(m.textInput.Value())
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.textInput.Blur()
		m.currentView = "board"
		return m, createOrder(m.client, order)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) filters() (string, string) {
	return stations[m.stationIdx], brands[m.brandIdx]
}

func (m Model) refresh() tea.Cmd {
	station, brand := m.filters()
	return fetchBoard(m.client, station, brand)
}

// View renders the UI
func (m Model) View() string {
	var view string
	switch m.currentView {
	case "main":
		view = m.mainMenu.View()
	case "board":
		view = m.boardView()
	case "order_detail":
		view = orderDetailView(m.detail, m.actions)
	case "create_order":
		view = titleStyle.Render("New Order") + "\n\n" +
			"Format: <order number>,<platform>,<item>[,<quantity>]\n\n" +
			m.textInput.View() + "\n\nPress 'enter' to submit, 'esc' to cancel\n"
	default:
		view = "Loading..."
	}

	if m.message != "" {
		view += "\n" + successStyle.Render(m.message)
	}
	if m.error != "" {
		view += "\n" + errorStyle.Render(m.error)
	}
	return docStyle.Render(view)
}

func (m Model) boardView() string {
	if m.board == nil {
		return m.spinner.View() + " Loading board..."
	}

	station, brand := m.filters()
	header := titleStyle.Render("Kitchen Board") + " " +
		infoStyle.Render("station: "+station) + " " +
		infoStyle.Render("brand: "+brand)
	if m.board.Emergency {
		header += " " + errorStyle.Render("EMERGENCY STOP")
	}

	counts := make([]string, 0, len(m.board.Columns))
	for _, col := range m.board.Columns {
		counts = append(counts, fmt.Sprintf("%s: %d", col.Title, len(col.Orders)))
	}

	return header + "\n" + strings.Join(counts, "  |  ") + "\n\n" + m.boardTable.View() +
		"\n's' station, 'b' brand, 'enter' details, 'n' new order, 'e' emergency, 'esc' back\n"
}

// Custom message types for the tea.Model
type tickMsg time.Time

type boardMsg struct {
	board *Board
}

type actionsMsg struct {
	actions []Action
}

type errorMsg struct {
	err string
}

type confirmMsg struct {
	message string
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetchBoard(client *ApiClient, station, brand string) tea.Cmd {
	return func() tea.Msg {
		board, err := client.GetBoard(station, brand)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching board: %v", err)}
		}
		return boardMsg{board: board}
	}
}

func fetchActions(client *ApiClient, id string) tea.Cmd {
	return func() tea.Msg {
		actions, err := client.GetActions(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching actions: %v", err)}
		}
		return actionsMsg{actions: actions}
	}
}

func moveOrder(client *ApiClient, card Card, action Action) tea.Cmd {
	return func() tea.Msg {
		if err := client.MoveOrder(card.ID, card.Stage, action.To); err != nil {
			return errorMsg{err: fmt.Sprintf("Error moving order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %s: %s", card.OrderNumber, action.Action)}
	}
}

func setRush(client *ApiClient, id string, rush bool) tea.Cmd {
	return func() tea.Msg {
		if err := client.SetRush(id, rush); err != nil {
			return errorMsg{err: fmt.Sprintf("Error updating order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Rush set to %t", rush)}
	}
}

func toggleEmergency(client *ApiClient, board *Board) tea.Cmd {
	on := board == nil || !board.Emergency
	return func() tea.Msg {
		if err := client.SetEmergency(on); err != nil {
			return errorMsg{err: fmt.Sprintf("Error switching emergency mode: %v", err)}
		}
		if on {
			return confirmMsg{message: "Emergency stop engaged"}
		}
		return confirmMsg{message: "Emergency stop released"}
	}
}

func createOrder(client *ApiClient, order NewOrder) tea.Cmd {
	return func() tea.Msg {
		created, err := client.CreateOrder(order)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error creating order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %s received", created.OrderNumber)}
	}
}

// parseOrderInput reads "<order number>,<platform>,<item>[,<quantity>]"
func parseOrderInput(input string) (NewOrder, error) {
	parts := strings.Split(input, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || parts[0] == "" || parts[2] == "" {
		return NewOrder{}, fmt.Errorf("please enter <order number>,<platform>,<item>[,<quantity>]")
	}

	qty := 1
	if len(parts) > 3 {
		n, err := strconv.Atoi(parts[3])
		if err != nil || n < 1 {
			return NewOrder{}, fmt.Errorf("quantity must be a positive number")
		}
		qty = n
	}
	return NewOrder{
		OrderNumber: parts[0],
		Platform:    parts[1],
		Items:       []OrderItem{{Name: parts[2], Quantity: qty}},
	}, nil
}

// boardRows flattens the columns into table rows, keeping the cards in row order
func boardRows(board *Board, t table.Model) ([]Card, table.Model) {
	var cards []Card
	var rows []table.Row
	for _, col := range board.Columns {
		for _, card := range col.Orders {
			cards = append(cards, card)
			rows = append(rows, table.Row{
				col.Title,
				"#" + card.OrderNumber,
				card.Platform,
				card.Station(),
				card.Brand,
				card.Countdown,
				flags(card),
				itemSummary(card.Items),
			})
		}
	}
	t.SetRows(rows)
	return cards, t
}

func flags(card Card) string {
	var f []string
	switch card.Highlight {
	case "overdue":
		f = append(f, "OVERDUE")
	case "warning":
		f = append(f, "warn")
	}
	if card.IsRush {
		f = append(f, "RUSH")
	}
	if card.Priority == "high" {
		f = append(f, "high")
	}
	return strings.Join(f, " ")
}

func itemSummary(items []OrderItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%dx %s", it.Quantity, it.Name)
	}
	return strings.Join(parts, ", ")
}

func orderDetailView(card Card, actions []Action) string {
	view := titleStyle.Render(fmt.Sprintf("Order #%s", card.OrderNumber)) + "\n\n"
	view += fmt.Sprintf("Platform: %s (%s)\n", card.Platform, card.Icon)
	if card.Brand != "" {
		view += fmt.Sprintf("Brand: %s\n", card.Brand)
	}
	view += fmt.Sprintf("Stage: %s\n", card.Stage)
	view += fmt.Sprintf("Station: %s\n", card.Station())
	view += fmt.Sprintf("Priority: %s  Rush: %t\n", card.Priority, card.IsRush)

	due := card.Countdown
	switch card.Highlight {
	case "overdue":
		due = errorStyle.Render(due)
	case "warning":
		due = warningStyle.Render(due)
	}
	view += fmt.Sprintf("Due: %s (%s)\n", due, card.EstimatedCompletionTime.Local().Format(time.Kitchen))
	if card.CustomerName != "" {
		view += fmt.Sprintf("Customer: %s\n", card.CustomerName)
	}
	if len(card.Allergens) > 0 {
		view += errorStyle.Render("Allergens: "+strings.Join(card.Allergens, ", ")) + "\n"
	}
	if card.SpecialInstructions != "" {
		view += fmt.Sprintf("Notes: %s\n", card.SpecialInstructions)
	}

	view += "\nItems:\n"
	for i, it := range card.Items {
		view += fmt.Sprintf("%d. %s (x%d)", i+1, it.Name, it.Quantity)
		if it.Size != "" {
			view += " " + it.Size
		}
		view += "\n"
		if len(it.Modifications) > 0 {
			view += fmt.Sprintf("   Mods: %s\n", strings.Join(it.Modifications, ", "))
		}
		if it.CookingInstructions != "" {
			view += fmt.Sprintf("   Cook: %s\n", it.CookingInstructions)
		}
	}

	view += "\nActions:\n"
	for i, a := range actions {
		view += fmt.Sprintf("  %d) %s → %s\n", i+1, a.Action, a.Title)
	}
	view += "  r) Toggle rush\n\nPress a number to act, 'esc' to go back"
	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
