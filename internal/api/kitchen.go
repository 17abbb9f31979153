package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"kitchenboard/internal/kds"
	"kitchenboard/internal/models"
	"kitchenboard/internal/orders"
	"kitchenboard/internal/realtime"
	"kitchenboard/internal/urgency"
	"kitchenboard/internal/views"
	"kitchenboard/internal/workflow"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MetricsSource provides the JSON metrics snapshot
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

// KitchenAPI represents the HTTP surface of the kitchen display
type KitchenAPI struct {
	Router  *gin.Engine
	Board   *kds.Board
	Hub     *realtime.Hub
	Metrics MetricsSource
}

// NewKitchenAPI creates a new kitchen API instance. hub and metrics may be nil.
func NewKitchenAPI(board *kds.Board, hub *realtime.Hub, metrics MetricsSource) *KitchenAPI {
	api := &KitchenAPI{
		Router:  gin.Default(),
		Board:   board,
		Hub:     hub,
		Metrics: metrics,
	}

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (k *KitchenAPI) setupRoutes() {
	k.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Kitchen board is running"})
	})
	if k.Hub != nil {
		k.Router.GET("/ws", k.Hub.ServeWS)
	}

	v1 := k.Router.Group("/api/v1")
	{
		// Orders
		v1.GET("/orders", k.ListOrders)
		v1.POST("/orders", k.CreateOrder)
		v1.GET("/orders/:id", k.GetOrder)
		v1.GET("/orders/:id/urgency", k.GetUrgency)
		v1.GET("/orders/:id/history", k.GetHistory)
		v1.GET("/orders/:id/actions", k.GetActions)

		// Workflow
		v1.POST("/orders/:id/move", k.MoveOrder)
		v1.PUT("/orders/:id/station", k.SetStation)
		v1.PUT("/orders/:id/priority", k.SetPriority)
		v1.PUT("/orders/:id/rush", k.SetRush)
		v1.PUT("/orders/:id/estimate", k.ReviseEstimate)

		// Board
		v1.GET("/board", k.GetBoard)
		v1.GET("/summary", k.GetSummary)
		v1.GET("/emergency", k.GetEmergency)
		v1.PUT("/emergency", k.SetEmergency)
		v1.GET("/metrics", k.GetMetrics)
	}
}

type orderRequest struct {
	ID                      string             `json:"id"`
	OrderNumber             string             `json:"order_number" binding:"required"`
	Platform                string             `json:"platform" binding:"required"`
	Brand                   string             `json:"brand"`
	EstimatedCompletionTime *time.Time         `json:"estimated_completion_time"`
	PrepMinutes             int                `json:"prep_minutes" binding:"omitempty,min=1"`
	IsRush                  bool               `json:"is_rush"`
	Priority                string             `json:"priority"`
	AssignedStation         string             `json:"assigned_station"`
	Items                   []models.OrderItem `json:"items" binding:"required"`
	Allergens               []string           `json:"allergens"`
	SpecialInstructions     string             `json:"special_instructions"`
	CustomerName            string             `json:"customer_name"`
	CustomerPhone           string             `json:"customer_phone"`
	DeliveryAddress         string             `json:"delivery_address"`
}

type moveRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type stationRequest struct {
	Station string `json:"station"`
}

type priorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type rushRequest struct {
	Rush *bool `json:"rush" binding:"required"`
}

type estimateRequest struct {
	EstimatedCompletionTime time.Time `json:"estimated_completion_time" binding:"required"`
}

type emergencyRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type actionResponse struct {
	To     models.Stage `json:"to"`
	Title  string       `json:"title"`
	Action string       `json:"action"`
}

// Order handlers

func (k *KitchenAPI) ListOrders(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, k.Board.ListOrders(filter))
}

func (k *KitchenAPI) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order := models.Order{
		ID:                  req.ID,
		OrderNumber:         req.OrderNumber,
		Platform:            platform,
		Brand:               req.Brand,
		IsRush:              req.IsRush,
		Items:               req.Items,
		Allergens:           req.Allergens,
		SpecialInstructions: req.SpecialInstructions,
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		DeliveryAddress:     req.DeliveryAddress,
	}
	if req.Priority != "" {
		if order.Priority, err = models.ParsePriority(req.Priority); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.AssignedStation != "" {
		station := req.AssignedStation
		order.AssignedStation = &station
	}
	if req.EstimatedCompletionTime != nil {
		order.EstimatedCompletionTime = *req.EstimatedCompletionTime
	}

	created, err := k.Board.ReceiveWithPrep(order, time.Duration(req.PrepMinutes)*time.Minute)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (k *KitchenAPI) GetOrder(c *gin.Context) {
	order, err := k.Board.Order(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (k *KitchenAPI) GetUrgency(c *gin.Context) {
	id := c.Param("id")
	state, err := k.Board.GetUrgency(id, k.Board.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":  id,
		"urgency":   state,
		"countdown": urgency.Format(state),
	})
}

func (k *KitchenAPI) GetHistory(c *gin.Context) {
	history, err := k.Board.History(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (k *KitchenAPI) GetActions(c *gin.Context) {
	order, err := k.Board.Order(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	actions := []actionResponse{}
	for _, t := range workflow.Actions(order.Stage) {
		actions = append(actions, actionResponse{To: t.To, Title: t.To.Title(), Action: t.Action})
	}
	c.JSON(http.StatusOK, gin.H{"stage": order.Stage, "actions": actions})
}

// Workflow handlers

func (k *KitchenAPI) MoveOrder(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := models.ParseStage(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := models.ParseStage(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := k.Board.MoveOrder(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (k *KitchenAPI) SetStation(c *gin.Context) {
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondOrder(c, func() (models.Order, error) { return k.Board.SetStation(c.Param("id"), req.Station) })
}

func (k *KitchenAPI) SetPriority(c *gin.Context) {
	var req priorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	level, err := models.ParsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondOrder(c, func() (models.Order, error) { return k.Board.SetPriority(c.Param("id"), level) })
}

func (k *KitchenAPI) SetRush(c *gin.Context) {
	var req rushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondOrder(c, func() (models.Order, error) { return k.Board.SetRush(c.Param("id"), *req.Rush) })
}

func (k *KitchenAPI) ReviseEstimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondOrder(c, func() (models.Order, error) {
		return k.Board.ReviseEstimate(c.Param("id"), req.EstimatedCompletionTime)
	})
}

// Board handlers

func (k *KitchenAPI) GetBoard(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"columns":   k.Board.Columns(filter),
		"emergency": k.Board.Emergency(),
	})
}

func (k *KitchenAPI) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, k.Board.Summary())
}

func (k *KitchenAPI) GetEmergency(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": k.Board.Emergency()})
}

func (k *KitchenAPI) SetEmergency(c *gin.Context) {
	var req emergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	k.Board.SetEmergency(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": k.Board.Emergency()})
}

func (k *KitchenAPI) GetMetrics(c *gin.Context) {
	if k.Metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, k.Metrics.GetMetrics())
}

func bindFilter(c *gin.Context) (views.Filter, bool) {
	filter := views.Filter{
		Stage:    c.Query("stage"),
		Station:  c.Query("station"),
		Brand:    c.Query("brand"),
		Platform: c.Query("platform"),
	}

	if filter.Stage != "" && filter.Stage != views.All {
		stage, err := models.ParseStage(filter.Stage)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filter, false
		}
		filter.Stage = string(stage)
	}
	if filter.Platform != "" && filter.Platform != views.All {
		platform, err := models.ParsePlatform(filter.Platform)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filter, false
		}
		filter.Platform = string(platform)
	}
	if raw := c.Query("rush"); raw != "" {
		rush, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rush must be a boolean"})
			return filter, false
		}
		filter.RushOnly = rush
	}
	return filter, true
}

func respondOrder(c *gin.Context, fn func() (models.Order, error)) {
	order, err := fn()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var te *workflow.TransitionError
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, kds.ErrIntakePaused):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrStaleTransition) && errors.As(err, &te):
		c.JSON(http.StatusConflict, gin.H{
			"error":         err.Error(),
			"current_stage": te.Actual,
		})
	case errors.Is(err, workflow.ErrIllegalTransition) && errors.As(err, &te):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             err.Error(),
			"valid_next_states": workflow.ValidTransitionsFrom(te.From),
		})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
