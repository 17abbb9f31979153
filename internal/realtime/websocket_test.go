package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kitchenboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestHub_AlertSink(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	event := models.AlertEvent{ID: "a1", Kind: models.AlertOrderOverdue, OrderID: "ORD-002"}
	require.NoError(t, hub.AlertSink(context.Background(), event))

	var msg Message
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, TypeAlert, msg.Type)
	require.NotNil(t, msg.Alert)
	assert.Equal(t, "ORD-002", msg.Alert.OrderID)
	assert.Equal(t, models.AlertOrderOverdue, msg.Alert.Kind)
	assert.Nil(t, msg.Stage)
}

func TestHub_ObserveTransition(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	hub.ObserveTransition(models.StageChanged{OrderID: "ORD-001", From: models.StageNew, To: models.StagePrep})

	var msg Message
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, TypeStageChanged, msg.Type)
	require.NotNil(t, msg.Stage)
	assert.Equal(t, models.StagePrep, msg.Stage.To)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Broadcast(Message{Type: TypeAlert}))
	assert.Zero(t, hub.Dropped())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	hub.Close()
	assert.Zero(t, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
