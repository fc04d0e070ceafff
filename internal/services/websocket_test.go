package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := models.UserIdentity(1)
		if r.URL.Query().Get("as") == "admin" {
			identity = models.AdminIdentity(1)
		} else if r.URL.Query().Get("as") == "other" {
			identity = models.UserIdentity(2)
		}
		HandleWebSocket(hub, w, r, identity)
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, as string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?as=" + as
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubRoutesParcelEvents(t *testing.T) {
	hub, server := startHub(t)

	owner := dial(t, server, "user")
	admin := dial(t, server, "admin")
	other := dial(t, server, "other")
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 3 }, time.Second, 10*time.Millisecond)

	event := ParcelStatusEvent{Type: ParcelStatusEventType, ParcelID: 9, UserID: 1, Status: "Delivered", PreviousStatus: "Pending"}
	require.NoError(t, hub.NotifyParcelStatus(context.Background(), event))

	for _, conn := range []*websocket.Conn{owner, admin} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string            `json:"type"`
			Data ParcelStatusEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, ParcelStatusEventType, msg.Type)
		assert.Equal(t, uint(9), msg.Data.ParcelID)
		assert.Equal(t, "Delivered", msg.Data.Status)
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHubDropsClosedClients(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, "user")
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectedClients() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.BroadcastToKind(models.IdentityUser, []byte("{}")))
}

func TestMultiNotifierKeepsGoing(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	multi := NewMultiNotifier(logger.Discard(), failingNotifier{}, first, nil, second)

	require.NoError(t, multi.NotifyParcelStatus(context.Background(), ParcelStatusEvent{ParcelID: 1}))
	assert.Len(t, first.Events(), 1)
	assert.Len(t, second.Events(), 1)
}

type failingNotifier struct{}

func (failingNotifier) NotifyParcelStatus(context.Context, ParcelStatusEvent) error {
	return assert.AnError
}
