package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat/internal/models"
	"pairchat/internal/services"
)

type chatServicesMock struct {
	mock.Mock
}

func (m *chatServicesMock) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *chatServicesMock) Heartbeat(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *chatServicesMock) SetTyping(ctx context.Context, chatID, userID string) (models.TypingSignal, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Get(0).(models.TypingSignal), args.Error(1)
}

func newWSServer(t *testing.T, svc *chatServicesMock, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewChatWebSocketHandler(hub, svc, svc, svc)
	r.GET("/ws/chats/:chat_id", handler.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestHandleRejectsMissingUser(t *testing.T) {
	svc := &chatServicesMock{}
	srv := newWSServer(t, svc, NewHub())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/c1"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleRejectsNonParticipant(t *testing.T) {
	svc := &chatServicesMock{}
	srv := newWSServer(t, svc, NewHub())
	userID := uuid.NewString()
	svc.On("IsParticipant", mock.Anything, "c1", userID).Return(false, nil).Once()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/c1?user_id="+userID), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	svc.On("IsParticipant", mock.Anything, "c2", userID).Return(false, services.ErrNotFound).Once()
	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/c2?user_id="+userID), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleServesFramesAndBroadcasts(t *testing.T) {
	svc := &chatServicesMock{}
	hub := NewHub()
	srv := newWSServer(t, svc, hub)
	userID := uuid.NewString()

	svc.On("IsParticipant", mock.Anything, "c1", userID).Return(true, nil).Once()
	typed := make(chan struct{}, 1)
	beat := make(chan struct{}, 1)
	svc.On("SetTyping", mock.Anything, "c1", userID).Return(models.TypingSignal{}, nil).Run(func(mock.Arguments) { typed <- struct{}{} }).Once()
	svc.On("Heartbeat", mock.Anything, userID).Return(nil).Run(func(mock.Arguments) { beat <- struct{}{} }).Once()

	header := http.Header{}
	header.Set("X-User-ID", userID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/c1"), header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize("c1") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "typing"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "heartbeat"}))
	for _, ch := range []chan struct{}{typed, beat} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("frame was not handled")
		}
	}

	hub.BroadcastChatEvent(models.ChatEvent{Type: models.EventRead, ChatID: "c1", UserID: "peer"})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var event models.ChatEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.EventRead, event.Type)
	assert.Equal(t, "peer", event.UserID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.RoomSize("c1") == 0 }, time.Second, 5*time.Millisecond)
	svc.AssertExpectations(t)
}

func TestHandleCanonicalizesUserID(t *testing.T) {
	svc := &chatServicesMock{}
	srv := newWSServer(t, svc, NewHub())
	userID := uuid.NewString()
	svc.On("IsParticipant", mock.Anything, "c1", userID).Return(false, nil).Once()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/c1?user_id="+strings.ToUpper(userID)), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	svc.AssertExpectations(t)
}
