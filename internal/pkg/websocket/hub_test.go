package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberSet map[int64]bool

func (m memberSet) IsMember(_ context.Context, _ int64, userID int64) (bool, error) {
	return m[userID], nil
}

// echoSink stores nothing and broadcasts straight to the hub.
type echoSink struct {
	hub *Hub
	mu  sync.Mutex
	n   int64
}

func (s *echoSink) PostMessage(ctx context.Context, hubID, userID int64, content string) error {
	s.mu.Lock()
	s.n++
	id := s.n
	s.mu.Unlock()

	s.hub.Broadcast(ctx, &Message{Type: MessageTypeChat, ID: id, HubID: hubID, SenderID: userID, Content: content})
	return nil
}

func startHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	return hub, func() {
		cancel()
		<-done
	}
}

func newServer(t *testing.T, hub *Hub, members memberSet) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/hubs/:id/ws", func(c *gin.Context) {
		var uid int64 = 1
		if v := c.Query("uid"); v == "2" {
			uid = 2
		}
		c.Set("userID", uid)
	}, NewHandler(hub, members, &echoSink{hub: hub}, zerolog.Nop()).HandleConnection)

	return httptest.NewServer(r)
}

func dial(t *testing.T, srv *httptest.Server, path string) (*gorilla.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	return gorilla.DefaultDialer.Dial(url, nil)
}

func waitForClients(t *testing.T, hub *Hub, hubID int64, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetClientsCount(hubID) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestMessageReachesRoomMembers(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true, 2: true})

	sender, _, err := dial(t, srv, "/hubs/7/ws?uid=1")
	require.NoError(t, err)
	receiver, _, err := dial(t, srv, "/hubs/7/ws?uid=2")
	require.NoError(t, err)
	waitForClients(t, hub, 7, 2)

	require.NoError(t, sender.WriteMessage(gorilla.TextMessage, []byte(`{"content":"hello"}`)))

	require.NoError(t, receiver.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := receiver.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeChat, msg.Type)
	assert.Equal(t, int64(7), msg.HubID)
	assert.Equal(t, int64(1), msg.SenderID)
	assert.Equal(t, "hello", msg.Content)

	sender.Close()
	receiver.Close()
	waitForClients(t, hub, 7, 0)
	srv.Close()
	stop()
}

func TestEmptyMessageGetsErrorReply(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true})

	conn, _, err := dial(t, srv, "/hubs/3/ws")
	require.NoError(t, err)
	waitForClients(t, hub, 3, 1)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"content":"   "}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeError, msg.Type)

	conn.Close()
	waitForClients(t, hub, 3, 0)
	srv.Close()
	stop()
}

func TestNonMemberIsRejected(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true})

	_, resp, err := dial(t, srv, "/hubs/3/ws?uid=2")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	srv.Close()
	stop()
}

func TestStoppingHubDisconnectsClients(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true})

	conn, _, err := dial(t, srv, "/hubs/5/ws")
	require.NoError(t, err)
	waitForClients(t, hub, 5, 1)

	stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// Broadcasting after shutdown must not block.
	hub.Broadcast(context.Background(), &Message{HubID: 5})

	conn.Close()
	srv.Close()
}

func TestDisconnectEvictsOnlyThatMember(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true, 2: true})

	stays, _, err := dial(t, srv, "/hubs/9/ws?uid=1")
	require.NoError(t, err)
	leaves, _, err := dial(t, srv, "/hubs/9/ws?uid=2")
	require.NoError(t, err)
	waitForClients(t, hub, 9, 2)

	hub.Disconnect(context.Background(), 9, 2)
	waitForClients(t, hub, 9, 1)

	require.NoError(t, stays.WriteMessage(gorilla.TextMessage, []byte(`{"content":"members only"}`)))

	require.NoError(t, stays.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := stays.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "members only")

	// the evicted connection only sees the close frame
	require.NoError(t, leaves.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = leaves.ReadMessage()
	require.Error(t, err)
	assert.True(t, gorilla.IsCloseError(err, gorilla.CloseNoStatusReceived, gorilla.CloseNormalClosure), err.Error())

	stays.Close()
	leaves.Close()
	waitForClients(t, hub, 9, 0)
	srv.Close()
	stop()
}

func TestEvictWholeRoom(t *testing.T) {
	hub, stop := startHub(t)
	srv := newServer(t, hub, memberSet{1: true, 2: true})

	first, _, err := dial(t, srv, "/hubs/4/ws?uid=1")
	require.NoError(t, err)
	second, _, err := dial(t, srv, "/hubs/4/ws?uid=2")
	require.NoError(t, err)
	waitForClients(t, hub, 4, 2)

	hub.Broadcast(context.Background(), EvictMessage(4, 0))
	waitForClients(t, hub, 4, 0)

	first.Close()
	second.Close()
	srv.Close()
	stop()
}
