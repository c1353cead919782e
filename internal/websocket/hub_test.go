package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gstdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("hub-test-secret")

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logger.Discard())
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, testSecret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func signToken(t *testing.T, sub string, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestServeWsDeliversToUser(t *testing.T) {
	hub, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+signToken(t, "user-1", testSecret), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected("user-1") == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Connected("user-2"))

	require.True(t, hub.SendToUser("user-1", []byte(`{"type":"notification"}`)))
	require.True(t, hub.SendToUser("user-2", []byte(`{"type":"ignored"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(msg))
}

func TestServeWsUnregistersOnClose(t *testing.T) {
	hub, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+signToken(t, "user-1", testSecret), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Connected("user-1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected("user-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWsRejectsBadTokens(t *testing.T) {
	_, url := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing token", ""},
		{"wrong secret", "?token=" + signToken(t, "user-1", []byte("other"))},
		{"no subject", "?token=" + signToken(t, "", testSecret)},
		{"garbage", "?token=not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(url+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSendToUserNeverBlocks(t *testing.T) {
	hub := NewHub(logger.Discard())
	// Dispatch loop not running: the queue fills and further sends are dropped.
	for i := 0; i < cap(hub.direct); i++ {
		require.True(t, hub.SendToUser("user-1", []byte("x")))
	}
	assert.False(t, hub.SendToUser("user-1", []byte("x")))
}

func TestStoppedHubRefusesSessions(t *testing.T) {
	hub, url := newTestServer(t)
	hub.Stop()
	hub.Stop()
	token := signToken(t, "user-1", testSecret)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, resp, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
		if conn != nil {
			_ = conn.Close()
		}
		assert.Error(t, err)
		if assert.NotNil(t, resp) {
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connecting to a stopped hub must not hang")
	}

	assert.False(t, hub.SendToUser("user-1", []byte(`{}`)))
	assert.Zero(t, hub.Connected("user-1"))

	// A session added after the loop exited is refused without blocking.
	assert.False(t, hub.add(&Client{Hub: hub, UserID: "user-1", Send: make(chan []byte, 1)}))
}
