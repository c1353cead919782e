package websocket

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a single connected practitioner session
type Client struct {
	Hub    *Hub
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

type userMessage struct {
	userID  string
	payload []byte
}

// Hub tracks connected sessions per user and delivers alerts to them
type Hub struct {
	clients    map[string]map[*Client]bool
	direct     chan userMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logrus.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		direct:     make(chan userMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			h.log.WithField("user_id", client.UserID).Debug("websocket client connected")
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.direct:
			h.mu.Lock()
			for client := range h.clients[msg.userID] {
				select {
				case client.Send <- msg.payload:
				default:
					h.dropLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends the dispatch loop. Sessions opened afterwards are refused and
// sends are dropped.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// add hands client to the dispatch loop, or reports false once it stopped.
func (h *Hub) add(client *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	sessions := h.clients[client.UserID]
	if _, ok := sessions[client]; !ok {
		return
	}
	delete(sessions, client)
	close(client.Send)
	if len(sessions) == 0 {
		delete(h.clients, client.UserID)
	}
	h.log.WithField("user_id", client.UserID).Debug("websocket client disconnected")
}

// SendToUser queues payload for every session of userID. It never blocks;
// false means the queue was full and the message was dropped.
func (h *Hub) SendToUser(userID string, payload []byte) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.direct <- userMessage{userID: userID, payload: payload}:
		return true
	default:
		return false
	}
}

// Connected reports how many sessions userID has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump keeps the connection alive until the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).Warn("websocket read failed")
			}
			break
		}
	}
}

// ServeWs upgrades an authenticated request. The token comes from the
// "token" query parameter and its sub claim selects the user channel.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.log.Info("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		hub.log.WithError(err).Info("websocket connection rejected: invalid token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		hub.log.Info("websocket connection rejected: token without subject")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if hub.stopped() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &Client{Hub: hub, UserID: userID, Conn: conn, Send: make(chan []byte, 256)}
	if !hub.add(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
