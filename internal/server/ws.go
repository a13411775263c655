package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin enforcement happens at the CORS layer; the editor
		// is expected to run on localhost during development.
		return true
	},
}

// wsMessage is the envelope pushed to connected editor clients.
type wsMessage struct {
	Action  string `json:"action"` // "update" or "reload"
	PageID  string `json:"pageId"`
	HTML    string `json:"html,omitempty"`
	CanUndo bool   `json:"canUndo,omitempty"`
	CanRedo bool   `json:"canRedo,omitempty"`
}

// wsClient is one connected editor, subscribed to a single page.
type wsClient struct {
	conn   *websocket.Conn
	pageID string
	mu     sync.Mutex
}

func (c *wsClient) send(msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket upgrades the connection and keeps it registered until
// the client goes away. Clients subscribe with ?page=<id>.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		http.Error(w, "page query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn, pageID: pageID}
	s.registerConnection(client)
	defer s.unregisterConnection(client)

	// Drain the read side so pings and close frames are processed. The
	// editor pushes state over POST /ops; the socket is downstream-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) registerConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.connections[c] = true
	log.Printf("[WS] Connection registered for page %s: %d active", c.pageID, len(s.connections))
}

func (s *Server) unregisterConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if _, ok := s.connections[c]; !ok {
		return
	}
	delete(s.connections, c)
	c.conn.Close()
	log.Printf("[WS] Connection unregistered for page %s: %d active", c.pageID, len(s.connections))
}

// broadcast sends a message to every client subscribed to the page.
func (s *Server) broadcast(pageID string, msg wsMessage) {
	s.connMu.RLock()
	clients := make([]*wsClient, 0, len(s.connections))
	for c := range s.connections {
		if c.pageID == pageID {
			clients = append(clients, c)
		}
	}
	s.connMu.RUnlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			log.Printf("[WS] Send to page %s client failed: %v", pageID, err)
			s.unregisterConnection(c)
		}
	}
}

func (s *Server) closeAllConnections() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.connections {
		c.conn.Close()
		delete(s.connections, c)
	}
}
