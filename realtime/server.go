package realtime

import (
	"github.com/gorilla/websocket"
)

// Server bundles the realtime pieces behind one constructor: the registry
// owns channel membership, the hub fans messages out, the gate screens
// subscription attempts. One Server lives for the lifetime of the process and
// is injected wherever broadcasts originate; there is no package-level state.
type Server struct {
	Registry *Registry
	Hub      *Hub
	Gate     *Gate
	store    SessionStore
}

func NewServer(store SessionStore) *Server {
	registry := NewRegistry()
	return &Server{
		Registry: registry,
		Hub:      NewHub(registry),
		Gate:     NewGate(store),
		store:    store,
	}
}

// HandleConn runs a freshly upgraded websocket connection until it closes.
func (s *Server) HandleConn(conn *websocket.Conn) {
	client := newClient(conn, s.Registry, s.Hub, s.Gate, s.store)
	client.Run()
}
