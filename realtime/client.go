package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

const (
	// How long a single frame write may take before the peer counts as dead.
	writeWait = 10 * time.Second
	// Outbound queue depth per connection. A peer that falls this far behind
	// is evicted rather than allowed to stall broadcasts.
	sendBufferSize = 32
)

// Client is the server side of one websocket connection. A connection starts
// unsubscribed, may join channels through subscribe messages, and is torn out
// of the registry unconditionally when its read loop ends, however it ends.
type Client struct {
	conn     *websocket.Conn
	registry *Registry
	hub      *Hub
	gate     *Gate
	store    SessionStore

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	channels map[string]bool
}

func newClient(conn *websocket.Conn, registry *Registry, hub *Hub, gate *Gate, store SessionStore) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		hub:      hub,
		gate:     gate,
		store:    store,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		channels: make(map[string]bool),
	}
}

// Run pumps the connection until it closes. It blocks until the read side is
// done; cleanup is deferred so it runs no matter how the loop exits.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.registry.DeregisterAll(c)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		}
	}
}

// Close shuts the connection down. Safe to call more than once and from any
// goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// trySend queues a frame for delivery without blocking. It reports false when
// the client is closed or its queue is full, which callers treat as "this
// recipient is gone".
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) sendEvent(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal outbound event failed: %v", err)
		return
	}
	c.trySend(data)
}

func (c *Client) sendError(message string) {
	c.sendEvent(errorEvent{Type: TypeError, Message: message})
}

func (c *Client) subscribed(channelKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channelKey]
}

func (c *Client) markSubscribed(channelKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[channelKey] = true
}

// handleMessage dispatches one inbound frame. Malformed frames produce an
// error reply and nothing else; they never take the connection down.
func (c *Client) handleMessage(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid message payload")
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		c.handleSubscribe(msg)
	case TypeCartUpdate:
		c.handleCartUpdate(msg)
	case "":
		c.sendError("missing message type")
	default:
		c.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// handleSubscribe runs the authorization gate. Success registers the
// connection and confirms the channel; failure is terminal for the
// connection (reject-and-close).
func (c *Client) handleSubscribe(msg inboundMessage) {
	key, err := c.gate.Authorize(SubscribeRequest{
		SessionKey:   msg.SessionKey,
		RestaurantID: msg.RestaurantID,
		AuthToken:    msg.AuthToken,
	})
	if err != nil {
		c.sendEvent(rejectedEvent{Type: TypeSubscriptionRejected, Message: err.Error()})
		// Give the write pump a moment to flush the rejection before the
		// socket goes away.
		time.Sleep(50 * time.Millisecond)
		c.Close()
		return
	}

	c.registry.Register(key, c)
	c.markSubscribed(key)
	c.sendEvent(confirmedEvent{Type: TypeSubscriptionConfirmed, Key: key})
}

// handleCartUpdate validates, persists and fans out a cart mutation. The
// session is re-checked for expiry on every mutation; prices always come from
// the menu, never from the client.
func (c *Client) handleCartUpdate(msg inboundMessage) {
	if msg.SessionKey == "" {
		c.sendError("cart_update requires a session key")
		return
	}
	if !c.subscribed(SessionChannel(msg.SessionKey)) {
		c.sendError("not subscribed to this session")
		return
	}

	sess, err := c.store.GetSessionByKey(msg.SessionKey)
	if err != nil {
		c.sendError("session lookup failed")
		return
	}
	if !sess.Active(time.Now()) {
		c.sendError("session has expired")
		return
	}

	cart, err := c.priceCart(sess.Table.RestaurantID, msg.CartItems)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	if msg.Participants != nil && *msg.Participants < 0 {
		c.sendError("participants must not be negative")
		return
	}

	if err := c.store.UpdateSessionCart(msg.SessionKey, cart, msg.Participants); err != nil {
		// Never broadcast a state the store did not accept.
		c.sendError("failed to save cart")
		return
	}

	participants := sess.Participants
	if msg.Participants != nil {
		participants = *msg.Participants
	}

	c.hub.PublishExcept(SessionChannel(msg.SessionKey), c, CartUpdateEvent{
		Type:         TypeCartUpdate,
		SessionKey:   msg.SessionKey,
		CartItems:    cart,
		Participants: participants,
	})
}

// priceCart rebuilds the cart lines from authoritative menu data. The whole
// mutation is rejected when any line names an unknown or unavailable item or
// a non-positive quantity.
func (c *Client) priceCart(restaurantID uint, items []models.CartItem) ([]models.CartItem, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity for menu item %d", item.MenuItemID)
		}
		ids = append(ids, item.MenuItemID)
	}

	menu, err := c.store.GetMenuItemsByIDs(restaurantID, ids)
	if err != nil {
		return nil, errors.New("menu lookup failed")
	}

	priced := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		menuItem, ok := menu[item.MenuItemID]
		if !ok || !menuItem.Available {
			return nil, fmt.Errorf("menu item %d is not available", item.MenuItemID)
		}
		priced = append(priced, models.CartItem{
			MenuItemID: menuItem.ID,
			Quantity:   item.Quantity,
			UnitPrice:  menuItem.Price,
			LineTotal:  menuItem.Price * float64(item.Quantity),
		})
	}
	return priced, nil
}
