package realtime

import (
	"fmt"

	"github.com/tably/tably-server/models"
)

// Inbound message types.
const (
	TypeSubscribe  = "subscribe"
	TypeCartUpdate = "cart_update"
)

// Outbound message types.
const (
	TypeSubscriptionConfirmed = "subscription_confirmed"
	TypeSubscriptionRejected  = "subscription_rejected"
	TypeNewOrder              = "new_order"
	TypeOrderStatusUpdate     = "order_status_update"
	TypeError                 = "error"
)

// SessionChannel derives the channel key for one table session's cart.
func SessionChannel(sessionKey string) string {
	return "session:" + sessionKey
}

// RestaurantChannel derives the channel key for a restaurant's staff
// dashboard.
func RestaurantChannel(restaurantID uint) string {
	return fmt.Sprintf("restaurant:%d", restaurantID)
}

// inboundMessage is the decoded form of every frame a client may send. Type
// selects which of the remaining fields matter.
type inboundMessage struct {
	Type         string            `json:"type"`
	SessionKey   string            `json:"sessionKey"`
	RestaurantID string            `json:"restaurantId"`
	AuthToken    string            `json:"authToken"`
	CartItems    []models.CartItem `json:"cartItems"`
	Participants *int              `json:"participants"`
}

type confirmedEvent struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type rejectedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CartUpdateEvent fans a fresh cart state out to the other members of a
// session channel.
type CartUpdateEvent struct {
	Type         string            `json:"type"`
	SessionKey   string            `json:"sessionKey"`
	CartItems    []models.CartItem `json:"cartItems"`
	Participants int               `json:"participants"`
}

// NewOrderEvent notifies a restaurant channel that an order just arrived.
type NewOrderEvent struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

// OrderStatusEvent notifies the restaurant channel and, when the order came
// out of a table session, that session's channel of a status transition.
type OrderStatusEvent struct {
	Type    string        `json:"type"`
	OrderID uint          `json:"orderId"`
	Status  string        `json:"status"`
	Order   *models.Order `json:"order"`
}
