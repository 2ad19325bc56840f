package realtime

import (
	"encoding/json"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

// Hub delivers payloads to every live member of a channel. Delivery is
// fire-and-forget: each member has a buffered outbound queue, and a member
// that cannot accept the payload (gone, or stuck long enough to fill its
// queue) is dropped from the registry instead of delaying anyone else.
type Hub struct {
	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Publish marshals v once and hands it to every current member of the
// channel. Per-member failures are handled by evicting that member; they are
// never surfaced to the caller.
func (h *Hub) Publish(channelKey string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal for channel %s failed: %v", channelKey, err)
		return
	}
	h.publishRaw(channelKey, data, nil)
}

// PublishExcept behaves like Publish but skips one member, typically the
// originator of a mutation.
func (h *Hub) PublishExcept(channelKey string, except *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshal for channel %s failed: %v", channelKey, err)
		return
	}
	h.publishRaw(channelKey, data, except)
}

func (h *Hub) publishRaw(channelKey string, data []byte, except *Client) {
	for _, member := range h.registry.MembersOf(channelKey) {
		if member == except {
			continue
		}
		if !member.trySend(data) {
			// Unreachable member: self-heal the channel, never block the rest.
			h.registry.DeregisterAll(member)
			member.Close()
		}
	}
}

// BroadcastNewOrder announces a freshly placed order on its restaurant's
// channel.
func (h *Hub) BroadcastNewOrder(order *models.Order) {
	h.Publish(RestaurantChannel(order.RestaurantID), NewOrderEvent{
		Type:  TypeNewOrder,
		Order: order,
	})
}

// BroadcastOrderStatus announces a status transition on the restaurant
// channel and, when the order belongs to a table session, on that session's
// channel too. sessionKey is empty for session-less orders.
func (h *Hub) BroadcastOrderStatus(order *models.Order, sessionKey string) {
	event := OrderStatusEvent{
		Type:    TypeOrderStatusUpdate,
		OrderID: order.ID,
		Status:  order.Status,
		Order:   order,
	}
	h.Publish(RestaurantChannel(order.RestaurantID), event)
	if sessionKey != "" {
		h.Publish(SessionChannel(sessionKey), event)
	}
}
