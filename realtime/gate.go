package realtime

import (
	"errors"
	"strconv"
	"time"

	"github.com/tably/tably-server/models"
	"github.com/tably/tably-server/utils"
)

var (
	// ErrUnauthorized covers every credential failure: unknown or expired
	// session keys, bad tokens, and ownership mismatches.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadSubscribe means the request named neither a customer nor a staff
	// channel in a usable way.
	ErrBadSubscribe = errors.New("subscribe request must carry a session key or a restaurant id with a token")
)

// SessionStore is the slice of persistence the realtime core depends on.
// Implemented by store.Store; tests substitute their own.
type SessionStore interface {
	GetSessionByKey(key string) (*models.TableSession, error)
	GetRestaurantOwnerID(restaurantID uint) (uint, error)
	GetMenuItemsByIDs(restaurantID uint, ids []uint) (map[uint]models.MenuItem, error)
	UpdateSessionCart(key string, cart []models.CartItem, participants *int) error
}

// SubscribeRequest is what a connection presents when it asks to join a
// channel. Exactly one of the two credential shapes must be present: a
// session key (customer cart channel) or a restaurant id plus auth token
// (staff channel).
type SubscribeRequest struct {
	SessionKey   string
	RestaurantID string
	AuthToken    string
}

// Gate decides whether a subscription attempt may join the channel it names.
type Gate struct {
	store SessionStore
	now   func() time.Time
}

func NewGate(store SessionStore) *Gate {
	return &Gate{store: store, now: time.Now}
}

// Authorize resolves a subscribe request to the channel key it grants, or an
// error when the request is malformed or the credential does not hold.
func (g *Gate) Authorize(req SubscribeRequest) (string, error) {
	hasCustomer := req.SessionKey != ""
	hasStaff := req.RestaurantID != "" || req.AuthToken != ""

	switch {
	case hasCustomer && !hasStaff:
		return g.authorizeSession(req.SessionKey)
	case hasStaff && !hasCustomer && req.RestaurantID != "" && req.AuthToken != "":
		return g.authorizeStaff(req.RestaurantID, req.AuthToken)
	default:
		// Neither shape, both at once, or a half-filled staff request.
		return "", ErrBadSubscribe
	}
}

// authorizeSession grants the table-session channel iff the key names a
// session that has not expired. Possession of an active key is the whole
// credential.
func (g *Gate) authorizeSession(sessionKey string) (string, error) {
	sess, err := g.store.GetSessionByKey(sessionKey)
	if err != nil {
		return "", ErrUnauthorized
	}
	if !sess.Active(g.now()) {
		return "", ErrUnauthorized
	}
	return SessionChannel(sessionKey), nil
}

// authorizeStaff grants the restaurant channel iff the token is valid and its
// bearer owns the named restaurant.
func (g *Gate) authorizeStaff(restaurantID, authToken string) (string, error) {
	id, err := strconv.ParseUint(restaurantID, 10, 32)
	if err != nil {
		return "", ErrBadSubscribe
	}

	claims, err := utils.ParseToken(authToken)
	if err != nil {
		return "", ErrUnauthorized
	}

	ownerID, err := g.store.GetRestaurantOwnerID(uint(id))
	if err != nil {
		return "", ErrUnauthorized
	}
	if ownerID != claims.UserID {
		return "", ErrUnauthorized
	}
	return RestaurantChannel(uint(id)), nil
}
