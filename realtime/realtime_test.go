package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tably/tably-server/models"
)

func timeout(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}

// fakeStore is an in-memory SessionStore for the realtime tests.
type fakeStore struct {
	mu           sync.Mutex
	sessions     map[string]*models.TableSession
	owners       map[uint]uint
	menu         map[uint]models.MenuItem
	failUpdate   bool
	updatedCarts map[string][]models.CartItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:     make(map[string]*models.TableSession),
		owners:       make(map[uint]uint),
		menu:         make(map[uint]models.MenuItem),
		updatedCarts: make(map[string][]models.CartItem),
	}
}

func (f *fakeStore) addSession(key string, restaurantID uint, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[key] = &models.TableSession{
		ID:           uint(len(f.sessions) + 1),
		TableID:      1,
		Table:        models.Table{ID: 1, RestaurantID: restaurantID},
		SessionKey:   key,
		Participants: 1,
		CartData:     "[]",
		CreatedAt:    time.Now(),
		ExpiresAt:    expiresAt,
	}
}

func (f *fakeStore) addMenuItem(id, restaurantID uint, price float64, available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menu[id] = models.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         fmt.Sprintf("item-%d", id),
		Price:        price,
		Available:    available,
	}
}

func (f *fakeStore) GetSessionByKey(key string) (*models.TableSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[key]
	if !ok {
		return nil, fmt.Errorf("session %s not found", key)
	}
	copied := *sess
	return &copied, nil
}

func (f *fakeStore) GetRestaurantOwnerID(restaurantID uint) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, ok := f.owners[restaurantID]
	if !ok {
		return 0, fmt.Errorf("restaurant %d not found", restaurantID)
	}
	return owner, nil
}

func (f *fakeStore) GetMenuItemsByIDs(restaurantID uint, ids []uint) (map[uint]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint]models.MenuItem)
	for _, id := range ids {
		if item, ok := f.menu[id]; ok && item.RestaurantID == restaurantID {
			out[id] = item
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSessionCart(key string, cart []models.CartItem, participants *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return fmt.Errorf("store unavailable")
	}
	sess, ok := f.sessions[key]
	if !ok {
		return fmt.Errorf("session %s not found", key)
	}
	f.updatedCarts[key] = cart
	if participants != nil {
		sess.Participants = *participants
	}
	return nil
}
