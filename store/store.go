package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tably/tably-server/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Store is the persistence layer behind the realtime core and the order
// endpoints. Everything goes through gorm; the realtime package only sees the
// subset of methods it needs.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// GetSessionByKey loads a table session (with its table, for the restaurant
// scope) by its capability key.
func (s *Store) GetSessionByKey(key string) (*models.TableSession, error) {
	var sess models.TableSession
	err := s.DB.Preload("Table").Where("session_key = ?", key).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSessionByID loads a table session by primary key.
func (s *Store) GetSessionByID(id uint) (*models.TableSession, error) {
	var sess models.TableSession
	err := s.DB.First(&sess, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetActiveSessionByTable returns the newest non-expired session for a table,
// or ErrNotFound when every session for it has lapsed.
func (s *Store) GetActiveSessionByTable(tableID uint) (*models.TableSession, error) {
	var sess models.TableSession
	err := s.DB.Where("table_id = ? AND expires_at > ?", tableID, time.Now()).
		Order("created_at DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateSession opens a fresh session for a table with an empty cart and a
// single participant. The session key is a freshly minted uuid.
func (s *Store) CreateSession(tableID uint, ttl time.Duration) (*models.TableSession, error) {
	sess := models.TableSession{
		TableID:      tableID,
		SessionKey:   uuid.NewString(),
		Participants: 1,
		CartData:     "[]",
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(ttl),
	}
	if err := s.DB.Create(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// AddParticipant bumps the participant count of a session in a single UPDATE
// so concurrent joins never lose an increment.
func (s *Store) AddParticipant(key string) (*models.TableSession, error) {
	res := s.DB.Model(&models.TableSession{}).
		Where("session_key = ?", key).
		Update("participants", gorm.Expr("participants + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetSessionByKey(key)
}

// UpdateSessionCart replaces the session cart wholesale. When participants is
// non-nil both fields are written by the same UPDATE statement, so a
// concurrent writer can never observe (or produce) a mix of one update's cart
// with the other's participant count. Last writer wins.
func (s *Store) UpdateSessionCart(key string, cart []models.CartItem, participants *int) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"cart_data": string(data),
	}
	if participants != nil {
		fields["participants"] = *participants
	}

	res := s.DB.Model(&models.TableSession{}).
		Where("session_key = ?", key).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRestaurantOwnerID answers the ownership question for staff channel
// authorization.
func (s *Store) GetRestaurantOwnerID(restaurantID uint) (uint, error) {
	var restaurant models.Restaurant
	err := s.DB.Select("id", "owner_id").First(&restaurant, restaurantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return restaurant.OwnerID, nil
}

// GetMenuItemsByIDs fetches the requested menu items of one restaurant, keyed
// by id. Items of other restaurants are simply absent from the result.
func (s *Store) GetMenuItemsByIDs(restaurantID uint, ids []uint) (map[uint]models.MenuItem, error) {
	if len(ids) == 0 {
		return map[uint]models.MenuItem{}, nil
	}
	var items []models.MenuItem
	if err := s.DB.Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.MenuItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// CreateOrder persists an order together with its item snapshots.
func (s *Store) CreateOrder(order *models.Order) error {
	return s.DB.Create(order).Error
}

// GetOrderByID loads an order with its items.
func (s *Store) GetOrderByID(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus applies a kitchen status transition. The check and the
// write share one transaction so two concurrent staff clicks cannot both
// succeed on the same edge.
func (s *Store) UpdateOrderStatus(orderID uint, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !models.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}
		order.Status = status
		order.UpdatedAt = time.Now()
		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{"status": status, "updated_at": order.UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
