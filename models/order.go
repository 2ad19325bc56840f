package models

import "time"

const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

var statusRank = map[string]int{
	OrderStatusReceived:  0,
	OrderStatusPreparing: 1,
	OrderStatusReady:     2,
	OrderStatusCompleted: 3,
}

type Order struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	RestaurantID        uint         `gorm:"not null;index" json:"restaurant_id"`
	Restaurant          Restaurant   `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TableID             uint         `gorm:"not null;index" json:"table_id"`
	Table               Table        `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionID           *uint        `gorm:"index" json:"session_id,omitempty"`
	Session             *TableSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Status              string       `gorm:"type:varchar(20);not null;default:'received'" json:"status"`
	TotalAmount         float64      `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_amount"`
	SpecialInstructions string       `gorm:"type:text" json:"special_instructions"`
	Items               []OrderItem  `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt           time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time    `gorm:"not null" json:"updated_at"`
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// The kitchen flow is monotonic (received -> preparing -> ready -> completed);
// cancelled is reachable from any non-terminal status. There are no backward
// transitions.
func CanTransition(from, to string) bool {
	if from == OrderStatusCompleted || from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
