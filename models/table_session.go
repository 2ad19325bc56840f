package models

import (
	"encoding/json"
	"time"
)

// TableSession is the shared cart for one physical table. Sessions are never
// deleted: an expired session simply stops accepting joins and mutations and
// gets superseded by a fresh one for the same table.
type TableSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TableID      uint      `gorm:"not null;index" json:"table_id"`
	Table        Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SessionKey   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_key"`
	Participants int       `gorm:"not null;default:1" json:"participants"`
	CartData     string    `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
}

// Active reports whether the session may still be joined or mutated.
func (s *TableSession) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Cart decodes CartData. An empty or unset blob is an empty cart.
func (s *TableSession) Cart() []CartItem {
	if s.CartData == "" {
		return []CartItem{}
	}
	var items []CartItem
	if err := json.Unmarshal([]byte(s.CartData), &items); err != nil {
		return []CartItem{}
	}
	return items
}
