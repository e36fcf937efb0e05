package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment, MovementReturn:
		return true
	}
	return false
}

// StockMovement is an append-only ledger row. Quantity is signed:
// purchases and returns are positive, sales negative, adjustments either.
type StockMovement struct {
	BaseModel
	ProductID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product     `json:"product,omitempty"`
	Type       MovementType `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	StockAfter int          `gorm:"not null" json:"stock_after"`
	Reference  string       `gorm:"type:varchar(120)" json:"reference,omitempty"`
	Notes      string       `gorm:"type:text" json:"notes,omitempty"`
}
