package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the server copy of a shopper's cart, one per user
type Cart struct {
	BaseModel
	UserID         uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	IsSubscription bool       `gorm:"not null;default:false" json:"is_subscription"`
	Items          []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primary_key" json:"-"`
	CartID               uuid.UUID   `gorm:"type:uuid;not null;index" json:"-"`
	Position             int         `gorm:"not null;default:0" json:"-"`
	ProductSlug          string      `gorm:"type:varchar(120);not null" json:"product_slug"`
	ProductType          ProductType `gorm:"type:varchar(20);not null" json:"product_type"`
	Quantity             int         `gorm:"not null" json:"quantity"`
	Price                int64       `gorm:"not null" json:"price"`
	FreeWithSubscription bool        `gorm:"not null;default:false" json:"free_with_subscription"`
	UserAdded            bool        `gorm:"not null" json:"user_added"`
}

func (it *CartItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
