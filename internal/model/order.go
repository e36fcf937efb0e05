package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderFlow is the forward path; cancelled is reachable from every non-final step
var orderFlow = map[OrderStatus]OrderStatus{
	OrderPending:    OrderConfirmed,
	OrderConfirmed:  OrderProcessing,
	OrderProcessing: OrderShipped,
	OrderShipped:    OrderDelivered,
}

func (s OrderStatus) Valid() bool {
	_, forward := orderFlow[s]
	return forward || s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether an order in status s may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	successor, ok := orderFlow[s]
	if !ok {
		return false // delivered and cancelled are final
	}
	return next == successor || next == OrderCancelled
}

// ShippingAddress is stored inline on the order row
type ShippingAddress struct {
	FullName   string `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	Line1      string `gorm:"type:varchar(255)" json:"line1" validate:"required"`
	Line2      string `gorm:"type:varchar(255)" json:"line2"`
	City       string `gorm:"type:varchar(120)" json:"city" validate:"required"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code" validate:"required"`
	Country    string `gorm:"type:varchar(2)" json:"country" validate:"required,len=2"`
	Phone      string `gorm:"type:varchar(30)" json:"phone"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User           `json:"user,omitempty"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index;default:pending" json:"status"`
	IsSubscription  bool            `gorm:"not null;default:false" json:"is_subscription"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	TotalOverride   *int64          `json:"total_override"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Locale          string          `gorm:"type:varchar(10)" json:"locale"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductSlug     string    `gorm:"type:varchar(120);not null" json:"product_slug"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	PriceAtPurchase int64     `gorm:"not null" json:"price_at_purchase"`
	IsFree          bool      `gorm:"not null;default:false" json:"is_free"`
}

// ItemsTotal is the sum of quantity x price over items that are not free
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, it := range o.Items {
		if it.IsFree {
			continue
		}
		total += int64(it.Quantity) * it.PriceAtPurchase
	}
	return total
}

// Total honours an admin override when one is pinned
func (o *Order) Total() int64 {
	if o.TotalOverride != nil {
		return *o.TotalOverride
	}
	return o.ItemsTotal()
}

// OrderResponse adds the derived totals to the stored row
type OrderResponse struct {
	*Order
	ItemsTotal int64 `json:"items_total"`
	Total      int64 `json:"total"`
}

func (o *Order) ToResponse() OrderResponse {
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	return OrderResponse{Order: o, ItemsTotal: o.ItemsTotal(), Total: o.Total()}
}

func (it *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}
