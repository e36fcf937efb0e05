package model

type ProductType string

const (
	ProductConsumable ProductType = "consumable"
	ProductMachine    ProductType = "machine"
)

func (t ProductType) Valid() bool {
	return t == ProductConsumable || t == ProductMachine
}

// Product is a catalog entry. StockQuantity is a cache of the ledger sum and
// is only written together with a StockMovement insert.
type Product struct {
	BaseModel
	Slug              string      `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug" validate:"required,max=120"`
	NameKey           string      `gorm:"type:varchar(255);not null" json:"name_key" validate:"required"`
	DescriptionKey    string      `gorm:"type:varchar(255)" json:"description_key"`
	Price             int64       `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	CostPrice         int64       `gorm:"not null;default:0" json:"cost_price" validate:"gte=0"`
	StockQuantity     int         `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold int         `gorm:"not null" json:"low_stock_threshold" validate:"gte=0"`
	SoldOut           bool        `gorm:"not null;default:false" json:"sold_out"`
	Type              ProductType `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=consumable machine"`
	Images            []string    `gorm:"type:text;serializer:json" json:"images"`
}

// IsLowStock reports whether stock is at or below the product's own threshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// StorefrontProduct is the public view of a product; cost data is never exposed
type StorefrontProduct struct {
	Slug           string      `json:"slug"`
	NameKey        string      `json:"name_key"`
	DescriptionKey string      `json:"description_key"`
	Price          int64       `json:"price"`
	Type           ProductType `json:"type"`
	SoldOut        bool        `json:"sold_out"`
	InStock        bool        `json:"in_stock"`
	Images         []string    `json:"images"`
}

func (p *Product) ToStorefront() StorefrontProduct {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return StorefrontProduct{
		Slug:           p.Slug,
		NameKey:        p.NameKey,
		DescriptionKey: p.DescriptionKey,
		Price:          p.Price,
		Type:           p.Type,
		SoldOut:        p.SoldOut,
		InStock:        !p.SoldOut && p.StockQuantity > 0,
		Images:         images,
	}
}
