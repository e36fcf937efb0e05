package database

import (
	"go-roastery-api/internal/model"

	"gorm.io/gorm"
)

// Models lists every table in dependency order
var Models = []interface{}{
	&model.Privilege{},
	&model.Role{},
	&model.User{},
	&model.Product{},
	&model.StockMovement{},
	&model.Order{},
	&model.OrderItem{},
	&model.Cart{},
	&model.CartItem{},
	&model.Agent{},
	&model.SampleBooking{},
	&model.Business{},
	&model.BusinessActivity{},
}

// Migrate runs AutoMigrate over Models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
