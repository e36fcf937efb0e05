package repository

import (
	"context"
	"errors"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepository interface {
	// FindByUser returns an empty, unsaved cart when the user has none yet
	FindByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	Replace(ctx context.Context, userID uuid.UUID, isSubscription bool, items []model.CartItem) (*model.Cart, error)
	Clear(tx *gorm.DB, userID uuid.UUID) error
}

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

func (r *cartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return findCart(r.db.WithContext(ctx), userID)
}

func findCart(db *gorm.DB, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) Replace(ctx context.Context, userID uuid.UUID, isSubscription bool, items []model.CartItem) (*model.Cart, error) {
	var saved *model.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, userID)
		if err != nil {
			return err
		}

		cart.IsSubscription = isSubscription
		if cart.ID == uuid.Nil {
			cart.Items = nil
			if err := tx.Create(cart).Error; err != nil {
				return err
			}
		} else if err := tx.Model(cart).Update("is_subscription", isSubscription).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].CartID = cart.ID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		cart.Items = items
		saved = cart
		return nil
	})
	return saved, err
}

func (r *cartRepo) Clear(tx *gorm.DB, userID uuid.UUID) error {
	var cart model.Cart
	err := tx.First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Model(&cart).Update("is_subscription", false).Error
}
