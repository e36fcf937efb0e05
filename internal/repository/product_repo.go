package repository

import (
	"context"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindBySlugsForUpdate(tx *gorm.DB, slugs []string) ([]model.Product, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error
	SetSoldOut(ctx context.Context, id uuid.UUID, soldOut bool, updatedBy string) error
	UpdateImages(ctx context.Context, id uuid.UUID, images []string, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves catalog fields only; stock_quantity belongs to the ledger
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("slug", "name_key", "description_key", "price", "cost_price",
			"low_stock_threshold", "sold_out", "type", "updated_by").
		Updates(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("slug ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlugsForUpdate locks the matching rows inside tx (no-op lock on SQLite)
func (r *productRepo) FindBySlugsForUpdate(tx *gorm.DB, slugs []string) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slug IN ?", slugs).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateStock takes tx so the cached column moves together with the ledger insert
func (r *productRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": newStock,
			"updated_by":     updatedBy,
		}).Error
}

func (r *productRepo) SetSoldOut(ctx context.Context, id uuid.UUID, soldOut bool, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"sold_out": soldOut, "updated_by": updatedBy})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) UpdateImages(ctx context.Context, id uuid.UUID, images []string, updatedBy string) error {
	product := model.Product{Images: images}
	product.ID = id
	product.UpdatedBy = updatedBy
	return r.db.WithContext(ctx).Model(&product).Select("images", "updated_by").Updates(&product).Error
}
