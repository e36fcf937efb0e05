package repository

import (
	"context"
	"time"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	Create(tx *gorm.DB, movement *model.StockMovement) error
	FindAll(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

// StockMovementData is one day of chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) Create(tx *gorm.DB, movement *model.StockMovement) error {
	return tx.Create(movement).Error
}

func (r *stockMovementRepo) FindAll(ctx context.Context, productID *uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := r.db.WithContext(ctx).Preload("Product").Order("created_at DESC")
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	err := q.Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	if err := r.db.WithContext(ctx).Preload("Product").First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// SumByProduct recomputes stock from the ledger, for consistency checks
func (r *stockMovementRepo) SumByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *stockMovementRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN quantity > 0 THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN quantity < 0 THEN -quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
