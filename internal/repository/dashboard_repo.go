package repository

import (
	"context"

	"go-roastery-api/internal/model"

	"gorm.io/gorm"
)

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalProducts  int64                         `json:"total_products"`
	LowStockCount  int64                         `json:"low_stock_count"`
	SoldOutCount   int64                         `json:"sold_out_count"`
	StockValuation int64                         `json:"stock_valuation"`
	OpenOrders     int64                         `json:"open_orders"`
	PendingSamples int64                         `json:"pending_samples"`
	Pipeline       map[model.PipelineStage]int64 `json:"pipeline"`
}

type DashboardRepository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	stats := DashboardStats{Pipeline: make(map[model.PipelineStage]int64, len(model.PipelineStages))}

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("stock_quantity <= low_stock_threshold AND sold_out = ?", false).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("sold_out = ?", true).Count(&stats.SoldOutCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity * cost_price), 0)").
		Scan(&stats.StockValuation).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Order{}).
		Where("status IN ?", []model.OrderStatus{model.OrderPending, model.OrderConfirmed, model.OrderProcessing}).
		Count(&stats.OpenOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.SampleBooking{}).
		Where("status = ?", model.BookingPending).
		Count(&stats.PendingSamples).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Stage model.PipelineStage
		Total int64
	}
	if err := db.Model(&model.Business{}).
		Select("stage, COUNT(*) as total").
		Group("stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, st := range model.PipelineStages {
		stats.Pipeline[st] = 0
	}
	for _, row := range rows {
		stats.Pipeline[row.Stage] = row.Total
	}
	return &stats, nil
}
