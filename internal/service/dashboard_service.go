package service

import (
	"context"
	"time"

	"go-roastery-api/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	movementRepo  repository.StockMovementRepository
	dashboardRepo repository.DashboardRepository
}

func NewDashboardService(movementRepo repository.StockMovementRepository, dashboardRepo repository.DashboardRepository) DashboardService {
	return &dashboardService{movementRepo: movementRepo, dashboardRepo: dashboardRepo}
}

// GetStockMovement returns daily inbound/outbound totals; days is clamped to 1..365
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days < 1 {
		days = 7
	}
	if days > 365 {
		days = 365
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.movementRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, storageErr(err, "stock movement chart")
	}
	if data == nil {
		data = []repository.StockMovementData{}
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.dashboardRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, storageErr(err, "dashboard stats")
	}
	return stats, nil
}
