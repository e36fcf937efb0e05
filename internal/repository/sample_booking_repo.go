package repository

import (
	"context"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SampleBookingRepository interface {
	Create(ctx context.Context, booking *model.SampleBooking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SampleBooking, error)
	FindAll(ctx context.Context, status *model.BookingStatus) ([]model.SampleBooking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, updatedBy string) error
	CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error)
}

type sampleBookingRepo struct {
	db *gorm.DB
}

func NewSampleBookingRepo(db *gorm.DB) SampleBookingRepository {
	return &sampleBookingRepo{db}
}

func (r *sampleBookingRepo) Create(ctx context.Context, booking *model.SampleBooking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *sampleBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SampleBooking, error) {
	var booking model.SampleBooking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *sampleBookingRepo) FindAll(ctx context.Context, status *model.BookingStatus) ([]model.SampleBooking, error) {
	var bookings []model.SampleBooking
	q := r.db.WithContext(ctx).Order("requested_date ASC, created_at ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Find(&bookings).Error
	return bookings, err
}

func (r *sampleBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.SampleBooking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_by": updatedBy})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sampleBookingRepo) CountByStatus(ctx context.Context, status model.BookingStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SampleBooking{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
