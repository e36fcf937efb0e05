package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const conversionLockTTL = 30 * time.Second

type SampleBookingService interface {
	CreateSampleBooking(ctx context.Context, req *SampleBookingRequest) (*model.SampleBooking, error)
	ListSampleBookings(ctx context.Context, status *model.BookingStatus) ([]model.SampleBooking, error)
	GetSampleBooking(ctx context.Context, id uuid.UUID) (*model.SampleBooking, error)
	UpdateSampleBookingStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, actor Actor) (*model.SampleBooking, error)
	// ConvertSampleBooking returns the business for the booking, creating it on the first call only
	ConvertSampleBooking(ctx context.Context, id uuid.UUID, actor Actor) (business *model.Business, created bool, err error)
}

type SampleBookingRequest struct {
	ContactName   string `json:"contact_name" validate:"required,max=255"`
	CompanyName   string `json:"company_name" validate:"max=255"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"max=30"`
	Address       string `json:"address"`
	RequestedDate string `json:"requested_date" validate:"required,datetime=2006-01-02"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type sampleBookingService struct {
	bookingRepo  repository.SampleBookingRepository
	businessRepo repository.BusinessRepository
	db           *gorm.DB
	locker       cache.Locker
	wsHub        *ws.Hub
	logger       *zap.Logger
	now          func() time.Time
}

func NewSampleBookingService(
	bookingRepo repository.SampleBookingRepository,
	businessRepo repository.BusinessRepository,
	db *gorm.DB,
	locker cache.Locker,
	hub *ws.Hub,
	logger *zap.Logger,
) SampleBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sampleBookingService{
		bookingRepo:  bookingRepo,
		businessRepo: businessRepo,
		db:           db,
		locker:       locker,
		wsHub:        hub,
		logger:       logger.Named("sample_bookings"),
		now:          time.Now,
	}
}

// CreateSampleBooking is the public storefront form
func (s *sampleBookingService) CreateSampleBooking(ctx context.Context, req *SampleBookingRequest) (*model.SampleBooking, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	requested, err := time.Parse("2006-01-02", req.RequestedDate)
	if err != nil {
		return nil, validationf("requested_date must be YYYY-MM-DD")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if requested.Before(today) {
		return nil, validationf("requested_date must not be in the past")
	}

	booking := &model.SampleBooking{
		ContactName:   strings.TrimSpace(req.ContactName),
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Email:         strings.ToLower(req.Email),
		Phone:         req.Phone,
		Address:       req.Address,
		RequestedDate: requested,
		Status:        model.BookingPending,
		Notes:         req.Notes,
	}
	booking.Audit("storefront")
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, storageErr(err, "sample booking")
	}

	name := booking.CompanyName
	if name == "" {
		name = booking.ContactName
	}
	s.wsHub.Publish(ws.Event{
		Type:    "sample_booking",
		Action:  "created",
		Data:    booking,
		Message: fmt.Sprintf("New sample request from %s for %s", name, req.RequestedDate),
	})
	return booking, nil
}

func (s *sampleBookingService) ListSampleBookings(ctx context.Context, status *model.BookingStatus) ([]model.SampleBooking, error) {
	if status != nil && !status.Valid() {
		return nil, validationf("unknown booking status %q", *status)
	}
	bookings, err := s.bookingRepo.FindAll(ctx, status)
	return bookings, storageErr(err, "sample bookings")
}

func (s *sampleBookingService) GetSampleBooking(ctx context.Context, id uuid.UUID) (*model.SampleBooking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "sample booking")
	}
	return booking, nil
}

func (s *sampleBookingService) UpdateSampleBookingStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, actor Actor) (*model.SampleBooking, error) {
	if !status.Valid() {
		return nil, validationf("unknown booking status %q", status)
	}
	if err := s.bookingRepo.UpdateStatus(ctx, id, status, actor.AuditID()); err != nil {
		return nil, storageErr(err, "sample booking")
	}
	return s.GetSampleBooking(ctx, id)
}

// ConvertSampleBooking is idempotent per booking id. The unique
// sample_booking_id column is the final guard; the lock only keeps
// concurrent converters from racing into it.
func (s *sampleBookingService) ConvertSampleBooking(ctx context.Context, id uuid.UUID, actor Actor) (*model.Business, bool, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, false, storageErr(err, "sample booking")
	}
	if booking.Status == model.BookingCancelled {
		return nil, false, validationf("cancelled bookings cannot be converted")
	}

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, "sample-booking:"+id.String(), conversionLockTTL)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrUnexpected, err)
		}
		defer release()
	}

	if existing, err := s.businessRepo.FindBySampleBookingID(ctx, id); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, storageErr(err, "business")
	}

	name := booking.CompanyName
	if name == "" {
		name = booking.ContactName
	}
	stage := model.StageLead
	if booking.Status == model.BookingDelivered {
		stage = model.StageSampleSent
	}
	business := &model.Business{
		Name:            name,
		ContactName:     booking.ContactName,
		Email:           booking.Email,
		Phone:           booking.Phone,
		Address:         booking.Address,
		Stage:           stage,
		Source:          model.SourceSampleBooking,
		Tags:            []string{},
		Notes:           booking.Notes,
		SampleBookingID: &booking.ID,
	}
	business.Audit(actor.AuditID())

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.businessRepo.Create(tx, business); err != nil {
			return err
		}
		activity := &model.BusinessActivity{
			BusinessID: business.ID,
			Type:       model.ActivityNote,
			Content:    fmt.Sprintf("Converted from sample booking requested for %s", booking.RequestedDate.Format("2006-01-02")),
		}
		activity.Audit(actor.AuditID())
		return s.businessRepo.AddActivity(tx, activity)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a converter that held no lock
		existing, findErr := s.businessRepo.FindBySampleBookingID(ctx, id)
		if findErr != nil {
			return nil, false, storageErr(findErr, "business")
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storageErr(err, "business")
	}

	s.logger.Info("Sample booking converted",
		zap.String("booking_id", id.String()),
		zap.String("business_id", business.ID.String()))
	s.wsHub.Publish(ws.Event{
		Type:    "crm",
		Action:  "business_created",
		Data:    business,
		User:    actor.wsActor(),
		Message: fmt.Sprintf("%s converted the sample booking from %s", actor.displayName(), name),
	})
	return business, true, nil
}
