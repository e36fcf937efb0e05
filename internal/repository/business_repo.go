package repository

import (
	"context"
	"encoding/json"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessFilter struct {
	Stage  *model.PipelineStage
	Source *model.BusinessSource
	Tag    string
	Search string
}

type BusinessRepository interface {
	Create(tx *gorm.DB, business *model.Business) error
	Update(ctx context.Context, business *model.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
	FindAll(ctx context.Context, filter BusinessFilter) ([]model.Business, error)
	FindBySampleBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Business, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Business, error)
	UpdateStage(tx *gorm.DB, id uuid.UUID, stage model.PipelineStage, updatedBy string) error
	CountByStage(ctx context.Context) (map[model.PipelineStage]int64, error)

	AddActivity(tx *gorm.DB, activity *model.BusinessActivity) error
	FindActivities(ctx context.Context, businessID uuid.UUID) ([]model.BusinessActivity, error)

	AssignAgent(ctx context.Context, businessID uuid.UUID, agent *model.Agent) error
	UnassignAgent(ctx context.Context, businessID uuid.UUID, agent *model.Agent) error
	FindAgents(ctx context.Context, businessID uuid.UUID) ([]model.Agent, error)
}

type businessRepo struct {
	db *gorm.DB
}

func NewBusinessRepo(db *gorm.DB) BusinessRepository {
	return &businessRepo{db}
}

func (r *businessRepo) Create(tx *gorm.DB, business *model.Business) error {
	return tx.Omit(clause.Associations).Create(business).Error
}

// Update writes the editable contact fields; stage moves through UpdateStage
func (r *businessRepo) Update(ctx context.Context, business *model.Business) error {
	return r.db.WithContext(ctx).Model(business).
		Select("name", "contact_name", "email", "phone", "address", "source", "tags", "notes", "updated_by").
		Updates(business).Error
}

func (r *businessRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).Preload("Agents").First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepo) FindAll(ctx context.Context, filter BusinessFilter) ([]model.Business, error) {
	var businesses []model.Business
	q := r.db.WithContext(ctx).Preload("Agents").Order("created_at DESC")
	if filter.Stage != nil {
		q = q.Where("stage = ?", *filter.Stage)
	}
	if filter.Source != nil {
		q = q.Where("source = ?", *filter.Source)
	}
	if filter.Tag != "" {
		// tags is a JSON array column; match the encoded element
		encoded, _ := json.Marshal(filter.Tag)
		q = q.Where("tags LIKE ?", "%"+string(encoded)+"%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR contact_name LIKE ? OR email LIKE ?", like, like, like)
	}
	err := q.Find(&businesses).Error
	return businesses, err
}

func (r *businessRepo) FindBySampleBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Business, error) {
	var business model.Business
	if err := r.db.WithContext(ctx).First(&business, "sample_booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Business, error) {
	var business model.Business
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepo) UpdateStage(tx *gorm.DB, id uuid.UUID, stage model.PipelineStage, updatedBy string) error {
	return tx.Model(&model.Business{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"stage": stage, "updated_by": updatedBy}).Error
}

func (r *businessRepo) CountByStage(ctx context.Context) (map[model.PipelineStage]int64, error) {
	var rows []struct {
		Stage model.PipelineStage
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&model.Business{}).
		Select("stage, COUNT(*) AS total").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.PipelineStage]int64, len(model.PipelineStages))
	for _, st := range model.PipelineStages {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[row.Stage] = row.Total
	}
	return counts, nil
}

func (r *businessRepo) AddActivity(tx *gorm.DB, activity *model.BusinessActivity) error {
	return tx.Create(activity).Error
}

// FindActivities returns the log newest first
func (r *businessRepo) FindActivities(ctx context.Context, businessID uuid.UUID) ([]model.BusinessActivity, error) {
	var activities []model.BusinessActivity
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

func (r *businessRepo) AssignAgent(ctx context.Context, businessID uuid.UUID, agent *model.Agent) error {
	business := model.Business{}
	business.ID = businessID
	return r.db.WithContext(ctx).Model(&business).Association("Agents").Append(agent)
}

func (r *businessRepo) UnassignAgent(ctx context.Context, businessID uuid.UUID, agent *model.Agent) error {
	business := model.Business{}
	business.ID = businessID
	return r.db.WithContext(ctx).Model(&business).Association("Agents").Delete(agent)
}

func (r *businessRepo) FindAgents(ctx context.Context, businessID uuid.UUID) ([]model.Agent, error) {
	var agents []model.Agent
	business := model.Business{}
	business.ID = businessID
	err := r.db.WithContext(ctx).Model(&business).Order("name ASC").Association("Agents").Find(&agents)
	return agents, err
}
