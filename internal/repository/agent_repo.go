package repository

import (
	"context"

	"go-roastery-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) error
	Update(ctx context.Context, agent *model.Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	FindAll(ctx context.Context, activeOnly bool) ([]model.Agent, error)
}

type agentRepo struct {
	db *gorm.DB
}

func NewAgentRepo(db *gorm.DB) AgentRepository {
	return &agentRepo{db}
}

func (r *agentRepo) Create(ctx context.Context, agent *model.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *agentRepo) Update(ctx context.Context, agent *model.Agent) error {
	return r.db.WithContext(ctx).Model(agent).
		Select("name", "email", "phone", "is_active", "updated_by").
		Updates(agent).Error
}

func (r *agentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := r.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepo) FindAll(ctx context.Context, activeOnly bool) ([]model.Agent, error) {
	var agents []model.Agent
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&agents).Error
	return agents, err
}
