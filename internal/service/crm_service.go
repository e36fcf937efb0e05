package service

import (
	"context"
	"fmt"
	"strings"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CRMService interface {
	CreateBusiness(ctx context.Context, req *BusinessRequest, actor Actor) (*model.Business, error)
	UpdateBusiness(ctx context.Context, id uuid.UUID, req *BusinessRequest, actor Actor) (*model.Business, error)
	GetBusiness(ctx context.Context, id uuid.UUID) (*model.Business, error)
	ListBusinesses(ctx context.Context, filter repository.BusinessFilter) ([]model.Business, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage model.PipelineStage, actor Actor) (*model.Business, error)

	AddActivity(ctx context.Context, businessID uuid.UUID, req *ActivityRequest, actor Actor) (*model.BusinessActivity, error)
	ListActivities(ctx context.Context, businessID uuid.UUID) ([]model.BusinessActivity, error)

	CreateAgent(ctx context.Context, req *AgentRequest, actor Actor) (*model.Agent, error)
	UpdateAgent(ctx context.Context, id uuid.UUID, req *AgentRequest, actor Actor) (*model.Agent, error)
	ListAgents(ctx context.Context, activeOnly bool) ([]model.Agent, error)
	AssignAgent(ctx context.Context, businessID, agentID uuid.UUID) ([]model.Agent, error)
	UnassignAgent(ctx context.Context, businessID, agentID uuid.UUID) ([]model.Agent, error)
	ListAgentsForBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Agent, error)
}

type BusinessRequest struct {
	Name        string               `json:"name" validate:"required,max=255"`
	ContactName string               `json:"contact_name" validate:"max=255"`
	Email       string               `json:"email" validate:"omitempty,email"`
	Phone       string               `json:"phone" validate:"max=30"`
	Address     string               `json:"address"`
	Stage       model.PipelineStage  `json:"stage"`
	Source      model.BusinessSource `json:"source" validate:"omitempty,oneof=manual sample_booking signup referral"`
	Tags        []string             `json:"tags" validate:"dive,required,max=50"`
	Notes       string               `json:"notes"`
}

type ActivityRequest struct {
	Type    model.ActivityType `json:"type" validate:"required,oneof=note call email meeting"`
	Content string             `json:"content" validate:"required"`
}

type AgentRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=30"`
	IsActive *bool  `json:"is_active"`
}

type crmService struct {
	businessRepo repository.BusinessRepository
	agentRepo    repository.AgentRepository
	db           *gorm.DB
	wsHub        *ws.Hub
	logger       *zap.Logger
}

func NewCRMService(
	businessRepo repository.BusinessRepository,
	agentRepo repository.AgentRepository,
	db *gorm.DB,
	hub *ws.Hub,
	logger *zap.Logger,
) CRMService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &crmService{
		businessRepo: businessRepo,
		agentRepo:    agentRepo,
		db:           db,
		wsHub:        hub,
		logger:       logger.Named("crm"),
	}
}

// normalizeTags trims, drops empties and de-duplicates while keeping order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *crmService) CreateBusiness(ctx context.Context, req *BusinessRequest, actor Actor) (*model.Business, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	stage := req.Stage
	if stage == "" {
		stage = model.StageLead
	}
	if !stage.Valid() {
		return nil, validationf("unknown pipeline stage %q", stage)
	}
	source := req.Source
	if source == "" {
		source = model.SourceManual
	}

	business := &model.Business{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Stage:       stage,
		Source:      source,
		Tags:        normalizeTags(req.Tags),
		Notes:       req.Notes,
	}
	business.Audit(actor.AuditID())

	if err := s.businessRepo.Create(s.db.WithContext(ctx), business); err != nil {
		return nil, storageErr(err, "business")
	}
	return business, nil
}

// UpdateBusiness edits contact data only; the stage has its own operation
func (s *crmService) UpdateBusiness(ctx context.Context, id uuid.UUID, req *BusinessRequest, actor Actor) (*model.Business, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}

	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "business")
	}
	business.Name = req.Name
	business.ContactName = req.ContactName
	business.Email = req.Email
	business.Phone = req.Phone
	business.Address = req.Address
	if req.Source != "" {
		business.Source = req.Source
	}
	business.Tags = normalizeTags(req.Tags)
	business.Notes = req.Notes
	business.UpdatedBy = actor.AuditID()

	if err := s.businessRepo.Update(ctx, business); err != nil {
		return nil, storageErr(err, "business")
	}
	return business, nil
}

func (s *crmService) GetBusiness(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "business")
	}
	return business, nil
}

func (s *crmService) ListBusinesses(ctx context.Context, filter repository.BusinessFilter) ([]model.Business, error) {
	if filter.Stage != nil && !filter.Stage.Valid() {
		return nil, validationf("unknown pipeline stage %q", *filter.Stage)
	}
	businesses, err := s.businessRepo.FindAll(ctx, filter)
	return businesses, storageErr(err, "businesses")
}

// UpdateStage allows any stage to any stage. A real change appends a
// status_change activity in the same transaction; a no-op change writes nothing.
func (s *crmService) UpdateStage(ctx context.Context, id uuid.UUID, stage model.PipelineStage, actor Actor) (*model.Business, error) {
	if !stage.Valid() {
		return nil, validationf("unknown pipeline stage %q", stage)
	}

	var from model.PipelineStage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		business, err := s.businessRepo.LockByID(tx, id)
		if err != nil {
			return storageErr(err, "business")
		}
		from = business.Stage
		if from == stage {
			return nil
		}

		if err := s.businessRepo.UpdateStage(tx, id, stage, actor.AuditID()); err != nil {
			return storageErr(err, "business stage")
		}
		activity := &model.BusinessActivity{
			BusinessID: id,
			Type:       model.ActivityStatusChange,
			Content:    fmt.Sprintf("Stage changed from %s to %s", from, stage),
			FromStage:  string(from),
			ToStage:    string(stage),
		}
		activity.Audit(actor.AuditID())
		return storageErr(s.businessRepo.AddActivity(tx, activity), "activity")
	})
	if err != nil {
		return nil, err
	}

	business, err := s.businessRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "business")
	}
	if from != stage {
		s.logger.Info("Pipeline stage changed",
			zap.String("business_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(stage)))
		s.wsHub.Publish(ws.Event{
			Type:    "crm",
			Action:  "stage_changed",
			Data:    map[string]interface{}{"business_id": id, "name": business.Name, "from": from, "to": stage},
			User:    actor.wsActor(),
			Message: fmt.Sprintf("%s moved '%s' to %s", actor.displayName(), business.Name, stage),
		})
	}
	return business, nil
}

// AddActivity appends to the log. status_change entries are written by UpdateStage only.
func (s *crmService) AddActivity(ctx context.Context, businessID uuid.UUID, req *ActivityRequest, actor Actor) (*model.BusinessActivity, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, storageErr(err, "business")
	}

	activity := &model.BusinessActivity{
		BusinessID: businessID,
		Type:       req.Type,
		Content:    strings.TrimSpace(req.Content),
	}
	activity.Audit(actor.AuditID())
	if err := s.businessRepo.AddActivity(s.db.WithContext(ctx), activity); err != nil {
		return nil, storageErr(err, "activity")
	}
	return activity, nil
}

func (s *crmService) ListActivities(ctx context.Context, businessID uuid.UUID) ([]model.BusinessActivity, error) {
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, storageErr(err, "business")
	}
	activities, err := s.businessRepo.FindActivities(ctx, businessID)
	return activities, storageErr(err, "activities")
}

func (s *crmService) CreateAgent(ctx context.Context, req *AgentRequest, actor Actor) (*model.Agent, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	agent := &model.Agent{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Phone:    req.Phone,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	agent.Audit(actor.AuditID())
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, storageErr(err, "agent")
	}
	return agent, nil
}

func (s *crmService) UpdateAgent(ctx context.Context, id uuid.UUID, req *AgentRequest, actor Actor) (*model.Agent, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, validationf("%s", msg)
	}
	agent, err := s.agentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "agent")
	}
	agent.Name = req.Name
	agent.Email = strings.ToLower(req.Email)
	agent.Phone = req.Phone
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}
	agent.UpdatedBy = actor.AuditID()
	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, storageErr(err, "agent")
	}
	return agent, nil
}

func (s *crmService) ListAgents(ctx context.Context, activeOnly bool) ([]model.Agent, error) {
	agents, err := s.agentRepo.FindAll(ctx, activeOnly)
	return agents, storageErr(err, "agents")
}

// AssignAgent is idempotent; assigning twice keeps a single link
func (s *crmService) AssignAgent(ctx context.Context, businessID, agentID uuid.UUID) ([]model.Agent, error) {
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, storageErr(err, "business")
	}
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, storageErr(err, "agent")
	}
	if !agent.IsActive {
		return nil, validationf("agent %s is inactive", agent.Name)
	}
	if err := s.businessRepo.AssignAgent(ctx, businessID, agent); err != nil {
		return nil, storageErr(err, "agent assignment")
	}
	return s.ListAgentsForBusiness(ctx, businessID)
}

func (s *crmService) UnassignAgent(ctx context.Context, businessID, agentID uuid.UUID) ([]model.Agent, error) {
	agent, err := s.agentRepo.FindByID(ctx, agentID)
	if err != nil {
		return nil, storageErr(err, "agent")
	}
	if err := s.businessRepo.UnassignAgent(ctx, businessID, agent); err != nil {
		return nil, storageErr(err, "agent assignment")
	}
	return s.ListAgentsForBusiness(ctx, businessID)
}

func (s *crmService) ListAgentsForBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Agent, error) {
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, storageErr(err, "business")
	}
	agents, err := s.businessRepo.FindAgents(ctx, businessID)
	return agents, storageErr(err, "agents")
}
