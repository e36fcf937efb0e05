package handler

import (
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CRMHandler struct {
	service service.CRMService
}

func NewCRMHandler(s service.CRMService) *CRMHandler {
	return &CRMHandler{service: s}
}

// GetBusinesses lists the pipeline
// GET /api/v1/admin/businesses?stage=&source=&tag=&q=
func (h *CRMHandler) GetBusinesses(c *fiber.Ctx) error {
	filter := repository.BusinessFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("q"),
	}
	if raw := c.Query("stage"); raw != "" {
		stage := model.PipelineStage(raw)
		if !stage.Valid() {
			return badRequest(c, "Invalid stage")
		}
		filter.Stage = &stage
	}
	if raw := c.Query("source"); raw != "" {
		source := model.BusinessSource(raw)
		filter.Source = &source
	}

	businesses, err := h.service.ListBusinesses(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, businesses)
}

func (h *CRMHandler) GetBusiness(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	business, err := h.service.GetBusiness(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, business)
}

func (h *CRMHandler) CreateBusiness(c *fiber.Ctx) error {
	var req service.BusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	business, err := h.service.CreateBusiness(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, business)
}

func (h *CRMHandler) UpdateBusiness(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	var req service.BusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	business, err := h.service.UpdateBusiness(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, business)
}

// UpdateStage moves a business to another pipeline stage
// PUT /api/v1/admin/businesses/:id/stage
func (h *CRMHandler) UpdateStage(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	var req struct {
		Stage model.PipelineStage `json:"stage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	business, err := h.service.UpdateStage(c.UserContext(), id, req.Stage, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, business)
}

// GET /api/v1/admin/businesses/:id/activities
func (h *CRMHandler) GetActivities(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	activities, err := h.service.ListActivities(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, activities)
}

// POST /api/v1/admin/businesses/:id/activities
func (h *CRMHandler) AddActivity(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	var req service.ActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	activity, err := h.service.AddActivity(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, activity)
}

// GET /api/v1/admin/businesses/:id/agents
func (h *CRMHandler) GetBusinessAgents(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}

	agents, err := h.service.ListAgentsForBusiness(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, agents)
}

// PUT /api/v1/admin/businesses/:id/agents/:agentId
func (h *CRMHandler) AssignAgent(c *fiber.Ctx) error {
	businessID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}
	agentID, valid := paramUUID(c, "agentId")
	if !valid {
		return badRequest(c, "Invalid agent ID")
	}

	agents, err := h.service.AssignAgent(c.UserContext(), businessID, agentID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, agents)
}

// DELETE /api/v1/admin/businesses/:id/agents/:agentId
func (h *CRMHandler) UnassignAgent(c *fiber.Ctx) error {
	businessID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid business ID")
	}
	agentID, valid := paramUUID(c, "agentId")
	if !valid {
		return badRequest(c, "Invalid agent ID")
	}

	agents, err := h.service.UnassignAgent(c.UserContext(), businessID, agentID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, agents)
}

// GetAgents lists sales agents; ?active=true hides deactivated ones
// GET /api/v1/admin/agents
func (h *CRMHandler) GetAgents(c *fiber.Ctx) error {
	agents, err := h.service.ListAgents(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, agents)
}

func (h *CRMHandler) CreateAgent(c *fiber.Ctx) error {
	var req service.AgentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	agent, err := h.service.CreateAgent(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, agent)
}

func (h *CRMHandler) UpdateAgent(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid agent ID")
	}

	var req service.AgentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	agent, err := h.service.UpdateAgent(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, agent)
}
