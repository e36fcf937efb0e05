package handler

import (
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

// CreateMovement posts one ledger entry
// POST /api/v1/admin/stock-movements
func (h *StockHandler) CreateMovement(c *fiber.Ctx) error {
	var req service.RecordMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	movement, err := h.service.RecordMovement(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, movement)
}

// GetMovements lists ledger entries, optionally for one product
// GET /api/v1/admin/stock-movements?product_id=
func (h *StockHandler) GetMovements(c *fiber.Ctx) error {
	var productID *uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid product ID")
		}
		productID = &id
	}

	movements, err := h.service.ListMovements(c.UserContext(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, movements)
}

func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid movement ID")
	}

	movement, err := h.service.GetMovement(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, movement)
}

// CheckConsistency lists products whose stock disagrees with the ledger
// GET /api/v1/admin/stock-movements/consistency
func (h *StockHandler) CheckConsistency(c *fiber.Ctx) error {
	drifts, err := h.service.CheckConsistency(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, drifts)
}
