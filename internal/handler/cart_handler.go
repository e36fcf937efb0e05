package handler

import (
	"go-roastery-api/internal/cart"
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor.IsAnonymous() {
		return respondError(c, service.ErrNotAuthenticated)
	}

	state, err := h.service.GetCart(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, state)
}

// ReplaceCart overwrites the server copy with the shopper's cart
// PUT /api/v1/cart
func (h *CartHandler) ReplaceCart(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor.IsAnonymous() {
		return respondError(c, service.ErrNotAuthenticated)
	}

	var state cart.State
	if err := c.BodyParser(&state); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	saved, err := h.service.ReplaceCart(c.UserContext(), actor.ID, state)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, saved)
}

// SyncCart reconciles the local cart after sign-in and returns the winner
// POST /api/v1/cart/sync
func (h *CartHandler) SyncCart(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor.IsAnonymous() {
		return respondError(c, service.ErrNotAuthenticated)
	}

	var local cart.State
	if err := c.BodyParser(&local); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	winner, err := h.service.SyncCart(c.UserContext(), actor.ID, local)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, winner)
}
