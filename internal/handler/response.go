package handler

import (
	"errors"
	"strings"

	"go-roastery-api/internal/logger"
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, msg)
}

var errorStatus = []struct {
	kind   error
	status int
}{
	{service.ErrNotAuthenticated, fiber.StatusUnauthorized},
	{service.ErrForbidden, fiber.StatusForbidden},
	{service.ErrNotFound, fiber.StatusNotFound},
	{service.ErrValidation, fiber.StatusBadRequest},
	{service.ErrConflict, fiber.StatusConflict},
}

// respondError maps a service error onto a status code. Unexpected errors
// are logged and answered with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			return fail(c, e.status, err.Error())
		}
	}

	logger.FromContext(c.UserContext(), zap.L()).Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err))
	msg := service.ErrUnexpected.Error()
	if errors.Is(err, service.ErrStorageDisabled) {
		msg = strings.TrimPrefix(err.Error(), msg+": ")
	}
	return fail(c, fiber.StatusInternalServerError, msg)
}

// ErrorHandler is the fiber fallback for errors returned outside the handlers
// above, such as unknown routes or body limit violations
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	return respondError(c, err)
}

// actorFrom reads the caller set by middleware.RequireAuth; anonymous when absent
func actorFrom(c *fiber.Ctx) service.Actor {
	var actor service.Actor
	if raw, ok := c.Locals("user_id").(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			actor.ID = id
		}
	}
	actor.Email, _ = c.Locals("user_email").(string)
	actor.Name, _ = c.Locals("user_name").(string)
	return actor
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
