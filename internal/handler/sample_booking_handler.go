package handler

import (
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SampleBookingHandler struct {
	service service.SampleBookingService
}

func NewSampleBookingHandler(s service.SampleBookingService) *SampleBookingHandler {
	return &SampleBookingHandler{service: s}
}

// CreateSampleBooking is the public sample request form
// POST /api/v1/sample-bookings
func (h *SampleBookingHandler) CreateSampleBooking(c *fiber.Ctx) error {
	var req service.SampleBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	booking, err := h.service.CreateSampleBooking(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, booking)
}

// GET /api/v1/admin/sample-bookings?status=
func (h *SampleBookingHandler) GetSampleBookings(c *fiber.Ctx) error {
	var status *model.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := model.BookingStatus(raw)
		if !s.Valid() {
			return badRequest(c, "Invalid status")
		}
		status = &s
	}

	bookings, err := h.service.ListSampleBookings(c.UserContext(), status)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, bookings)
}

func (h *SampleBookingHandler) GetSampleBooking(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid booking ID")
	}

	booking, err := h.service.GetSampleBooking(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, booking)
}

// PUT /api/v1/admin/sample-bookings/:id/status
func (h *SampleBookingHandler) UpdateStatus(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid booking ID")
	}

	var req struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	booking, err := h.service.UpdateSampleBookingStatus(c.UserContext(), id, req.Status, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, booking)
}

// Convert turns a booking into a CRM business. Repeated calls return the
// same business with 200 instead of 201.
// POST /api/v1/admin/sample-bookings/:id/convert
func (h *SampleBookingHandler) Convert(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid booking ID")
	}

	business, isNew, err := h.service.ConvertSampleBooking(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	if isNew {
		return created(c, business)
	}
	return ok(c, business)
}
