package handler

import (
	"fmt"
	"time"

	"go-roastery-api/internal/middleware"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

func orderResponses(orders []model.Order) []model.OrderResponse {
	out := make([]model.OrderResponse, len(orders))
	for i := range orders {
		out[i] = orders[i].ToResponse()
	}
	return out
}

// CreateOrder places an order for the signed-in shopper
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.Locale == "" {
		req.Locale = middleware.LocaleFrom(c)
	}

	order, err := h.service.CreateOrder(c.UserContext(), actorFrom(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, order.ToResponse())
}

// GET /api/v1/orders
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMyOrders(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, orderResponses(orders))
}

// GET /api/v1/orders/:id
func (h *OrderHandler) GetMyOrder(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.service.GetMyOrder(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelMyOrder(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.service.CancelMyOrder(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// GetOrders lists orders for staff
// GET /api/v1/admin/orders?status=&user_id=&from=&to= (dates as YYYY-MM-DD)
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	orders, err := h.service.ListOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, orderResponses(orders))
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// PUT /api/v1/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.UpdateStatus(c.UserContext(), id, req.Status, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// SetTotalOverride sets, or with a null total clears, the manual total
// PUT /api/v1/admin/orders/:id/total
func (h *OrderHandler) SetTotalOverride(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	var req struct {
		Total *int64 `json:"total"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.SetTotalOverride(c.UserContext(), id, req.Total, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// PUT /api/v1/admin/orders/:id/notes
func (h *OrderHandler) UpdateNotes(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid order ID")
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.UpdateNotes(c.UserContext(), id, req.Notes, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, order.ToResponse())
}

// ExportOrders downloads the filtered orders as an xlsx workbook
// GET /api/v1/admin/orders/export
func (h *OrderHandler) ExportOrders(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	data, err := h.service.ExportOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment(fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102-150405")))
	return c.Send(data)
}

func parseOrderFilter(c *fiber.Ctx) (repository.OrderFilter, error) {
	var filter repository.OrderFilter

	if raw := c.Query("status"); raw != "" {
		status := model.OrderStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = &status
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid user_id")
		}
		filter.UserID = &id
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("to must be YYYY-MM-DD")
		}
		// inclusive of the whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}
	return filter, nil
}
