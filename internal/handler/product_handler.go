package handler

import (
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// ListStorefront returns the public catalog
// GET /api/v1/:locale/products
func (h *ProductHandler) ListStorefront(c *fiber.Ctx) error {
	products, err := h.service.ListStorefront(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, products)
}

// GET /api/v1/:locale/products/:slug
func (h *ProductHandler) GetStorefrontProduct(c *fiber.Ctx) error {
	product, err := h.service.GetStorefrontBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.CreateProduct(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

// SetSoldOut toggles the manual sold-out flag
// PUT /api/v1/admin/products/:id/sold-out
func (h *ProductHandler) SetSoldOut(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req struct {
		SoldOut bool `json:"sold_out"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.SetSoldOut(c.UserContext(), id, req.SoldOut, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

// RequestImageUpload hands out a presigned PUT URL for a new image
// POST /api/v1/admin/products/:id/images/upload-url
func (h *ProductHandler) RequestImageUpload(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req struct {
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	upload, err := h.service.RequestImageUpload(c.UserContext(), id, req.ContentType)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, upload)
}

// AttachImage appends an uploaded key to the gallery
// POST /api/v1/admin/products/:id/images
func (h *ProductHandler) AttachImage(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.AttachImage(c.UserContext(), id, req.Key, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

// PUT /api/v1/admin/products/:id/images
func (h *ProductHandler) ReorderImages(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req struct {
		Keys []string `json:"keys"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.ReorderImages(c.UserContext(), id, req.Keys, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

// DELETE /api/v1/admin/products/:id/images?key=
func (h *ProductHandler) RemoveImage(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}
	key := c.Query("key")
	if key == "" {
		return badRequest(c, "key is required")
	}

	product, err := h.service.RemoveImage(c.UserContext(), id, key, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, product)
}

// Projection runs the revenue calculator for one product
// GET /api/v1/admin/products/:id/projection?monthly_units=&months=&scenario=
func (h *ProductHandler) Projection(c *fiber.Ctx) error {
	id, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid product ID")
	}

	var req service.ProjectionRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "Invalid query")
	}

	projection, err := h.service.Projection(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, projection)
}
