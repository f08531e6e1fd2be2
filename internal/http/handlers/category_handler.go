package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "botshop/internal/log"
	"botshop/internal/services"
	"botshop/internal/validate"
)

type CategoryHandler struct {
	Categories *services.CategoryService
}

// GET /admin/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Categories.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

// POST /admin/categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return badRequest(c, "name")
	}
	cat, err := h.Categories.Create(c.Context(), name, c.FormValue("description"), actor(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": name})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// PATCH /admin/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return badRequest(c, "name")
	}
	cat, err := h.Categories.Update(c.Context(), id, name, c.FormValue("description"), actor(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return c.JSON(cat)
}

// DELETE /admin/categories/:id
func (h *CategoryHandler) Deactivate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Categories.Deactivate(c.Context(), id, actor(c)); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.categories.deactivate", map[string]any{"category_id": id})
	return c.JSON(fiber.Map{"ok": true})
}
