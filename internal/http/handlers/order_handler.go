package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "botshop/internal/log"
	"botshop/internal/repos"
	"botshop/internal/validate"
)

// OrderHandler is the admin's read/status surface over orders placed by the
// storefront bot.
type OrderHandler struct {
	Orders *repos.OrderRepo
}

// GET /admin/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	orders, err := h.Orders.ListLatest(limit)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// GET /admin/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	o, items, err := h.Orders.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(fiber.Map{"order": o, "items": items})
}

// POST /admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	status := c.FormValue("status")
	if !repos.ValidOrderStatus(status) {
		return badRequest(c, "status")
	}
	if err := h.Orders.UpdateStatus(id, status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"ok": true})
}
