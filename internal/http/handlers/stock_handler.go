package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "botshop/internal/log"
	"botshop/internal/services"
	"botshop/internal/validate"
)

type StockHandler struct {
	Stock *services.StockService
}

// PUT /admin/products/:id/stock  {form: sellable_stock}
func (h *StockHandler) SetSellable(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	qty, ok := validate.Qty(c.FormValue("sellable_stock"))
	if !ok {
		return badRequest(c, "sellable_stock")
	}

	level, err := h.Stock.SetSellableStock(c.Context(), id, qty, actor(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.stock.set", map[string]any{"product_id": id, "sellable": qty})
	return c.JSON(level)
}

// POST /admin/products/:id/restock  {form: amount}
func (h *StockHandler) Restock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	amount, err := strconv.Atoi(c.FormValue("amount"))
	if err != nil {
		return badRequest(c, "amount")
	}

	level, err := h.Stock.RestockWarehouse(c.Context(), id, amount, actor(c))
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.stock.restock", map[string]any{"product_id": id, "amount": amount})
	return c.JSON(level)
}

// GET /admin/products/:id/adjustments
func (h *StockHandler) Adjustments(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	rows, err := h.Stock.Adjustments(c.Context(), id, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"adjustments": rows, "total": len(rows)})
}
