package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"botshop/internal/domain"
	applog "botshop/internal/log"
	"botshop/internal/repos"
	"botshop/internal/validate"
)

// DiscountHandler manages the checkout codes the storefront offers. Only the
// rows live here; validating and applying a code is the storefront's job.
type DiscountHandler struct {
	Discounts *repos.DiscountRepo
}

// GET /admin/discounts
func (h *DiscountHandler) List(c *fiber.Ctx) error {
	rows, err := h.Discounts.List(c.Context())
	if err != nil {
		applog.Error(c, "admin.discounts.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"discounts": rows})
}

// POST /admin/discounts
func (h *DiscountHandler) Create(c *fiber.Ctx) error {
	code, ok := validate.ID(c.FormValue("code"))
	if !ok {
		return badRequest(c, "code")
	}
	kind := c.FormValue("type")
	if !repos.ValidDiscountType(kind) {
		return badRequest(c, "type")
	}
	value, ok := validate.Cents(c.FormValue("value"))
	if !ok || value == 0 || (kind == "percentage" && value > 100) {
		return badRequest(c, "value")
	}
	minimum, ok := validate.Cents(c.FormValue("minimum_purchase_cents"))
	if c.FormValue("minimum_purchase_cents") != "" && !ok {
		return badRequest(c, "minimum_purchase_cents")
	}
	limit, err := strconv.Atoi(c.FormValue("usage_limit", "1"))
	if err != nil || limit < 1 {
		return badRequest(c, "usage_limit")
	}

	d, err := h.Discounts.Insert(c.Context(), domain.Discount{
		Code:                 code,
		Type:                 kind,
		Value:                value,
		MinimumPurchaseCents: minimum,
		UsageLimit:           limit,
		ValidUntil:           c.FormValue("valid_until"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "code already exists"})
		}
		applog.Error(c, "admin.discounts.create.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	applog.Audit(c, "admin.discounts.create", map[string]any{"discount_id": d.ID, "code": code})
	return c.Status(fiber.StatusCreated).JSON(d)
}

// POST /admin/discounts/:id/active  {form: active=true|false}
func (h *DiscountHandler) SetActive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	active, err := strconv.ParseBool(c.FormValue("active"))
	if err != nil {
		return badRequest(c, "active")
	}
	if err := h.Discounts.SetActive(c.Context(), id, active); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "discount not found"})
	}
	applog.Audit(c, "admin.discounts.active", map[string]any{"discount_id": id, "active": active})
	return c.JSON(fiber.Map{"ok": true})
}
