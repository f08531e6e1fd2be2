package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "botshop/internal/log"
	"botshop/internal/repos"
	"botshop/internal/services"
	"botshop/internal/validate"
)

type ProductHandler struct {
	Products *services.ProductService
}

// POST /admin/products  (multipart: fields + "images" files)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "form")
	}

	name, ok := validate.Name(formValue(form, "name"))
	if !ok {
		return badRequest(c, "name")
	}
	price, ok := validate.Cents(formValue(form, "price_cents"))
	if !ok {
		return badRequest(c, "price_cents")
	}
	initialStock, ok := validate.Qty(formValue(form, "initial_stock"))
	if !ok {
		return badRequest(c, "initial_stock")
	}
	coverIndex, _ := strconv.Atoi(formValue(form, "cover_index"))

	images, err := readUploads(form.File["images"])
	if err != nil {
		return badRequest(c, "images")
	}

	p, err := h.Products.Create(c.Context(), services.CreateProductInput{
		Name:         name,
		Description:  formValue(form, "description"),
		PriceCents:   price,
		InitialStock: initialStock,
		CategoryID:   formValue(form, "category_id"),
		Images:       images,
		CoverIndex:   coverIndex,
		Actor:        actor(c),
	})
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GET /admin/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	filter := repos.ListFilter{CategoryID: c.Query("category")}
	if raw := c.Query("q"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			return badRequest(c, "q")
		}
		filter.Search = q
	}
	page := validate.Page(c.Query("page"))

	result, err := h.Products.List(c.Context(), filter, page, 0)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// GET /admin/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	p, imgs, err := h.Products.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"product": p, "images": imgs})
}

// PATCH /admin/products/:id  (multipart; absent fields stay unchanged)
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "form")
	}

	var in services.UpdateProductInput
	in.Actor = actor(c)

	if v, present := formLookup(form, "name"); present {
		name, ok := validate.Name(v)
		if !ok {
			return badRequest(c, "name")
		}
		in.Name = &name
	}
	if v, present := formLookup(form, "description"); present {
		in.Description = &v
	}
	if v, present := formLookup(form, "price_cents"); present {
		price, ok := validate.Cents(v)
		if !ok {
			return badRequest(c, "price_cents")
		}
		in.PriceCents = &price
	}
	if v, present := formLookup(form, "category_id"); present {
		in.CategoryID = &v
	}
	if v, present := formLookup(form, "sellable_stock"); present {
		qty, ok := validate.Qty(v)
		if !ok {
			return badRequest(c, "sellable_stock")
		}
		in.SellableStock = &qty
	}
	if v, present := formLookup(form, "removed_image_ids"); present && v != "" {
		in.ImageEdits.RemovedIDs = strings.Split(v, ",")
	}
	in.ImageEdits.DesiredCoverID = formValue(form, "cover_image_id")
	if in.ImageEdits.NewImages, err = readUploads(form.File["images"]); err != nil {
		return badRequest(c, "images")
	}

	p, err := h.Products.Update(c.Context(), id, in)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// DELETE /admin/products/:id
func (h *ProductHandler) Retire(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Products.Retire(c.Context(), id, actor(c)); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "admin.products.retire", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"ok": true})
}

// GET /admin/products/name-check?name=...&excluding=...
func (h *ProductHandler) NameCheck(c *fiber.Ctx) error {
	available, err := h.Products.CheckNameAvailable(c.Context(), c.Query("name"), c.Query("excluding"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// ---------- multipart helpers ----------

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func formLookup(form *multipart.Form, key string) (string, bool) {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

func readUploads(headers []*multipart.FileHeader) ([]services.ImageUpload, error) {
	var out []services.ImageUpload
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, services.ImageUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}
