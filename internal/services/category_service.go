package services

import (
	"context"
	"fmt"
	"strings"

	"botshop/internal/domain"
	applog "botshop/internal/log"
	"botshop/internal/repos"
)

type CategoryService struct {
	Categories *repos.CategoryRepo
}

func NewCategoryService(categories *repos.CategoryRepo) *CategoryService {
	return &CategoryService{Categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	out, err := s.Categories.ListActive(ctx)
	if err != nil {
		return nil, storageErr("category.list", err)
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, name, description, actor string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, validationErr("name", "is required")
	}
	taken, err := s.Categories.NameTaken(ctx, name, "")
	if err != nil {
		return domain.Category{}, storageErr("category.create.namecheck", err)
	}
	if taken {
		return domain.Category{}, fmt.Errorf("%w: %s", domain.ErrDuplicateCategoryName, name)
	}

	c, err := s.Categories.Insert(ctx, name, description)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("%w: %s", domain.ErrDuplicateCategoryName, name)
		}
		return domain.Category{}, storageErr("category.create", err)
	}
	applog.Op("category.created", map[string]any{"category_id": c.ID, "name": name, "actor": actor})
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id, name, description, actor string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, validationErr("name", "is required")
	}
	taken, err := s.Categories.NameTaken(ctx, name, id)
	if err != nil {
		return domain.Category{}, storageErr("category.update.namecheck", err)
	}
	if taken {
		return domain.Category{}, fmt.Errorf("%w: %s", domain.ErrDuplicateCategoryName, name)
	}

	if err := s.Categories.Update(ctx, id, name, description); err != nil {
		return domain.Category{}, storageErr("category.update", err)
	}
	applog.Op("category.updated", map[string]any{"category_id": id, "actor": actor})

	c, err := s.Categories.GetActive(ctx, id)
	if err != nil {
		return domain.Category{}, storageErr("category.update.read", err)
	}
	return c, nil
}

// Deactivate soft-deletes a category. It is refused while active products
// still reference the category, so nothing is orphaned silently.
func (s *CategoryService) Deactivate(ctx context.Context, id, actor string) error {
	n, err := s.Categories.ActiveProductCount(ctx, id)
	if err != nil {
		return storageErr("category.deactivate.count", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d active products", domain.ErrCategoryInUse, n)
	}
	if err := s.Categories.Deactivate(ctx, id); err != nil {
		return storageErr("category.deactivate", err)
	}
	applog.Op("category.deactivated", map[string]any{"category_id": id, "actor": actor})
	return nil
}
