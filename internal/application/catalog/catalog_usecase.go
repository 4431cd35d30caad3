package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogDomain "shop-backoffice/internal/domain/catalog"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category still has products")
)

// ProductRepository 商品儲存介面。
type ProductRepository interface {
	CreateProduct(ctx context.Context, p catalogDomain.Product) error
	UpdateProduct(ctx context.Context, p catalogDomain.Product) error
	GetProduct(ctx context.Context, id string) (catalogDomain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]catalogDomain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CountProductsInCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryRepository 分類儲存介面。
type CategoryRepository interface {
	CreateCategory(ctx context.Context, c catalogDomain.Category) error
	UpdateCategory(ctx context.Context, c catalogDomain.Category) error
	GetCategory(ctx context.Context, id string) (catalogDomain.Category, error)
	ListCategories(ctx context.Context) ([]catalogDomain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ProductFilter 列表查詢條件。零值表示不過濾。
type ProductFilter struct {
	CategoryID      string
	FeaturedOnly    bool
	IncludeArchived bool
	Search          string
}

// UseCase 商品與分類管理。
type UseCase struct {
	products   ProductRepository
	categories CategoryRepository
	now        func() time.Time
}

func NewUseCase(products ProductRepository, categories CategoryRepository) *UseCase {
	return &UseCase{products: products, categories: categories, now: time.Now}
}

type ProductInput struct {
	CategoryID string
	Name       string
	PriceCents int64
	Stock      int
	IsFeatured bool
}

func (uc *UseCase) CreateProduct(ctx context.Context, input ProductInput) (catalogDomain.Product, error) {
	if _, err := uc.categories.GetCategory(ctx, input.CategoryID); err != nil {
		return catalogDomain.Product{}, ErrCategoryNotFound
	}
	now := uc.now()
	p := catalogDomain.Product{
		ID:         uuid.NewString(),
		CategoryID: input.CategoryID,
		Name:       strings.TrimSpace(input.Name),
		PriceCents: input.PriceCents,
		Stock:      input.Stock,
		IsFeatured: input.IsFeatured,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return catalogDomain.Product{}, err
	}
	if err := uc.products.CreateProduct(ctx, p); err != nil {
		return catalogDomain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (uc *UseCase) UpdateProduct(ctx context.Context, id string, input ProductInput) (catalogDomain.Product, error) {
	p, err := uc.products.GetProduct(ctx, id)
	if err != nil {
		return catalogDomain.Product{}, ErrProductNotFound
	}
	if input.CategoryID != "" && input.CategoryID != p.CategoryID {
		if _, err := uc.categories.GetCategory(ctx, input.CategoryID); err != nil {
			return catalogDomain.Product{}, ErrCategoryNotFound
		}
		p.CategoryID = input.CategoryID
	}
	if input.Name != "" {
		p.Name = strings.TrimSpace(input.Name)
	}
	p.PriceCents = input.PriceCents
	p.Stock = input.Stock
	p.IsFeatured = input.IsFeatured
	p.UpdatedAt = uc.now()
	if err := p.Validate(); err != nil {
		return catalogDomain.Product{}, err
	}
	if err := uc.products.UpdateProduct(ctx, p); err != nil {
		return catalogDomain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (uc *UseCase) GetProduct(ctx context.Context, id string) (catalogDomain.Product, error) {
	p, err := uc.products.GetProduct(ctx, id)
	if err != nil {
		return catalogDomain.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (uc *UseCase) ListProducts(ctx context.Context, filter ProductFilter) ([]catalogDomain.Product, error) {
	return uc.products.ListProducts(ctx, filter)
}

// ArchiveProduct 下架商品。已有訂單引用的商品不實際刪除，改為封存。
func (uc *UseCase) ArchiveProduct(ctx context.Context, id string) error {
	p, err := uc.products.GetProduct(ctx, id)
	if err != nil {
		return ErrProductNotFound
	}
	p.IsArchived = true
	p.UpdatedAt = uc.now()
	return uc.products.UpdateProduct(ctx, p)
}

func (uc *UseCase) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uc.products.GetProduct(ctx, id); err != nil {
		return ErrProductNotFound
	}
	return uc.products.DeleteProduct(ctx, id)
}

func (uc *UseCase) CreateCategory(ctx context.Context, name string) (catalogDomain.Category, error) {
	c := catalogDomain.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedAt: uc.now(),
	}
	if err := c.Validate(); err != nil {
		return catalogDomain.Category{}, err
	}
	if err := uc.categories.CreateCategory(ctx, c); err != nil {
		return catalogDomain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (uc *UseCase) RenameCategory(ctx context.Context, id, name string) (catalogDomain.Category, error) {
	c, err := uc.categories.GetCategory(ctx, id)
	if err != nil {
		return catalogDomain.Category{}, ErrCategoryNotFound
	}
	c.Name = strings.TrimSpace(name)
	if err := c.Validate(); err != nil {
		return catalogDomain.Category{}, err
	}
	if err := uc.categories.UpdateCategory(ctx, c); err != nil {
		return catalogDomain.Category{}, fmt.Errorf("rename category: %w", err)
	}
	return c, nil
}

func (uc *UseCase) ListCategories(ctx context.Context) ([]catalogDomain.Category, error) {
	return uc.categories.ListCategories(ctx)
}

// DeleteCategory 僅允許刪除沒有商品的分類。
func (uc *UseCase) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uc.categories.GetCategory(ctx, id); err != nil {
		return ErrCategoryNotFound
	}
	n, err := uc.products.CountProductsInCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return uc.categories.DeleteCategory(ctx, id)
}
