package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	appCatalog "shop-backoffice/internal/application/catalog"
	appOrder "shop-backoffice/internal/application/order"
	catalogDomain "shop-backoffice/internal/domain/catalog"
)

// CatalogRepo 記憶體版商品與分類儲存。
type CatalogRepo struct {
	mu         sync.Mutex
	products   map[string]catalogDomain.Product
	categories map[string]catalogDomain.Category
}

// NewCatalogRepo 建立記憶體實例。
func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{
		products:   make(map[string]catalogDomain.Product),
		categories: make(map[string]catalogDomain.Category),
	}
}

func (r *CatalogRepo) CreateProduct(_ context.Context, p catalogDomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *CatalogRepo) UpdateProduct(_ context.Context, p catalogDomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return fmt.Errorf("product %s not found", p.ID)
	}
	r.products[p.ID] = p
	return nil
}

func (r *CatalogRepo) GetProduct(_ context.Context, id string) (catalogDomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return catalogDomain.Product{}, fmt.Errorf("product %s not found", id)
	}
	return p, nil
}

func (r *CatalogRepo) ListProducts(_ context.Context, filter appCatalog.ProductFilter) ([]catalogDomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalogDomain.Product, 0, len(r.products))
	needle := strings.ToLower(filter.Search)
	for _, p := range r.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.FeaturedOnly && !p.IsFeatured {
			continue
		}
		if !filter.IncludeArchived && p.IsArchived {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s not found", id)
	}
	delete(r.products, id)
	return nil
}

func (r *CatalogRepo) CountProductsInCategory(_ context.Context, categoryID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// ReserveStock 扣庫存並回傳單價，供下單使用。
func (r *CatalogRepo) ReserveStock(_ context.Context, productID string, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok || p.IsArchived {
		return 0, appOrder.ErrUnknownProduct
	}
	if p.Stock < qty {
		return 0, appOrder.ErrOutOfStock
	}
	p.Stock -= qty
	r.products[productID] = p
	return p.PriceCents, nil
}

// ReleaseStock 取消訂單時歸還庫存。
func (r *CatalogRepo) ReleaseStock(_ context.Context, productID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return appOrder.ErrUnknownProduct
	}
	p.Stock += qty
	r.products[productID] = p
	return nil
}

func (r *CatalogRepo) CreateCategory(_ context.Context, c catalogDomain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
	return nil
}

func (r *CatalogRepo) UpdateCategory(_ context.Context, c catalogDomain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return fmt.Errorf("category %s not found", c.ID)
	}
	r.categories[c.ID] = c
	return nil
}

func (r *CatalogRepo) GetCategory(_ context.Context, id string) (catalogDomain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return catalogDomain.Category{}, fmt.Errorf("category %s not found", id)
	}
	return c, nil
}

func (r *CatalogRepo) ListCategories(_ context.Context) ([]catalogDomain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalogDomain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepo) DeleteCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return fmt.Errorf("category %s not found", id)
	}
	delete(r.categories, id)
	return nil
}
