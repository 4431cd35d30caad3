package httpapi

import (
	"errors"
	"net/http"
	"time"

	appCatalog "shop-backoffice/internal/application/catalog"
	catalogDomain "shop-backoffice/internal/domain/catalog"

	"github.com/gin-gonic/gin"
)

type productRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	IsFeatured bool   `json:"is_featured"`
}

func productJSON(p catalogDomain.Product) gin.H {
	return gin.H{
		"id":          p.ID,
		"category_id": p.CategoryID,
		"name":        p.Name,
		"price_cents": p.PriceCents,
		"stock":       p.Stock,
		"is_featured": p.IsFeatured,
		"is_archived": p.IsArchived,
		"created_at":  p.CreatedAt.Format(time.RFC3339),
		"updated_at":  p.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListProducts(c *gin.Context) {
	filter := appCatalog.ProductFilter{
		CategoryID:      c.Query("category_id"),
		FeaturedOnly:    c.Query("featured") == "true",
		IncludeArchived: c.Query("include_archived") == "true",
		Search:          c.Query("q"),
	}
	products, err := s.catalogUC.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list products failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": out})
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var body productRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	p, err := s.catalogUC.CreateProduct(c.Request.Context(), appCatalog.ProductInput{
		CategoryID: body.CategoryID,
		Name:       body.Name,
		PriceCents: body.PriceCents,
		Stock:      body.Stock,
		IsFeatured: body.IsFeatured,
	})
	if err != nil {
		if errors.Is(err, appCatalog.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "category not found", "error_code": errCodeNotFound})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": productJSON(p)})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	p, err := s.catalogUC.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "product not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": productJSON(p)})
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	var body productRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	p, err := s.catalogUC.UpdateProduct(c.Request.Context(), c.Param("id"), appCatalog.ProductInput{
		CategoryID: body.CategoryID,
		Name:       body.Name,
		PriceCents: body.PriceCents,
		Stock:      body.Stock,
		IsFeatured: body.IsFeatured,
	})
	if err != nil {
		if errors.Is(err, appCatalog.ErrProductNotFound) || errors.Is(err, appCatalog.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error(), "error_code": errCodeNotFound})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": productJSON(p)})
}

func (s *Server) handleArchiveProduct(c *gin.Context) {
	if err := s.catalogUC.ArchiveProduct(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "product not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	if err := s.catalogUC.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "product not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.catalogUC.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list categories failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(categories))
	for _, cat := range categories {
		out = append(out, gin.H{"id": cat.ID, "name": cat.Name, "created_at": cat.CreatedAt.Format(time.RFC3339)})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": out})
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	cat, err := s.catalogUC.CreateCategory(c.Request.Context(), body.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "category": gin.H{"id": cat.ID, "name": cat.Name}})
}

func (s *Server) handleRenameCategory(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	cat, err := s.catalogUC.RenameCategory(c.Request.Context(), c.Param("id"), body.Name)
	if err != nil {
		if errors.Is(err, appCatalog.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "category not found", "error_code": errCodeNotFound})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "category": gin.H{"id": cat.ID, "name": cat.Name}})
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	err := s.catalogUC.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appCatalog.ErrCategoryInUse) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "category still has products", "error_code": errCodeConflict})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "category not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleStorefrontProducts 商店前台商品列表，只露出未封存的商品。
func (s *Server) handleStorefrontProducts(c *gin.Context) {
	filter := appCatalog.ProductFilter{
		CategoryID:   c.Query("category_id"),
		FeaturedOnly: c.Query("featured") == "true",
		Search:       c.Query("q"),
	}
	products, err := s.catalogUC.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list products failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, gin.H{
			"id":          p.ID,
			"category_id": p.CategoryID,
			"name":        p.Name,
			"price_cents": p.PriceCents,
			"in_stock":    p.Stock > 0,
			"is_featured": p.IsFeatured,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": out})
}
