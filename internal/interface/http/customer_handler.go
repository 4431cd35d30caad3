package httpapi

import (
	"errors"
	"net/http"
	"time"

	appCustomer "shop-backoffice/internal/application/customer"
	customerDomain "shop-backoffice/internal/domain/customer"

	"github.com/gin-gonic/gin"
)

func customerJSON(c customerDomain.Customer) gin.H {
	return gin.H{
		"id":            c.ID,
		"email":         c.Email,
		"name":          c.Name,
		"balance_cents": c.BalanceCents,
		"created_at":    c.CreatedAt.Format(time.RFC3339),
		"updated_at":    c.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListCustomers(c *gin.Context) {
	customers, err := s.custUC.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list customers failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(customers))
	for _, cust := range customers {
		out = append(out, customerJSON(cust))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customers": out})
}

func (s *Server) handleGetCustomer(c *gin.Context) {
	cust, err := s.custUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "customer not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customerJSON(cust)})
}

func (s *Server) handleRenameCustomer(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	cust, err := s.custUC.Rename(c.Request.Context(), c.Param("id"), body.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "customer not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "customer": customerJSON(cust)})
}

func (s *Server) handleAdjustBalance(c *gin.Context) {
	var body struct {
		DeltaCents int64 `json:"delta_cents"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	balance, err := s.custUC.AdjustBalance(c.Request.Context(), c.Param("id"), body.DeltaCents)
	if err != nil {
		if errors.Is(err, appCustomer.ErrInsufficientBalance) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "balance cannot go negative", "error_code": errCodeInsufficientFunds})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "customer not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "balance_cents": balance})
}

func (s *Server) handleDeleteCustomer(c *gin.Context) {
	if err := s.custUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "customer not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
