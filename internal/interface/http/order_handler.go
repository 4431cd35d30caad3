package httpapi

import (
	"errors"
	"net/http"
	"time"

	appOrder "shop-backoffice/internal/application/order"
	orderDomain "shop-backoffice/internal/domain/order"

	"github.com/gin-gonic/gin"
)

func orderJSON(o orderDomain.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, gin.H{
			"product_id":  it.ProductID,
			"quantity":    it.Quantity,
			"price_cents": it.PriceCents,
		})
	}
	return gin.H{
		"id":          o.ID,
		"customer_id": o.CustomerID,
		"status":      string(o.Status),
		"total_cents": o.TotalCents,
		"items":       items,
		"created_at":  o.CreatedAt.Format(time.RFC3339),
		"updated_at":  o.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListOrders(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	filter := appOrder.Filter{
		CustomerID: c.Query("customer_id"),
		Status:     orderDomain.Status(c.Query("status")),
		From:       from,
		To:         to,
	}
	orders, err := s.orderUC.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list orders failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": out})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.orderUC.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": orderJSON(o)})
}

func (s *Server) handleMarkOrderPaid(c *gin.Context) {
	o, err := s.orderUC.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appOrder.ErrAlreadyPaid) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "order already paid", "error_code": errCodeConflict})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": orderJSON(o)})
}

func (s *Server) handleDeleteOrder(c *gin.Context) {
	if err := s.orderUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleCleanupOrders 手動觸發清理逾期未付款訂單；平時由背景排程執行。
func (s *Server) handleCleanupOrders(c *gin.Context) {
	n, err := s.orderUC.CleanupUnpaid(c.Request.Context(), s.cfg.Orders.UnpaidTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "cleanup failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": n})
}

func (s *Server) handleRevenueReport(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	// 報表未指定區間時預設最近 30 天；訂單列表則不設限
	if from.IsZero() {
		to = time.Now()
		from = to.AddDate(0, 0, -30)
	}
	total, err := s.orderUC.RevenueTotal(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "revenue report failed", "error_code": errCodeInternal})
		return
	}
	points, err := s.orderUC.RevenueByDay(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "revenue report failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"total_cents": total,
		"daily":       points,
		"from":        from.Format(time.RFC3339),
		"to":          to.Format(time.RFC3339),
	})
}

// --- 商店端 ---

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var body struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	items := make([]appOrder.ItemInput, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, appOrder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := s.orderUC.Place(c.Request.Context(), currentPrincipalID(c), items)
	if err != nil {
		switch {
		case errors.Is(err, appOrder.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "insufficient stock", "error_code": errCodeOutOfStock})
		case errors.Is(err, appOrder.ErrUnknownProduct):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown product", "error_code": errCodeNotFound})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": orderJSON(o)})
}

func (s *Server) handleMyOrders(c *gin.Context) {
	orders, err := s.orderUC.List(c.Request.Context(), appOrder.Filter{CustomerID: currentPrincipalID(c)})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list orders failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": out})
}

func (s *Server) handleUndoOrder(c *gin.Context) {
	err := s.orderUC.Undo(c.Request.Context(), currentPrincipalID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, appOrder.ErrNotUndoable):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "order can no longer be cancelled", "error_code": errCodeConflict})
		case errors.Is(err, appOrder.ErrNotOwner):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found", "error_code": errCodeNotFound})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found", "error_code": errCodeNotFound})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
