package httpapi

import (
	"errors"
	"net/http"
	"time"

	appCustomer "shop-backoffice/internal/application/customer"
	appGiftcode "shop-backoffice/internal/application/giftcode"
	giftcodeDomain "shop-backoffice/internal/domain/giftcode"

	"github.com/gin-gonic/gin"
)

func giftCodeJSON(g giftcodeDomain.GiftCode) gin.H {
	out := gin.H{
		"id":          g.ID,
		"code":        g.Code,
		"value_cents": g.ValueCents,
		"created_at":  g.CreatedAt.Format(time.RFC3339),
	}
	if g.RedeemedBy != "" {
		out["redeemed_by"] = g.RedeemedBy
		if g.RedeemedAt != nil {
			out["redeemed_at"] = g.RedeemedAt.Format(time.RFC3339)
		}
	}
	if g.PurchasedBy != "" {
		out["purchased_by"] = g.PurchasedBy
	}
	if g.ExpiresAt != nil {
		out["expires_at"] = g.ExpiresAt.Format(time.RFC3339)
	}
	return out
}

func (s *Server) handleListGiftCodes(c *gin.Context) {
	codes, err := s.giftUC.List(c.Request.Context(), c.Query("include_redeemed") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list gift codes failed", "error_code": errCodeInternal})
		return
	}
	out := make([]gin.H, 0, len(codes))
	for _, g := range codes {
		out = append(out, giftCodeJSON(g))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "gift_codes": out})
}

func (s *Server) handleCreateGiftCode(c *gin.Context) {
	var body struct {
		ValueCents int64  `json:"value_cents"`
		ExpiresAt  string `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	input := appGiftcode.CreateInput{ValueCents: body.ValueCents}
	if body.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, body.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid expires_at", "error_code": errCodeBadRequest})
			return
		}
		input.ExpiresAt = &t
	}
	g, err := s.giftUC.Create(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "gift_code": giftCodeJSON(g)})
}

func (s *Server) handleDeleteGiftCode(c *gin.Context) {
	if err := s.giftUC.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "gift code not found", "error_code": errCodeNotFound})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handlePurchaseGiftCode 顧客以餘額購買禮物卡。
func (s *Server) handlePurchaseGiftCode(c *gin.Context) {
	var body struct {
		ValueCents int64 `json:"value_cents"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	g, err := s.giftUC.Purchase(c.Request.Context(), currentPrincipalID(c), body.ValueCents)
	if err != nil {
		if errors.Is(err, appCustomer.ErrInsufficientBalance) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "insufficient balance", "error_code": errCodeInsufficientFunds})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "gift_code": giftCodeJSON(g)})
}

func (s *Server) handleRedeemGiftCode(c *gin.Context) {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	balance, err := s.giftUC.Redeem(c.Request.Context(), currentPrincipalID(c), body.Code)
	if err != nil {
		switch {
		case errors.Is(err, appGiftcode.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "gift code not found", "error_code": errCodeNotFound})
		case errors.Is(err, appGiftcode.ErrCodeRedeemed):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "gift code already redeemed", "error_code": errCodeConflict})
		case errors.Is(err, appGiftcode.ErrCodeExpired):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "gift code expired", "error_code": errCodeConflict})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "redeem failed", "error_code": errCodeInternal})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "balance_cents": balance})
}
