package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	appAuth "shop-backoffice/internal/application/auth"
	authDomain "shop-backoffice/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

func sessionResponse(res appAuth.LoginResult) gin.H {
	return gin.H{
		"success": true,
		"user": gin.H{
			"id":    res.Principal.ID,
			"email": res.Principal.Email,
			"name":  res.Principal.Name,
		},
		"access_token":  res.Pair.AccessToken,
		"token_type":    "Bearer",
		"expiry":        res.Pair.AccessExpiry.Format(time.RFC3339),
		"token_version": res.Pair.TokenVersion,
	}
}

func (s *Server) handleLogin(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
			return
		}

		res, err := r.login.Execute(c.Request.Context(), appAuth.LoginInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			log.Printf("[Auth] login failure for %s: %v", body.Email, err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid email or password", "error_code": errCodeInvalidCredentials})
			return
		}

		applyCookies(c, res.Cookies)
		c.JSON(http.StatusOK, sessionResponse(res))
	}
}

func (s *Server) handleRegister(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
			return
		}

		res, err := r.register.Execute(c.Request.Context(), appAuth.RegisterInput{
			Email:    body.Email,
			Name:     body.Name,
			Password: body.Password,
		})
		if err != nil {
			if errors.Is(err, authDomain.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": "email already registered", "error_code": errCodeEmailTaken})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
			return
		}

		applyCookies(c, res.Cookies)
		c.JSON(http.StatusCreated, sessionResponse(res))
	}
}

func (s *Server) handleRefresh(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie(r.policy.RefreshName)
		if err != nil || refreshToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "refresh token missing", "error_code": errCodeUnauthorized})
			return
		}

		res, err := r.renew.Execute(c.Request.Context(), refreshToken)
		if err != nil {
			// 換發失敗就把殘留的 cookie 一併清掉，前端只需導回登入頁
			applyCookies(c, r.issuer.ClearCookies())
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid refresh token", "error_code": errCodeUnauthorized})
			return
		}

		applyCookies(c, res.Cookies)
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"access_token":  res.Pair.AccessToken,
			"token_type":    "Bearer",
			"expiry":        res.Pair.AccessExpiry.Format(time.RFC3339),
			"token_version": res.Pair.TokenVersion,
		})
	}
}

func (s *Server) handleLogout(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyCookies(c, r.logout.Execute())
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleLogoutAll(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookies, err := r.logout.Everywhere(c.Request.Context(), currentPrincipalID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "logout everywhere failed", "error_code": errCodeInternal})
			return
		}
		applyCookies(c, cookies)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) handleMe(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := r.store.FindByID(c.Request.Context(), currentPrincipalID(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user": gin.H{
				"id":    p.ID,
				"email": p.Email,
				"name":  p.Name,
			},
		})
	}
}

func (s *Server) handleChangePassword(r *realm) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
			return
		}

		err := r.passwd.Execute(c.Request.Context(), currentPrincipalID(c), body.CurrentPassword, body.NewPassword)
		if err != nil {
			if errors.Is(err, authDomain.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "current password incorrect", "error_code": errCodeInvalidCredentials})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
			return
		}

		// 改密碼會遞增撤銷紀元，這個裝置也要重新登入
		applyCookies(c, r.issuer.ClearCookies())
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
