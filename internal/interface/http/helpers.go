package httpapi

import (
	"fmt"
	"strings"
	"time"

	appAuth "shop-backoffice/internal/application/auth"
	authDomain "shop-backoffice/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// requestTokenSource 伺服器端的 token 來源：先看 Authorization header，
// 再退回具名 cookie。找 token 的規則集中在這裡，handler 不各自判斷。
func requestTokenSource(c *gin.Context, cookieName string) appAuth.TokenSource {
	return appAuth.TokenSourceFunc(func() (string, bool) {
		if token := parseBearer(c.GetHeader("Authorization")); token != "" {
			return token, true
		}
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token, true
		}
		return "", false
	})
}

func parseBearer(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// applyCookies 套用宣告式 cookie 描述到回應。
func applyCookies(c *gin.Context, specs []authDomain.CookieSpec) {
	for _, spec := range specs {
		c.SetCookie(spec.Name, spec.Value, spec.MaxAge, spec.Path, spec.Domain, spec.Secure, spec.HTTPOnly)
	}
}

func currentPrincipalID(c *gin.Context) string {
	if v, ok := c.Get(ctxPrincipalID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// parseDateRange 解析查詢字串的日期區間。未帶參數時回傳零值，
// 表示不限區間，交由呼叫端決定預設。
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr == "" && endStr == "" {
		return time.Time{}, time.Time{}, nil
	}
	if startStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date is required when end_date is set")
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date")
	}

	var end time.Time
	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date")
		}
		end = end.Add(24*time.Hour - time.Second)
	}

	return start, end, nil
}
