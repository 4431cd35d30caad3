package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-backoffice/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Orders: config.OrdersConfig{
			UnpaidTTL:       24 * time.Hour,
			CleanupInterval: time.Hour,
			UndoWindow:      30 * time.Minute,
		},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAdminLogin(t *testing.T) {
	server := NewServer(testConfig(), nil)

	t.Run("Success", func(t *testing.T) {
		w := doJSON(t, server.Handler(), "POST", "/api/admin/auth/login",
			map[string]string{"email": "admin@example.com", "password": "password123"}, nil)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d. body: %s", w.Code, w.Body.String())
		}

		var resp map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["success"] != true {
			t.Errorf("expected success true, got %v", resp["success"])
		}
		if resp["access_token"] == "" {
			t.Error("expected access_token, got empty")
		}

		access := cookieByName(w, adminAccessCookie)
		if access == nil || !access.HttpOnly {
			t.Fatal("expected http-only admin access cookie")
		}
		if access.Path != "/" {
			t.Errorf("access cookie path should be /, got %s", access.Path)
		}
		refresh := cookieByName(w, adminRefreshCookie)
		if refresh == nil || refresh.Path != adminRefreshPath {
			t.Fatalf("refresh cookie should be scoped to %s, got %+v", adminRefreshPath, refresh)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w := doJSON(t, server.Handler(), "POST", "/api/admin/auth/login",
			map[string]string{"email": "admin@example.com", "password": "wrong-password"}, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})
}

func loginAdmin(t *testing.T, server *Server) (accessToken string, cookies []*http.Cookie) {
	t.Helper()
	w := doJSON(t, server.Handler(), "POST", "/api/admin/auth/login",
		map[string]string{"email": "admin@example.com", "password": "password123"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.AccessToken, w.Result().Cookies()
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	server := NewServer(testConfig(), nil)
	_, cookies := loginAdmin(t, server)

	var oldRefresh *http.Cookie
	for _, c := range cookies {
		if c.Name == adminRefreshCookie {
			oldRefresh = c
		}
	}
	if oldRefresh == nil {
		t.Fatal("missing refresh cookie after login")
	}

	// 第一次換發成功並取得新 refresh cookie
	w := doJSON(t, server.Handler(), "POST", "/api/admin/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(oldRefresh)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", w.Code, w.Body.String())
	}
	newRefresh := cookieByName(w, adminRefreshCookie)
	if newRefresh == nil || newRefresh.Value == oldRefresh.Value {
		t.Fatal("refresh should rotate the refresh token")
	}

	// 重放被輪替掉的舊 token 必須失敗
	w = doJSON(t, server.Handler(), "POST", "/api/admin/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(oldRefresh)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh token should be rejected, got %d", w.Code)
	}

	// 新 token 仍然有效
	w = doJSON(t, server.Handler(), "POST", "/api/admin/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(newRefresh)
	})
	if w.Code != http.StatusOK {
		t.Errorf("rotated refresh token should work, got %d %s", w.Code, w.Body.String())
	}
}

func TestLogoutAllRevokesRefresh(t *testing.T) {
	server := NewServer(testConfig(), nil)
	access, cookies := loginAdmin(t, server)

	var refresh *http.Cookie
	for _, c := range cookies {
		if c.Name == adminRefreshCookie {
			refresh = c
		}
	}

	w := doJSON(t, server.Handler(), "POST", "/api/admin/auth/logout-all", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout-all failed: %d %s", w.Code, w.Body.String())
	}
	if c := cookieByName(w, adminAccessCookie); c == nil || c.MaxAge != -1 {
		t.Error("logout-all should expire the access cookie")
	}

	// 紀元遞增後，登出前簽出去的 refresh token 全數失效
	w = doJSON(t, server.Handler(), "POST", "/api/admin/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(refresh)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout-all should fail, got %d", w.Code)
	}

	// 效期內的 access token 刻意不受影響（快速路徑不查儲存層）
	w = doJSON(t, server.Handler(), "GET", "/api/admin/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Errorf("access token should survive until expiry, got %d", w.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	server := NewServer(testConfig(), nil)

	w := doJSON(t, server.Handler(), "GET", "/api/admin/auth/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	access, _ := loginAdmin(t, server)
	w = doJSON(t, server.Handler(), "GET", "/api/admin/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("me with token failed: %d", w.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	user, _ := resp["user"].(map[string]interface{})
	if user["email"] != "admin@example.com" {
		t.Errorf("unexpected user: %v", resp["user"])
	}
}

func TestShopRegister(t *testing.T) {
	server := NewServer(testConfig(), nil)

	body := map[string]string{"email": "buyer@example.com", "name": "Buyer", "password": "hunter2hunter2"}
	w := doJSON(t, server.Handler(), "POST", "/api/shop/auth/register", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	if c := cookieByName(w, shopAccessCookie); c == nil {
		t.Error("expected shop access cookie after register")
	}
	if c := cookieByName(w, shopRefreshCookie); c == nil || c.Path != shopRefreshPath {
		t.Error("expected narrowly scoped shop refresh cookie")
	}

	// 重複註冊同一個 email
	w = doJSON(t, server.Handler(), "POST", "/api/shop/auth/register", body, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate email, got %d", w.Code)
	}
}

func TestRealmsAreIsolated(t *testing.T) {
	server := NewServer(testConfig(), nil)

	// 商店顧客的 token 不能打後台端點
	w := doJSON(t, server.Handler(), "POST", "/api/shop/auth/register",
		map[string]string{"email": "buyer@example.com", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", w.Code)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	w = doJSON(t, server.Handler(), "GET", "/api/admin/products", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("shop token must not pass admin auth, got %d", w.Code)
	}
}
