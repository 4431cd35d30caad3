package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"
)

// 後台建立商品、顧客下單、標記付款、報表與禮物卡的整條流程。
func TestStoreFlow(t *testing.T) {
	server := NewServer(testConfig(), nil)
	h := server.Handler()

	adminToken, _ := loginAdmin(t, server)
	asAdmin := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+adminToken) }

	// 建立分類與商品
	w := doJSON(t, h, "POST", "/api/admin/categories", map[string]string{"name": "Drinkware"}, asAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", w.Code, w.Body.String())
	}
	var catResp struct {
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	}
	json.Unmarshal(w.Body.Bytes(), &catResp)

	w = doJSON(t, h, "POST", "/api/admin/products", map[string]interface{}{
		"category_id": catResp.Category.ID,
		"name":        "Mug",
		"price_cents": 500,
		"stock":       3,
	}, asAdmin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product failed: %d %s", w.Code, w.Body.String())
	}
	var prodResp struct {
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	}
	json.Unmarshal(w.Body.Bytes(), &prodResp)
	productID := prodResp.Product.ID

	// 顧客註冊
	w = doJSON(t, h, "POST", "/api/shop/auth/register",
		map[string]string{"email": "buyer@example.com", "name": "Buyer", "password": "hunter2hunter2"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	var shopAuth struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &shopAuth)
	asBuyer := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+shopAuth.AccessToken) }

	// 下單兩個，庫存剩一
	w = doJSON(t, h, "POST", "/api/shop/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": productID, "quantity": 2}},
	}, asBuyer)
	if w.Code != http.StatusCreated {
		t.Fatalf("place order failed: %d %s", w.Code, w.Body.String())
	}
	var orderResp struct {
		Order struct {
			ID         string `json:"id"`
			TotalCents int64  `json:"total_cents"`
		} `json:"order"`
	}
	json.Unmarshal(w.Body.Bytes(), &orderResp)
	if orderResp.Order.TotalCents != 1000 {
		t.Errorf("expected total 1000, got %d", orderResp.Order.TotalCents)
	}

	// 超過庫存
	w = doJSON(t, h, "POST", "/api/shop/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": productID, "quantity": 5}},
	}, asBuyer)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 out of stock, got %d", w.Code)
	}

	// 後台標記付款
	w = doJSON(t, h, "POST", "/api/admin/orders/"+orderResp.Order.ID+"/paid", nil, asAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("mark paid failed: %d %s", w.Code, w.Body.String())
	}
	// 二次標記
	w = doJSON(t, h, "POST", "/api/admin/orders/"+orderResp.Order.ID+"/paid", nil, asAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on double paid, got %d", w.Code)
	}

	// 已付款訂單不可取消
	w = doJSON(t, h, "POST", "/api/shop/orders/"+orderResp.Order.ID+"/undo", nil, asBuyer)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 undoing paid order, got %d", w.Code)
	}

	// 營收報表
	w = doJSON(t, h, "GET", "/api/admin/reports/revenue", nil, asAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("revenue report failed: %d %s", w.Code, w.Body.String())
	}
	var rev struct {
		TotalCents int64 `json:"total_cents"`
	}
	json.Unmarshal(w.Body.Bytes(), &rev)
	if rev.TotalCents != 1000 {
		t.Errorf("expected revenue 1000, got %d", rev.TotalCents)
	}

	// 後台加值，顧客買禮物卡再兌換回來
	w = doJSON(t, h, "POST", "/api/admin/customers/"+shopAuth.User.ID+"/balance",
		map[string]int64{"delta_cents": 2000}, asAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("adjust balance failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "POST", "/api/shop/gift-codes", map[string]int64{"value_cents": 1500}, asBuyer)
	if w.Code != http.StatusCreated {
		t.Fatalf("purchase gift code failed: %d %s", w.Code, w.Body.String())
	}
	var gift struct {
		GiftCode struct {
			Code string `json:"code"`
		} `json:"gift_code"`
	}
	json.Unmarshal(w.Body.Bytes(), &gift)

	// 餘額不足再買一張
	w = doJSON(t, h, "POST", "/api/shop/gift-codes", map[string]int64{"value_cents": 1500}, asBuyer)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 insufficient balance, got %d", w.Code)
	}

	w = doJSON(t, h, "POST", "/api/shop/gift-codes/redeem", map[string]string{"code": gift.GiftCode.Code}, asBuyer)
	if w.Code != http.StatusOK {
		t.Fatalf("redeem failed: %d %s", w.Code, w.Body.String())
	}
	var redeem struct {
		BalanceCents int64 `json:"balance_cents"`
	}
	json.Unmarshal(w.Body.Bytes(), &redeem)
	if redeem.BalanceCents != 2000 {
		t.Errorf("expected balance back to 2000, got %d", redeem.BalanceCents)
	}

	// 同一張卡不能兌換第二次
	w = doJSON(t, h, "POST", "/api/shop/gift-codes/redeem", map[string]string{"code": gift.GiftCode.Code}, asBuyer)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on double redeem, got %d", w.Code)
	}
}

func TestCategoryDeleteBlockedWhenInUse(t *testing.T) {
	server := NewServer(testConfig(), nil)
	h := server.Handler()
	adminToken, _ := loginAdmin(t, server)
	asAdmin := func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+adminToken) }

	w := doJSON(t, h, "POST", "/api/admin/categories", map[string]string{"name": "Stationery"}, asAdmin)
	var catResp struct {
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	}
	json.Unmarshal(w.Body.Bytes(), &catResp)

	doJSON(t, h, "POST", "/api/admin/products", map[string]interface{}{
		"category_id": catResp.Category.ID, "name": "Pen", "price_cents": 100, "stock": 10,
	}, asAdmin)

	w = doJSON(t, h, "DELETE", "/api/admin/categories/"+catResp.Category.ID, nil, asAdmin)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 deleting category in use, got %d", w.Code)
	}
}
