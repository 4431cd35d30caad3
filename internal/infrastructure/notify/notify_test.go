package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	orderDomain "shop-backoffice/internal/domain/order"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*TelegramClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := NewTelegramClient("test-token", 42, "商店")
	c.baseURL = srv.URL
	return c, srv
}

func TestSendMessageAddsPrefix(t *testing.T) {
	var got struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	if err := c.SendMessage(context.Background(), "測試訊息"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.ChatID != 42 {
		t.Fatalf("chat_id = %d, want 42", got.ChatID)
	}
	if got.Text != "[商店] 測試訊息" {
		t.Fatalf("text = %q", got.Text)
	}
}

func TestSendMessageRejectsMissingConfig(t *testing.T) {
	c := NewTelegramClient("", 0, "")
	if err := c.SendMessage(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing token/chat_id")
	}
}

func TestOrderPaidSwallowsPushFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	defer srv.Close()

	n := NewOrderNotifier(c)
	o := orderDomain.Order{
		ID:         "o1",
		CustomerID: "c1",
		TotalCents: 12345,
		CreatedAt:  time.Now(),
	}
	// 推播失敗只記 log，不能 panic 也不能回傳錯誤
	n.OrderPaid(context.Background(), o)
}
