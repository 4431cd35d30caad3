package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAuthServer 模擬後端認證端點，記錄 refresh 次數。
type fakeAuthServer struct {
	mu           sync.Mutex
	refreshCount int64
	version      int
	failRefresh  bool
	ttl          time.Duration
}

func newFakeAuthServer(ttl time.Duration) (*fakeAuthServer, *httptest.Server) {
	f := &fakeAuthServer{ttl: ttl}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shop/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.version++
		v := f.version
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "shop_refresh_token", Value: fmt.Sprintf("rt-%d", v), Path: "/api/shop/auth/refresh"})
		f.writeSession(w, v)
	})
	mux.HandleFunc("/api/shop/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.refreshCount, 1)
		f.mu.Lock()
		fail := f.failRefresh
		f.version++
		v := f.version
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "請重新登入"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "shop_refresh_token", Value: fmt.Sprintf("rt-%d", v), Path: "/api/shop/auth/refresh"})
		f.writeSession(w, v)
	})
	mux.HandleFunc("/api/shop/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	return f, httptest.NewServer(mux)
}

func (f *fakeAuthServer) writeSession(w http.ResponseWriter, version int) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"access_token":  fmt.Sprintf("at-%d", version),
		"expiry":        time.Now().Add(f.ttl).Format(time.RFC3339),
		"token_version": version,
	})
}

func (f *fakeAuthServer) refreshes() int64 {
	return atomic.LoadInt64(&f.refreshCount)
}

func TestEnsureFreshTokenSingleFlight(t *testing.T) {
	f, srv := newFakeAuthServer(time.Hour)
	defer srv.Close()

	c, err := New(srv.URL, "/api/shop/auth")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// 讓本地 token 看起來已過期
	c.mu.Lock()
	c.sess.expiry = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.EnsureFreshToken(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ensure fresh token: %v", err)
	}

	if got := f.refreshes(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
}

func TestEnsureFreshTokenFailClosed(t *testing.T) {
	f, srv := newFakeAuthServer(time.Hour)
	defer srv.Close()

	bus := NewMemoryBus()
	c, err := New(srv.URL, "/api/shop/auth", WithBus(bus))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var gotSignedOut bool
	var mu sync.Mutex
	bus.Subscribe(func(e Event) {
		if e.Type == EventSignedOut {
			mu.Lock()
			gotSignedOut = true
			mu.Unlock()
		}
	})

	f.mu.Lock()
	f.failRefresh = true
	f.mu.Unlock()

	c.mu.Lock()
	c.sess.expiry = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	if _, err := c.EnsureFreshToken(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	if c.SignedIn() {
		t.Fatal("session should be cleared after failed refresh")
	}
	mu.Lock()
	defer mu.Unlock()
	if !gotSignedOut {
		t.Fatal("expected signed_out broadcast")
	}
}

func TestBusSyncAcrossClients(t *testing.T) {
	f, srv := newFakeAuthServer(time.Hour)
	defer srv.Close()

	// 兩個 Client 共用 jar 與 Bus，模擬同一個瀏覽器的兩個分頁
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{Jar: jar}
	bus := NewMemoryBus()

	a, err := New(srv.URL, "/api/shop/auth", WithHTTPClient(hc), WithBus(bus))
	if err != nil {
		t.Fatalf("new client a: %v", err)
	}
	b, err := New(srv.URL, "/api/shop/auth", WithHTTPClient(hc), WithBus(bus))
	if err != nil {
		t.Fatalf("new client b: %v", err)
	}

	if err := a.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !b.SignedIn() {
		t.Fatal("second context should adopt the signed-in session")
	}
	before := f.refreshes()

	// A 換發後 B 不需要打網路就拿到新 token
	a.mu.Lock()
	a.sess.expiry = time.Now().Add(-time.Minute)
	a.mu.Unlock()
	tokenA, err := a.EnsureFreshToken(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	tokenB, err := b.EnsureFreshToken(context.Background())
	if err != nil {
		t.Fatalf("ensure on b: %v", err)
	}
	if tokenA != tokenB {
		t.Fatalf("contexts diverged: %q vs %q", tokenA, tokenB)
	}
	if got := f.refreshes() - before; got != 1 {
		t.Fatalf("expected a single network refresh, got %d", got)
	}
}

func TestStaleSignedOutIsIgnored(t *testing.T) {
	c := &Client{now: time.Now}
	c.sess = session{accessToken: "at-5", expiry: time.Now().Add(time.Hour), version: 5}

	// 較舊版本的 signed_out 是換發競走的輸家，不得打斷新 session
	c.handleEvent(Event{Type: EventSignedOut, TokenVersion: 3})
	if !c.SignedIn() {
		t.Fatal("stale signed_out must not clear a newer session")
	}

	// 使用者主動登出一律生效
	c.handleEvent(Event{Type: EventSignedOut, TokenVersion: 3, Forced: true})
	if c.SignedIn() {
		t.Fatal("forced signed_out must clear the session")
	}
}

func TestRefreshedEventSupersedesOlderToken(t *testing.T) {
	c := &Client{now: time.Now}
	c.sess = session{accessToken: "at-5", expiry: time.Now().Add(time.Hour), version: 5}

	c.handleEvent(Event{Type: EventRefreshed, TokenVersion: 4, AccessToken: "at-4", Expiry: time.Now().Add(time.Hour)})
	if c.sess.accessToken != "at-5" {
		t.Fatal("older refreshed event must not replace a newer token")
	}

	c.handleEvent(Event{Type: EventRefreshed, TokenVersion: 6, AccessToken: "at-6", Expiry: time.Now().Add(time.Hour)})
	if c.sess.accessToken != "at-6" {
		t.Fatalf("expected adoption of newer token, got %q", c.sess.accessToken)
	}
}
