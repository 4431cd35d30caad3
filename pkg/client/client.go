// Package client 是後端 API 的 Go SDK，負責登入、token 換發與
// 多情境 session 同步。存取 token 只放在記憶體；refresh token 由
// cookie jar 持有，SDK 不直接讀寫。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// ErrSignedOut 表示本地已無有效 session，呼叫端應引導重新登入。
var ErrSignedOut = errors.New("signed out")

// refreshSkew 在 token 真正過期前多久就視為需要換發。
const refreshSkew = 30 * time.Second

// Identity access token 內攜帶的身分欄位，未經伺服器端驗證，
// 僅供介面顯示使用。
type Identity struct {
	ID    string
	Email string
}

type session struct {
	accessToken string
	expiry      time.Time
	version     int
}

// Client 單一執行情境（一個分頁、一個 worker）的 API 客戶端。
// 多個 Client 可共用同一個 *http.Client（同一個 cookie jar）並掛上
// 同一個 Bus，模擬共享瀏覽器 session 的多分頁。
type Client struct {
	baseURL  string
	authPath string
	http     *http.Client
	bus      Bus
	unsub    func()

	mu    sync.Mutex
	sess  session
	group singleflight.Group
	now   func() time.Time
}

// Option 調整 Client 組態。
type Option func(*Client)

// WithHTTPClient 共用現成的 http.Client（含 cookie jar）。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBus 掛上跨情境事件匯流排。
func WithBus(bus Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// New 建立客戶端。authPath 指向所屬領域的認證前綴，
// 例如 "/api/shop/auth" 或 "/api/admin/auth"。
func New(baseURL, authPath string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:  baseURL,
		authPath: authPath,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("init cookie jar: %w", err)
		}
		c.http = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}
	if c.bus != nil {
		c.unsub = c.bus.Subscribe(c.handleEvent)
	}
	return c, nil
}

// Close 解除 Bus 訂閱。
func (c *Client) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

type sessionPayload struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"access_token"`
	Expiry       string `json:"expiry"`
	TokenVersion int    `json:"token_version"`
	Error        string `json:"error"`
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func (c *Client) adoptSession(p sessionPayload, announce EventType) error {
	expiry, err := time.Parse(time.RFC3339, p.Expiry)
	if err != nil {
		return fmt.Errorf("parse expiry: %w", err)
	}
	c.mu.Lock()
	c.sess = session{accessToken: p.AccessToken, expiry: expiry, version: p.TokenVersion}
	c.mu.Unlock()

	if c.bus != nil {
		err := c.bus.Publish(context.Background(), Event{
			Type:         announce,
			TokenVersion: p.TokenVersion,
			AccessToken:  p.AccessToken,
			Expiry:       expiry,
		})
		if err != nil {
			log.Printf("[Session] publish %s event failed: %v", announce, err)
		}
	}
	return nil
}

func decodeSession(resp *http.Response) (sessionPayload, error) {
	defer resp.Body.Close()
	var p sessionPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return p, err
	}
	if resp.StatusCode >= 400 || !p.Success {
		return p, fmt.Errorf("request failed (%d): %s", resp.StatusCode, p.Error)
	}
	return p, nil
}

// Login 帳密登入並建立本地 session。
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, c.authPath+"/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	p, err := decodeSession(resp)
	if err != nil {
		return err
	}
	return c.adoptSession(p, EventSignedIn)
}

// Register 註冊並直接登入。
func (c *Client) Register(ctx context.Context, email, name, password string) error {
	resp, err := c.postJSON(ctx, c.authPath+"/register", map[string]string{
		"email": email, "name": name, "password": password,
	})
	if err != nil {
		return err
	}
	p, err := decodeSession(resp)
	if err != nil {
		return err
	}
	return c.adoptSession(p, EventSignedIn)
}

// EnsureFreshToken 回傳仍在效期內的 access token，必要時先換發。
// 同一個 Client 上的並發呼叫共享一次換發（single-flight）；
// 換發失敗一律視為登出（fail closed），並廣播 signed_out。
func (c *Client) EnsureFreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s.accessToken != "" && c.now().Add(refreshSkew).Before(s.expiry) {
		return s.accessToken, nil
	}

	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		// 等待期間可能已有人（本地或透過 Bus）補好了
		c.mu.Lock()
		s := c.sess
		c.mu.Unlock()
		if s.accessToken != "" && c.now().Add(refreshSkew).Before(s.expiry) {
			return s.accessToken, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	resp, err := c.postJSON(ctx, c.authPath+"/refresh", nil)
	if err != nil {
		return "", c.signOutLocally(fmt.Errorf("%w: %v", ErrSignedOut, err))
	}
	p, decodeErr := decodeSession(resp)
	if decodeErr != nil {
		return "", c.signOutLocally(fmt.Errorf("%w: %v", ErrSignedOut, decodeErr))
	}
	if err := c.adoptSession(p, EventRefreshed); err != nil {
		return "", err
	}
	return p.AccessToken, nil
}

// signOutLocally 清空 session 並廣播，回傳傳入的錯誤。
func (c *Client) signOutLocally(cause error) error {
	c.mu.Lock()
	version := c.sess.version
	c.sess = session{}
	c.mu.Unlock()
	if c.bus != nil {
		_ = c.bus.Publish(context.Background(), Event{Type: EventSignedOut, TokenVersion: version})
	}
	return cause
}

// Logout 使用者主動登出：清本地 session、通知伺服器、強制廣播。
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	version := c.sess.version
	c.sess = session{}
	c.mu.Unlock()

	if resp, err := c.postJSON(ctx, c.authPath+"/logout", nil); err == nil {
		resp.Body.Close()
	}
	if c.bus != nil {
		_ = c.bus.Publish(context.Background(), Event{Type: EventSignedOut, TokenVersion: version, Forced: true})
	}
	return nil
}

// LogoutEverywhere 遞增伺服器端撤銷紀元，讓所有裝置重新登入。
func (c *Client) LogoutEverywhere(ctx context.Context) error {
	token, err := c.EnsureFreshToken(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.authPath+"/logout-all", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout everywhere failed (%d)", resp.StatusCode)
	}

	c.mu.Lock()
	version := c.sess.version
	c.sess = session{}
	c.mu.Unlock()
	if c.bus != nil {
		_ = c.bus.Publish(context.Background(), Event{Type: EventSignedOut, TokenVersion: version, Forced: true})
	}
	return nil
}

// SignedIn 本地是否還有未過期的 session。
func (c *Client) SignedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.accessToken != "" && c.now().Before(c.sess.expiry)
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity 從本地 access token 取出身分欄位。不驗簽——伺服器端
// 才是權威，這裡只供介面顯示。
func (c *Client) Identity() (Identity, bool) {
	c.mu.Lock()
	token := c.sess.accessToken
	c.mu.Unlock()
	if token == "" {
		return Identity{}, false
	}
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, false
	}
	return Identity{ID: claims.Subject, Email: claims.Email}, true
}

// Do 送出已附掛認證的請求。token 過期會先換發。
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	token, err := c.EnsureFreshToken(req.Context())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.http.Do(req)
}

// StartAutoRefresh 背景在每次 token 快到期時換發，直到 ctx 取消。
func (c *Client) StartAutoRefresh(ctx context.Context) {
	go func() {
		for {
			c.mu.Lock()
			expiry := c.sess.expiry
			c.mu.Unlock()

			wait := time.Minute
			if !expiry.IsZero() {
				if d := expiry.Sub(c.now()) - refreshSkew; d > 0 {
					wait = d
				} else {
					wait = time.Second
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			if !c.SignedIn() {
				continue
			}
			if _, err := c.EnsureFreshToken(ctx); err != nil {
				log.Printf("[Session] auto refresh stopped: %v", err)
				return
			}
		}
	}()
}

// handleEvent 套用其他情境廣播的 session 變化。
func (c *Client) handleEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e.Type {
	case EventSignedIn, EventRefreshed:
		// 只採納比手上更新的 token
		if e.TokenVersion > c.sess.version || c.sess.accessToken == "" {
			c.sess = session{accessToken: e.AccessToken, expiry: e.Expiry, version: e.TokenVersion}
		}
	case EventSignedOut:
		// 過時的 signed_out（換發競走的輸家）不打斷持有較新版本的情境；
		// 使用者主動登出（Forced）一律生效。
		if e.Forced || e.TokenVersion >= c.sess.version {
			c.sess = session{}
		}
	}
}
