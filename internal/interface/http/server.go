package httpapi

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"shop-backoffice/internal"
	appAuth "shop-backoffice/internal/application/auth"
	appCatalog "shop-backoffice/internal/application/catalog"
	appCustomer "shop-backoffice/internal/application/customer"
	appGiftcode "shop-backoffice/internal/application/giftcode"
	appOrder "shop-backoffice/internal/application/order"
	authDomain "shop-backoffice/internal/domain/auth"
	"shop-backoffice/internal/infra/memory"
	authinfra "shop-backoffice/internal/infrastructure/auth"
	"shop-backoffice/internal/infrastructure/config"
	"shop-backoffice/internal/infrastructure/notify"
	"shop-backoffice/internal/infrastructure/persistence/postgres"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	errCodeNotFound           = "NOT_FOUND"
	errCodeConflict           = "CONFLICT"
	errCodeOutOfStock         = "OUT_OF_STOCK"
	errCodeInsufficientFunds  = "INSUFFICIENT_BALANCE"
	errCodeInternal           = "INTERNAL_ERROR"
)

const (
	adminAccessCookie  = "admin_access_token"
	adminRefreshCookie = "admin_refresh_token"
	shopAccessCookie   = "shop_access_token"
	shopRefreshCookie  = "shop_refresh_token"

	adminRefreshPath = "/api/admin/auth/refresh"
	shopRefreshPath  = "/api/shop/auth/refresh"
)

const seedTimeout = 5 * time.Second

// realm 綁定一組認證情境：後台管理員與商店顧客各一組，
// 共用同一個 token codec，但 cookie 名稱、路徑與主體儲存各自獨立。
type realm struct {
	policy   appAuth.CookiePolicy
	store    authDomain.PrincipalStore
	issuer   *appAuth.SessionIssuer
	resolver *appAuth.Resolver
	login    *appAuth.LoginUseCase
	register *appAuth.RegisterUseCase
	renew    *appAuth.RenewUseCase
	logout   *appAuth.LogoutUseCase
	passwd   *appAuth.ChangePasswordUseCase
}

func newRealm(codec appAuth.TokenCodec, store authDomain.PrincipalStore, policy appAuth.CookiePolicy) *realm {
	issuer := appAuth.NewSessionIssuer(codec, policy)
	hasher := authinfra.BcryptHasher{}
	return &realm{
		policy:   policy,
		store:    store,
		issuer:   issuer,
		resolver: appAuth.NewResolver(codec, store),
		login:    appAuth.NewLoginUseCase(store, hasher, issuer),
		register: appAuth.NewRegisterUseCase(store, hasher, issuer),
		renew:    appAuth.NewRenewUseCase(codec, store, issuer),
		logout:   appAuth.NewLogoutUseCase(store, issuer),
		passwd:   appAuth.NewChangePasswordUseCase(store, hasher),
	}
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	db        *sql.DB
	admin     *realm
	shop      *realm
	catalogUC *appCatalog.UseCase
	orderUC   *appOrder.UseCase
	custUC    *appCustomer.UseCase
	giftUC    *appGiftcode.UseCase
	sweeper   *appOrder.Sweeper
}

// NewServer 建立 API 伺服器，預設使用記憶體資料存儲；有 DB 時注入對應 repository。
func NewServer(cfg config.Config, db *sql.DB) *Server {
	// 每個領域使用獨立衍生密鑰，後台與商店的 token 互不相認
	adminCodec, err := authinfra.NewCodec(
		cfg.Auth.AccessSecret+"|admin", cfg.Auth.RefreshSecret+"|admin",
		cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL,
	)
	if err != nil {
		log.Fatalf("CRITICAL: token codec init failed: %v", err)
	}
	shopCodec, err := authinfra.NewCodec(
		cfg.Auth.AccessSecret+"|shop", cfg.Auth.RefreshSecret+"|shop",
		cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL,
	)
	if err != nil {
		log.Fatalf("CRITICAL: token codec init failed: %v", err)
	}

	secure := cfg.Production()
	adminPolicy := appAuth.CookiePolicy{
		AccessName:  adminAccessCookie,
		RefreshName: adminRefreshCookie,
		RefreshPath: adminRefreshPath,
		Domain:      cfg.Auth.CookieDomain,
		Secure:      secure,
	}
	shopPolicy := appAuth.CookiePolicy{
		AccessName:  shopAccessCookie,
		RefreshName: shopRefreshCookie,
		RefreshPath: shopRefreshPath,
		Domain:      cfg.Auth.CookieDomain,
		Secure:      secure,
	}

	var (
		adminStore authDomain.PrincipalStore
		custStore  interface {
			authDomain.PrincipalStore
			appCustomer.Repository
		}
		catalogRepo interface {
			appCatalog.ProductRepository
			appCatalog.CategoryRepository
			appOrder.StockReserver
		}
		orderRepo appOrder.Repository
		giftRepo  appGiftcode.Repository
	)
	if db != nil {
		pRepo := postgres.NewPrincipalRepo(db)
		adminStore = pRepo
		custStore = postgres.NewCustomerRepo(db)
		catalogRepo = postgres.NewCatalogRepo(db)
		orderRepo = postgres.NewOrderRepo(db)
		giftRepo = postgres.NewGiftCodeRepo(db)

		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		if err := pRepo.SeedDefaults(ctx); err != nil {
			log.Printf("warning: seed admins failed: %v", err)
		}
	} else {
		mAdmins := memory.NewPrincipalStore()
		mAdmins.SeedAdmins()
		adminStore = mAdmins
		custStore = memory.NewCustomerRepo()
		catalogRepo = memory.NewCatalogRepo()
		orderRepo = memory.NewOrderRepo()
		giftRepo = memory.NewGiftCodeRepo()
	}

	var notifier appOrder.PaidNotifier
	if cfg.Notifier.Telegram.Enabled && cfg.Notifier.Telegram.Token != "" && cfg.Notifier.Telegram.ChatID != 0 {
		notifier = notify.NewOrderNotifier(notify.NewTelegramClient(cfg.Notifier.Telegram.Token, cfg.Notifier.Telegram.ChatID, "shop"))
	}
	if internal.IsNil(notifier) {
		notifier = nil
	}

	orderUC := appOrder.NewUseCase(orderRepo, catalogRepo, notifier, cfg.Orders.UndoWindow)

	s := &Server{
		engine:    gin.New(),
		cfg:       cfg,
		db:        db,
		admin:     newRealm(adminCodec, adminStore, adminPolicy),
		shop:      newRealm(shopCodec, custStore, shopPolicy),
		catalogUC: appCatalog.NewUseCase(catalogRepo, catalogRepo),
		orderUC:   orderUC,
		custUC:    appCustomer.NewUseCase(custStore),
		giftUC:    appGiftcode.NewUseCase(giftRepo, custStore),
		sweeper:   appOrder.NewSweeper(orderUC, cfg.Orders.UnpaidTTL, cfg.Orders.CleanupInterval),
	}
	s.engine.Use(s.ginLogger(), corsMiddleware(), gin.Recovery())
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

// StartSweeper 背景清理逾期未付款訂單，直到 ctx 取消。
func (s *Server) StartSweeper(ctx context.Context) {
	go s.sweeper.Run(ctx)
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)

	admin := api.Group("/admin")
	{
		authg := admin.Group("/auth")
		authg.POST("/login", s.handleLogin(s.admin))
		authg.POST("/refresh", s.handleRefresh(s.admin))
		authg.POST("/logout", s.handleLogout(s.admin))
		authg.POST("/logout-all", s.requireAuth(s.admin), s.handleLogoutAll(s.admin))
		authg.GET("/me", s.requireAuth(s.admin), s.handleMe(s.admin))
		authg.POST("/register", s.requireAuth(s.admin), s.handleRegister(s.admin))
		authg.POST("/password", s.requireAuthStrict(s.admin), s.handleChangePassword(s.admin))

		priv := admin.Group("", s.requireAuth(s.admin))
		priv.GET("/products", s.handleListProducts)
		priv.POST("/products", s.handleCreateProduct)
		priv.GET("/products/:id", s.handleGetProduct)
		priv.PUT("/products/:id", s.handleUpdateProduct)
		priv.POST("/products/:id/archive", s.handleArchiveProduct)
		priv.DELETE("/products/:id", s.handleDeleteProduct)

		priv.GET("/categories", s.handleListCategories)
		priv.POST("/categories", s.handleCreateCategory)
		priv.PUT("/categories/:id", s.handleRenameCategory)
		priv.DELETE("/categories/:id", s.handleDeleteCategory)

		priv.GET("/orders", s.handleListOrders)
		priv.GET("/orders/:id", s.handleGetOrder)
		priv.POST("/orders/:id/paid", s.handleMarkOrderPaid)
		priv.DELETE("/orders/:id", s.handleDeleteOrder)
		priv.POST("/orders/cleanup", s.handleCleanupOrders)
		priv.GET("/reports/revenue", s.handleRevenueReport)

		priv.GET("/customers", s.handleListCustomers)
		priv.GET("/customers/:id", s.handleGetCustomer)
		priv.PUT("/customers/:id", s.handleRenameCustomer)
		priv.POST("/customers/:id/balance", s.requireAuthStrict(s.admin), s.handleAdjustBalance)
		priv.DELETE("/customers/:id", s.requireAuthStrict(s.admin), s.handleDeleteCustomer)

		priv.GET("/gift-codes", s.handleListGiftCodes)
		priv.POST("/gift-codes", s.handleCreateGiftCode)
		priv.DELETE("/gift-codes/:id", s.handleDeleteGiftCode)
	}

	shop := api.Group("/shop")
	{
		authg := shop.Group("/auth")
		authg.POST("/login", s.handleLogin(s.shop))
		authg.POST("/register", s.handleRegister(s.shop))
		authg.POST("/refresh", s.handleRefresh(s.shop))
		authg.POST("/logout", s.handleLogout(s.shop))
		authg.POST("/logout-all", s.requireAuth(s.shop), s.handleLogoutAll(s.shop))
		authg.GET("/me", s.requireAuth(s.shop), s.handleMe(s.shop))
		authg.POST("/password", s.requireAuthStrict(s.shop), s.handleChangePassword(s.shop))

		shop.GET("/products", s.handleStorefrontProducts)

		priv := shop.Group("", s.requireAuth(s.shop))
		priv.POST("/orders", s.handlePlaceOrder)
		priv.GET("/orders", s.handleMyOrders)
		priv.POST("/orders/:id/undo", s.requireAuthStrict(s.shop), s.handleUndoOrder)
		priv.POST("/gift-codes", s.requireAuthStrict(s.shop), s.handlePurchaseGiftCode)
		priv.POST("/gift-codes/redeem", s.requireAuthStrict(s.shop), s.handleRedeemGiftCode)
	}
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
}

func (s *Server) handleHealth(c *gin.Context) {
	dbOK := true
	if s.db != nil {
		dbOK = s.db.PingContext(c.Request.Context()) == nil
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"db":      dbOK,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
