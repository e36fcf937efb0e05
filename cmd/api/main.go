package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-roastery-api/internal/cache"
	"go-roastery-api/internal/config"
	"go-roastery-api/internal/handler"
	"go-roastery-api/internal/logger"
	"go-roastery-api/internal/middleware"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/service"
	"go-roastery-api/internal/storage"
	"go-roastery-api/internal/ws"
	"go-roastery-api/pkg/database"
	"go-roastery-api/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type handlers struct {
	auth      *handler.AuthHandler
	user      *handler.UserHandler
	role      *handler.RoleHandler
	dashboard *handler.DashboardHandler
	stock     *handler.StockHandler
	product   *handler.ProductHandler
	cart      *handler.CartHandler
	order     *handler.OrderHandler
	crm       *handler.CRMHandler
	booking   *handler.SampleBookingHandler
}

func main() {
	// 1. Config and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(ctx, db, cfg.Admin, log)

	// 4. Optional infrastructure: Redis for cache and locks, S3 for images
	catalogCache := cache.NewMemoryCatalogCache(cfg.Catalog.CacheTTL)
	locker := cache.NewLocalLocker()
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer client.Close()
		catalogCache = cache.NewRedisCatalogCache(client, cfg.Catalog.CacheTTL, log)
		locker = cache.NewRedisLocker(client)
		log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var images storage.ImageStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ImageStorage(cfg.Storage, log)
		if err != nil {
			log.Fatal("Image storage setup failed", zap.Error(err))
		}
		images = s3Storage
	}

	// 5. WebSocket hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 6. Dependency injection
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	cartRepo := repository.NewCartRepo(db)
	businessRepo := repository.NewBusinessRepo(db)
	agentRepo := repository.NewAgentRepo(db)
	bookingRepo := repository.NewSampleBookingRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	authService := service.NewAuthService(userRepo, roleRepo, businessRepo, db, tokens, cfg.Session.InactivityTimeout, wsHub, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	stockService := service.NewStockService(productRepo, movementRepo, db, catalogCache, wsHub, log)
	dashService := service.NewDashboardService(movementRepo, dashboardRepo)
	productService := service.NewProductService(productRepo, catalogCache, images, wsHub, log)
	cartService := service.NewCartService(cartRepo, productRepo, cfg.Catalog.MachineSlug, log)
	orderService := service.NewOrderService(orderRepo, productRepo, movementRepo, cartRepo, db, catalogCache, cfg.Catalog.MachineSlug, wsHub, log)
	crmService := service.NewCRMService(businessRepo, agentRepo, db, wsHub, log)
	bookingService := service.NewSampleBookingService(bookingRepo, businessRepo, db, locker, wsHub, log)

	h := handlers{
		auth:      handler.NewAuthHandler(authService),
		user:      handler.NewUserHandler(userService),
		role:      handler.NewRoleHandler(userService),
		dashboard: handler.NewDashboardHandler(dashService),
		stock:     handler.NewStockHandler(stockService),
		product:   handler.NewProductHandler(productService),
		cart:      handler.NewCartHandler(cartService),
		order:     handler.NewOrderHandler(orderService),
		crm:       handler.NewCRMHandler(crmService),
		booking:   handler.NewSampleBookingHandler(bookingService),
	}

	// 7. Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(logger.FiberMiddleware(log))
	app.Use(recover.New())
	app.Use(cors.New())

	registerRoutes(app, h, authService, wsHub, cfg.Locale.Supported)

	// 8. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("Server started", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

func registerRoutes(app *fiber.App, h handlers, authService service.AuthService, wsHub *ws.Hub, locales []string) {
	api := app.Group("/api/v1")
	locale := middleware.Locale(locales)
	requireAuth := middleware.RequireAuth(authService)
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.auth.Login)
	auth.Post("/register", locale, h.auth.Register)
	auth.Post("/reset-password", h.auth.ResetPassword)
	auth.Post("/validate-token", h.auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, h.auth.Heartbeat)

	api.Post("/sample-bookings", h.booking.CreateSampleBooking)

	// ============ SHOPPER ROUTES ============
	api.Get("/cart", requireAuth, h.cart.GetCart)
	api.Put("/cart", requireAuth, h.cart.ReplaceCart)
	api.Post("/cart/sync", requireAuth, h.cart.SyncCart)
	api.Get("/orders", requireAuth, h.order.GetMyOrders)
	api.Post("/orders", requireAuth, locale, h.order.CreateOrder)
	api.Get("/orders/:id", requireAuth, h.order.GetMyOrder)
	api.Post("/orders/:id/cancel", requireAuth, h.order.CancelMyOrder)

	// ============ ADMIN ROUTES ============
	admin := api.Group("/admin", requireAuth)

	admin.Get("/dashboard/stats", priv(model.PrivDashboardView), h.dashboard.GetDashboardStats)
	admin.Get("/dashboard/stock-movement", priv(model.PrivDashboardView), h.dashboard.GetStockMovement)

	admin.Get("/products", priv(model.PrivProductView), h.product.GetProducts)
	admin.Get("/products/:id", priv(model.PrivProductView), h.product.GetProduct)
	admin.Get("/products/:id/projection", priv(model.PrivProductView), h.product.Projection)
	admin.Post("/products", priv(model.PrivProductCreate), h.product.CreateProduct)
	admin.Put("/products/:id", priv(model.PrivProductUpdate), h.product.UpdateProduct)
	admin.Put("/products/:id/sold-out", priv(model.PrivProductUpdate), h.product.SetSoldOut)
	admin.Post("/products/:id/images/upload-url", priv(model.PrivProductUpdate), h.product.RequestImageUpload)
	admin.Post("/products/:id/images", priv(model.PrivProductUpdate), h.product.AttachImage)
	admin.Put("/products/:id/images", priv(model.PrivProductUpdate), h.product.ReorderImages)
	admin.Delete("/products/:id/images", priv(model.PrivProductUpdate), h.product.RemoveImage)

	admin.Get("/stock-movements", priv(model.PrivStockView), h.stock.GetMovements)
	admin.Get("/stock-movements/consistency", priv(model.PrivStockView), h.stock.CheckConsistency)
	admin.Get("/stock-movements/:id", priv(model.PrivStockView), h.stock.GetMovement)
	admin.Post("/stock-movements", priv(model.PrivStockCreate), h.stock.CreateMovement)

	// export before :id so it is not parsed as an order id
	admin.Get("/orders/export", priv(model.PrivOrderExport), h.order.ExportOrders)
	admin.Get("/orders", priv(model.PrivOrderView), h.order.GetOrders)
	admin.Get("/orders/:id", priv(model.PrivOrderView), h.order.GetOrder)
	admin.Put("/orders/:id/status", priv(model.PrivOrderUpdate), h.order.UpdateStatus)
	admin.Put("/orders/:id/total", priv(model.PrivOrderOverride), h.order.SetTotalOverride)
	admin.Put("/orders/:id/notes", priv(model.PrivOrderUpdate), h.order.UpdateNotes)

	admin.Get("/businesses", priv(model.PrivBusinessView), h.crm.GetBusinesses)
	admin.Get("/businesses/:id", priv(model.PrivBusinessView), h.crm.GetBusiness)
	admin.Post("/businesses", priv(model.PrivBusinessManage), h.crm.CreateBusiness)
	admin.Put("/businesses/:id", priv(model.PrivBusinessManage), h.crm.UpdateBusiness)
	admin.Put("/businesses/:id/stage", priv(model.PrivBusinessManage), h.crm.UpdateStage)
	admin.Get("/businesses/:id/activities", priv(model.PrivBusinessView), h.crm.GetActivities)
	admin.Post("/businesses/:id/activities", priv(model.PrivBusinessManage), h.crm.AddActivity)
	admin.Get("/businesses/:id/agents", priv(model.PrivBusinessView), h.crm.GetBusinessAgents)
	admin.Put("/businesses/:id/agents/:agentId", priv(model.PrivBusinessManage), h.crm.AssignAgent)
	admin.Delete("/businesses/:id/agents/:agentId", priv(model.PrivBusinessManage), h.crm.UnassignAgent)

	admin.Get("/agents", priv(model.PrivBusinessView), h.crm.GetAgents)
	admin.Post("/agents", priv(model.PrivAgentManage), h.crm.CreateAgent)
	admin.Put("/agents/:id", priv(model.PrivAgentManage), h.crm.UpdateAgent)

	admin.Get("/sample-bookings", priv(model.PrivBookingView), h.booking.GetSampleBookings)
	admin.Get("/sample-bookings/:id", priv(model.PrivBookingView), h.booking.GetSampleBooking)
	admin.Put("/sample-bookings/:id/status", priv(model.PrivBookingManage), h.booking.UpdateStatus)
	admin.Post("/sample-bookings/:id/convert", priv(model.PrivBookingManage), h.booking.Convert)

	admin.Get("/users", priv(model.PrivUserView), h.user.GetUsers)
	admin.Get("/users/:id", priv(model.PrivUserView), h.user.GetUser)
	admin.Post("/users", priv(model.PrivUserCreate), h.user.CreateUser)
	admin.Put("/users/:id", priv(model.PrivUserUpdate), h.user.UpdateUser)
	admin.Delete("/users/:id", priv(model.PrivUserDelete), h.user.DeleteUser)
	admin.Put("/users/:id/privileges", priv(model.PrivUserUpdatePrivilege), h.user.UpdateUserPrivileges)
	admin.Get("/roles", priv(model.PrivUserView), h.role.GetRoles)
	admin.Get("/privileges", priv(model.PrivUserView), h.role.GetPrivileges)

	// ============ STOREFRONT ============
	// registered after /admin so that "admin" is never taken for a locale
	api.Get("/:locale/products", locale, h.product.ListStorefront)
	api.Get("/:locale/products/:slug", locale, h.product.GetStorefrontProduct)

	// WebSocket: staff only, token in the query string
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireWSAuth(authService), middleware.RequirePrivilege(model.PrivDashboardView))
	app.Get("/ws", websocket.New(wsHub.Serve))
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and the bootstrap admin if they don't exist
func seedPrivilegesRolesAndAdmin(ctx context.Context, db *gorm.DB, admin config.AdminConfig, log *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed privileges", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed roles", zap.Error(err))
	}

	_, err := userRepo.FindByEmail(ctx, admin.Email)
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("Failed to look up admin user", zap.Error(err))
		return
	}

	masterRole, err := roleRepo.FindByCode(ctx, model.RoleMasterAdmin)
	if err != nil {
		log.Warn("MASTER_ADMIN role missing, admin not created", zap.Error(err))
		return
	}

	user := &model.User{
		Email:      admin.Email,
		FullName:   "Master Administrator",
		RoleID:     &masterRole.ID,
		IsActive:   true,
		Privileges: masterRole.Privileges,
	}
	user.Audit("system")
	if err := user.SetPassword(admin.Password); err != nil {
		log.Warn("Failed to hash admin password", zap.Error(err))
		return
	}
	if err := userRepo.Create(ctx, user); err != nil {
		log.Warn("Failed to create admin user", zap.Error(err))
		return
	}
	log.Info("Admin user created", zap.String("email", admin.Email), zap.String("role", model.RoleMasterAdmin))
}
