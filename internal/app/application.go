package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"decant-store-backend/internal/cart"
	"decant-store-backend/internal/config"
	"decant-store-backend/internal/handlers"
	"decant-store-backend/internal/middleware"
	"decant-store-backend/internal/models"
	"decant-store-backend/internal/payments/square"
	"decant-store-backend/internal/repository"
	"decant-store-backend/internal/seed"
	"decant-store-backend/internal/service"
	"decant-store-backend/pkg/cache"
	"decant-store-backend/pkg/logger"
)

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.Cache

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	Product repository.ProductRepository
	Cart    repository.CartStore
}

type serviceContainer struct {
	Product  *service.ProductService
	Cart     *service.CartService
	Checkout *service.CheckoutService
}

type handlerContainer struct {
	Product  *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.runMigrations(); err != nil {
		return nil, err
	}

	if err := app.initCache(); err != nil {
		return nil, err
	}
	app.initRepositories()

	if err := app.initServices(); err != nil {
		return nil, err
	}

	seed.EnsureDefaultProducts(app.repositories.Product)

	app.initHandlers()
	app.initRouter()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(&models.Product{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

func (a *Application) initCache() error {
	c, err := cache.NewCache(a.cfg.RedisURL, a.cfg.EnableRedis)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cache = c
	return nil
}

func (a *Application) initRepositories() {
	cartTTL := time.Duration(a.cfg.CartTTLMinutes) * time.Minute

	var carts repository.CartStore
	if a.cache.Enabled() {
		carts = repository.NewRedisCartStore(a.cache, cartTTL)
	} else {
		carts = repository.NewMemoryCartStore()
	}

	a.repositories = repositoryContainer{
		Product: repository.NewProductRepository(a.db),
		Cart:    carts,
	}
}

func (a *Application) initServices() error {
	provider, err := square.NewProvider(
		a.cfg.Square.AccessToken,
		a.cfg.Square.LocationID,
		a.cfg.Square.APIBaseURL(),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize payment provider: %w", err)
	}

	cartStore := cart.NewStore(cart.Pricing{
		ShippingFeeCents: a.cfg.ShippingFeeCents,
		TaxRate:          a.cfg.TaxRate,
	})

	cartService := service.NewCartService(cartStore, a.repositories.Cart, a.repositories.Product)

	a.services = serviceContainer{
		Product: service.NewProductService(a.repositories.Product, a.cache),
		Cart:    cartService,
		Checkout: service.NewCheckoutService(cartService, provider, service.CheckoutConfig{
			ApplicationID:   a.cfg.Square.ApplicationID,
			LocationID:      a.cfg.Square.LocationID,
			Environment:     a.cfg.Square.Environment,
			Currency:        a.cfg.Currency,
			ConfirmationURL: a.cfg.ConfirmationURL,
		}),
	}

	return nil
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Product:  handlers.NewProductHandler(a.services.Product),
		Cart:     handlers.NewCartHandler(a.services.Cart),
		Checkout: handlers.NewCheckoutHandler(a.services.Checkout),
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())
	router.Use(middleware.RequestIDMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.SessionMiddleware(a.cfg.IsProduction()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/products", a.handlers.Product.List)
		api.GET("/products/:id", a.handlers.Product.GetByID)
		api.GET("/brands", a.handlers.Product.Brands)

		api.GET("/cart", a.handlers.Cart.Get)
		api.POST("/cart/items", a.handlers.Cart.AddItem)
		api.PUT("/cart/items", a.handlers.Cart.UpdateQuantity)
		api.DELETE("/cart/items", a.handlers.Cart.RemoveItem)
		api.DELETE("/cart", a.handlers.Cart.Clear)

		api.POST("/checkout", a.handlers.Checkout.Start)
		api.GET("/checkout", a.handlers.Checkout.Current)
		api.POST("/checkout/continue", a.handlers.Checkout.Continue)
		api.POST("/checkout/back", a.handlers.Checkout.Back)
		api.POST("/checkout/shipping", a.handlers.Checkout.SubmitShipping)
		api.DELETE("/checkout", a.handlers.Checkout.Abandon)

		api.POST("/payments", a.handlers.Checkout.SubmitPayment)
		api.GET("/payments/config", a.handlers.Checkout.ClientConfig)
		api.GET("/payments/health", a.handlers.Checkout.GatewayHealth)
	}

	a.router = router
}
