package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery-storefront/config"
	"bakery-storefront/internal/database"
	"bakery-storefront/internal/handlers"
	"bakery-storefront/internal/jobs"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/middleware"
	"bakery-storefront/internal/models"
	"bakery-storefront/internal/services"
	"bakery-storefront/internal/telemetry"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.OTelServiceName, cfg.IsDevelopment())

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logging.Logger().Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	if err := middleware.InitMetrics(prometheus.DefaultRegisterer); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize metrics")
	}

	if err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment()); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to run database migrations")
	}

	jobClient, err := jobs.NewClient(cfg.RedisAddr())
	if err != nil {
		logging.Logger().Fatal().Err(err).Msg("failed to create job client")
	}
	defer jobClient.Close()

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpiresIn)
	userService := services.NewUserService(cfg.DefaultCity)
	storeService := services.NewStoreService()
	catalogService := services.NewCatalogService()
	promotionService := services.NewPromotionService()
	cartService := services.NewCartService()
	checkoutService := services.NewCheckoutService(storeService, cartService, promotionService, jobClient, cfg.DefaultCity)
	orderService := services.NewOrderService(jobClient)

	if cfg.AdminEmail != "" {
		if err := authService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logging.Logger().Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	healthHandler := handlers.NewHealthHandler(cfg.RedisAddr())
	authHandler := handlers.NewAuthHandler(authService, userService)
	storeHandler := handlers.NewStoreHandler(storeService, userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	promotionHandler := handlers.NewPromotionHandler(promotionService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(checkoutService, orderService)

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(otelecho.Middleware(cfg.OTelServiceName, otelecho.WithSkipper(func(c echo.Context) bool {
		return c.Path() == "/api/health" || c.Path() == "/metrics"
	})))
	e.Use(middleware.Metrics())
	e.HTTPErrorHandler = middleware.ErrorHandler

	if cfg.IsDevelopment() {
		e.Use(echomiddleware.Logger())
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	api.GET("/health", healthHandler.Check)

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	api.GET("/stores/nearby", storeHandler.Nearby, middleware.OptionalJWTAuth(cfg.JWTSecret))
	api.GET("/stores/:id", storeHandler.Get)
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/categories/:id/subcategories", catalogHandler.ListSubcategories)
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)
	api.GET("/products/:id/similar", catalogHandler.SimilarProducts)
	api.GET("/promotions", promotionHandler.ListActive)
	api.POST("/coupons/validate", promotionHandler.ValidateCoupon)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/user", authHandler.GetCurrentUser)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/profile", authHandler.GetProfile)
	auth.PUT("/profile", authHandler.UpdateProfile)

	auth.GET("/cart", cartHandler.List)
	auth.GET("/cart/count", cartHandler.Count)
	auth.POST("/cart", cartHandler.Add)
	auth.DELETE("/cart", cartHandler.Clear)
	auth.PUT("/cart/:id", cartHandler.UpdateQuantity)
	auth.DELETE("/cart/:id", cartHandler.Remove)

	auth.POST("/checkout/quote", orderHandler.Quote)
	auth.POST("/checkout", orderHandler.PlaceOrder)
	auth.GET("/orders", orderHandler.ListMine)
	auth.GET("/orders/:id", orderHandler.GetMine)

	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(models.RoleAdmin))
	admin.GET("/dashboard", orderHandler.Dashboard)

	admin.GET("/stores", storeHandler.AdminList)
	admin.GET("/stores/:id", storeHandler.AdminGet)
	admin.POST("/stores", storeHandler.Create)
	admin.PUT("/stores/:id", storeHandler.Update)
	admin.DELETE("/stores/:id", storeHandler.Delete)

	admin.GET("/categories", catalogHandler.AdminListCategories)
	admin.POST("/categories", catalogHandler.CreateCategory)
	admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)
	admin.PATCH("/categories/:id/toggle", catalogHandler.ToggleCategory)

	admin.GET("/subcategories", catalogHandler.AdminListSubcategories)
	admin.POST("/subcategories", catalogHandler.CreateSubcategory)
	admin.PUT("/subcategories/:id", catalogHandler.UpdateSubcategory)
	admin.DELETE("/subcategories/:id", catalogHandler.DeleteSubcategory)
	admin.PATCH("/subcategories/:id/toggle", catalogHandler.ToggleSubcategory)

	admin.GET("/products", catalogHandler.AdminListProducts)
	admin.GET("/products/:id", catalogHandler.AdminGetProduct)
	admin.POST("/products", catalogHandler.CreateProduct)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
	admin.PATCH("/products/:id/toggle", catalogHandler.ToggleProductActive)
	admin.PATCH("/products/:id/featured", catalogHandler.ToggleProductFeatured)

	admin.GET("/promotions", promotionHandler.AdminListPromotions)
	admin.POST("/promotions", promotionHandler.CreatePromotion)
	admin.PUT("/promotions/:id", promotionHandler.UpdatePromotion)
	admin.DELETE("/promotions/:id", promotionHandler.DeletePromotion)
	admin.PATCH("/promotions/:id/toggle", promotionHandler.TogglePromotion)

	admin.GET("/coupons", promotionHandler.AdminListCoupons)
	admin.POST("/coupons", promotionHandler.CreateCoupon)
	admin.PUT("/coupons/:id", promotionHandler.UpdateCoupon)
	admin.DELETE("/coupons/:id", promotionHandler.DeleteCoupon)
	admin.PATCH("/coupons/:id/toggle", promotionHandler.ToggleCoupon)

	admin.GET("/orders", orderHandler.AdminList)
	admin.GET("/orders/:id", orderHandler.AdminGet)
	admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	admin.PUT("/orders/:id/payment-status", orderHandler.UpdatePaymentStatus)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logging.Logger().Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger().Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to shutdown server")
	}
}
