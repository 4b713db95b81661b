package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abayaStore/app/echo-server/router"
	"abayaStore/business/cart"
	"abayaStore/business/catalog"
	"abayaStore/business/coupon"
	"abayaStore/business/currency"
	"abayaStore/business/dashboard"
	"abayaStore/business/orders"
	"abayaStore/business/payments"
	"abayaStore/business/pricing"
	"abayaStore/business/returns"
	userService "abayaStore/business/user"
	"abayaStore/internal/authz"
	"abayaStore/internal/events"
	"abayaStore/internal/middleware"
	"abayaStore/internal/repository/gateway"
	"abayaStore/internal/repository/notification"
	psqlRepo "abayaStore/internal/repository/postgres"
	redisRepo "abayaStore/internal/repository/redis"
	"abayaStore/internal/rest"
	"abayaStore/pkg/config"
	"abayaStore/pkg/database"
	redisClient "abayaStore/pkg/database/redis"
	"abayaStore/pkg/logger"
	"abayaStore/pkg/metrics"
	"abayaStore/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/thejerf/suture/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting "+cfg.App.Name, "version", cfg.App.Version)

	metrics.Init()
	utils.InitJWT(cfg.JWT.SecretKey, cfg.JWT.TTL)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	rdb, err := redisClient.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	tokenRepo := redisRepo.NewTokenRepository(rdb)

	mailjetEmail := notification.NewMailjetRepository(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		},
	)

	// Payment gateways
	breaker := gateway.BreakerConfig{
		MaxFailures: cfg.Payment.BreakerMaxFailures,
		OpenTimeout: cfg.Payment.BreakerOpenTimeout,
		HTTPTimeout: cfg.Payment.GatewayHTTPTimeout,
	}
	stripeGateway := gateway.NewStripe(gateway.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		BaseURL:       cfg.Stripe.BaseURL,
		Currency:      cfg.Stripe.Currency,
	}, breaker)
	razorpayGateway := gateway.NewRazorpay(gateway.RazorpayConfig{
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		BaseURL:       cfg.Razorpay.BaseURL,
		Currency:      cfg.Razorpay.Currency,
	}, breaker)
	xenditGateway := gateway.NewXendit(gateway.XenditConfig{
		XenditApi:          cfg.Xendit.XenditSecretKey,
		XenditUrl:          cfg.Xendit.XenditUrl,
		SuccessRedirectUrl: cfg.Xendit.RedirectUrl,
		FailureRedirectUrl: cfg.Xendit.RedirectUrl,
		CallbackToken:      cfg.Xendit.XenditWebhookVerificationToken,
		Currency:           cfg.Xendit.Currency,
	}, breaker)
	registry := payments.NewRegistry(cfg.Payment.DefaultGateway, stripeGateway, razorpayGateway, xenditGateway)

	bus := events.NewBus()
	hub := events.NewHub()

	// Init validate
	validate := validator.New()

	// Init repo
	txManager := psqlRepo.NewTxManager(db)
	userRepo := psqlRepo.NewUserRepository(db)
	addressRepo := psqlRepo.NewAddressRepository(db)
	paymentMethodRepo := psqlRepo.NewPaymentMethodRepository(db)
	categoryRepo := psqlRepo.NewCategoryRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)
	attributeRepo := psqlRepo.NewAttributeRepository(db)
	currencyRepo := psqlRepo.NewCurrencyRepository(db)
	couponRepo := psqlRepo.NewCouponRepository(db)
	cartRepo := psqlRepo.NewCartRepository(db)
	wishlistRepo := psqlRepo.NewWishlistRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	paymentsRepo := psqlRepo.NewPaymentsRepository(db)
	returnsRepo := psqlRepo.NewReturnsRepository(db)
	reportRepo := psqlRepo.NewReportRepository(db)
	activityRepo := psqlRepo.NewActivityRepository(db)
	reviewRepo := psqlRepo.NewReviewRepository(db)
	mediaRepo := psqlRepo.NewMediaRepository(db)

	rules := pricing.DefaultRules()
	rules.FreeShippingThreshold = cfg.Store.FreeShippingThreshold
	rules.BaseShipping = cfg.Store.BaseShipping
	rules.RemoteSurcharge = cfg.Store.RemoteSurcharge
	rules.DefaultTaxRate = cfg.Store.DefaultTaxRate
	pricer := pricing.NewCalculator(rules)

	// Init service
	userSvc := userService.NewUserService(userRepo, tokenRepo, validate, mailjetEmail, cfg.App.AppEmailVerificationKey, cfg.App.AppDeploymentUrl)
	addressSvc := userService.NewAddressService(addressRepo, paymentMethodRepo, txManager, cfg.App.PaymentTokenKey)
	categorySvc := catalog.NewCategoryService(categoryRepo)
	productSvc := catalog.NewProductService(productRepo)
	attributeSvc := catalog.NewAttributeService(attributeRepo)
	reviewSvc := catalog.NewReviewService(reviewRepo, productRepo, ordersRepo)
	mediaSvc := catalog.NewMediaService(mediaRepo, productRepo, txManager)
	currencySvc := currency.NewCurrencyService(currencyRepo, txManager)
	couponSvc := coupon.NewCouponService(couponRepo)
	cartSvc := cart.NewCartService(cartRepo, productRepo, attributeRepo, couponSvc, currencySvc, pricer, txManager)
	wishlistSvc := cart.NewWishlistService(wishlistRepo, cartSvc, txManager)
	ordersSvc := orders.NewOrdersService(ordersRepo, cartRepo, productRepo, addressRepo, couponSvc, currencySvc, pricer, bus, txManager)
	paymentsSvc := payments.NewPaymentsService(paymentsRepo, ordersSvc, userRepo, registry, bus, txManager)
	ordersSvc.SetRefunder(paymentsSvc)
	returnsSvc := returns.NewReturnsService(returnsRepo, ordersSvc, productRepo, paymentsSvc, bus, txManager)
	dashboardSvc := dashboard.NewDashboardService(reportRepo, ordersRepo, productRepo, activityRepo, cfg.Store.LowStockThreshold)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logger.Fatal("Failed to load access policy", "error", err)
	}

	// Background workers
	ctx, stopWorkers := context.WithCancel(context.Background())
	supervisor := suture.New("abaya-store", suture.Spec{
		EventHook: func(ev suture.Event) {
			logger.Warn("Supervisor event", "event", ev.String())
		},
	})
	supervisor.Add(hub)
	supervisor.Add(events.NewNotifier(bus, userRepo, mailjetEmail))
	supervisor.Add(events.NewLiveFeed(bus, hub))
	supervisorDone := supervisor.ServeBackground(ctx)

	// Init handler
	userHandler := rest.NewUserHandler(userSvc, cartSvc)
	accountHandler := rest.NewAccountHandler(addressSvc)
	categoryHandler := rest.NewCategoryHandler(categorySvc)
	productHandler := rest.NewProductHandler(productSvc, attributeSvc)
	reviewHandler := rest.NewReviewHandler(reviewSvc, mediaSvc)
	currencyHandler := rest.NewCurrencyHandler(currencySvc)
	cartHandler := rest.NewCartHandler(cartSvc, wishlistSvc)
	couponHandler := rest.NewCouponHandler(couponSvc)
	ordersHandler := rest.NewOrdersHandler(ordersSvc)
	returnsHandler := rest.NewReturnsHandler(returnsSvc)
	paymentsHandler := rest.NewPaymentsHandler(paymentsSvc)
	webhookHandler := rest.NewWebhookController(paymentsSvc)
	dashboardHandler := rest.NewDashboardHandler(dashboardSvc, ordersSvc, returnsSvc, paymentsSvc, hub, cfg.Server.CORSOrigins)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderGuestID},
		ExposeHeaders: []string{middleware.HeaderGuestID, echo.HeaderContentDisposition},
	}))

	guards := router.Guards{
		Auth:      middleware.AuthMiddlewareWithRedis(userSvc),
		Optional:  middleware.OptionalAuth(userSvc),
		RateLimit: middleware.RateLimit(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window),
		Enforcer:  enforcer,
		Activity:  dashboardSvc,
	}
	webhookGuards := guards
	webhookGuards.RateLimit = middleware.RateLimit(cfg.RateLimit.WebhookRequests, cfg.RateLimit.Window)

	// Setup routes
	router.SetupSystemRoutes(e)
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, accountHandler, guards)
	router.SetupCatalogRoutes(api, categoryHandler, productHandler, guards)
	router.SetupReviewRoutes(api, reviewHandler, guards)
	router.SetupCurrencyRoutes(api, currencyHandler, guards)
	router.SetupCartRoutes(api, cartHandler, guards)
	router.SetupCouponRoutes(api, couponHandler, guards)
	router.SetOrdersRoutes(api, ordersHandler, returnsHandler, guards)
	router.SetPaymentsRoutes(api, paymentsHandler, guards)
	router.SetWebhookHandler(api, webhookHandler, webhookGuards)
	router.SetupDashboardRoutes(api, dashboardHandler, guards)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-supervisorDone:
		logger.Error("Supervisor stopped", "error", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	stopWorkers()
	if err := bus.Close(); err != nil {
		logger.Error("Event bus close error", "error", err)
	}
	if err := redisClient.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
