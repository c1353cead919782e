package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "gstdesk/api/swagger" // swagger docs
	"gstdesk/internal/compliance"
	"gstdesk/internal/config"
	"gstdesk/internal/database"
	"gstdesk/internal/handler"
	"gstdesk/internal/logger"
	"gstdesk/internal/metrics"
	"gstdesk/internal/middleware"
	"gstdesk/internal/notification"
	"gstdesk/internal/portal"
	"gstdesk/internal/repository"
	"gstdesk/internal/service"
	"gstdesk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           GST Desk API
// @version         1.0
// @description     GST practice backend: clients, registrations, returns, payments, notices, invoices and compliance alerts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), log)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Info("Connected to PostgreSQL successfully.")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	// Entity locks: Redis when configured so several API replicas serialize
	// on the same keys, otherwise in-process.
	var locker compliance.Locker
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer rdb.Close()
		locker = compliance.NewRedisLocker(rdb, cfg.LockTTL, log)
		log.WithField("addr", cfg.RedisAddress).Info("Using Redis entity locks")
	} else {
		locker = compliance.NewLocalLocker()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	sink := notification.NewSink(notificationRepo, wsHub, log)
	trigger := notification.NewTrigger(sink, notification.NewBadgeCounter(statsRepo, notificationRepo), log)
	applier := compliance.NewApplier(txManager, repository.NewMutationRepository(db), docRepo, auditRepo, locker, m, log)
	engine := compliance.NewEngine(applier, trigger, m, log)

	userService := service.NewUserService(userRepo, cfg.JWTSecret)
	clientService := service.NewClientService(clientRepo, docRepo, txManager, engine)
	registrationService := service.NewRegistrationService(regRepo, clientRepo, docRepo, txManager, engine)
	returnService := service.NewReturnService(returnRepo, clientRepo, docRepo, txManager, engine)
	paymentService := service.NewPaymentService(paymentRepo, returnRepo, clientRepo, txManager, engine)
	noticeService := service.NewNoticeService(noticeRepo, clientRepo, docRepo, txManager, engine)
	invoiceService := service.NewInvoiceService(invoiceRepo, clientRepo, txManager)
	notificationService := service.NewNotificationService(notificationRepo)
	analyticsService := service.NewAnalyticsService(statsRepo, notificationRepo)
	auditService := service.NewAuditService(auditRepo, clientRepo, regRepo, returnRepo, paymentRepo, noticeRepo)
	portalService := service.NewPortalService(portal.NewHTTPClient(cfg.PortalBaseURL, cfg.PortalTimeout))

	service.NewOverdueSweeper(returnRepo, returnService, cfg.OverdueSweepInterval, log).Start(ctx)

	// Initialize Handlers
	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Validator registration failed: %v", err)
	}
	userHandler := handler.NewUserHandler(userService)
	clientHandler := handler.NewClientHandler(clientService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	returnHandler := handler.NewReturnHandler(returnService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	noticeHandler := handler.NewNoticeHandler(noticeService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	auditHandler := handler.NewAuditHandler(auditService)
	portalHandler := handler.NewPortalHandler(portalService)

	// Set up Gin Router
	router := gin.Default()
	router.Use(middleware.ErrorLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Portal-Session"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret)
	})

	// API Routing
	public := router.Group("")
	protected := router.Group("", middleware.RequireAuth(cfg.JWTSecret))
	userHandler.RegisterRoutes(public, protected)
	clientHandler.RegisterRoutes(protected)
	registrationHandler.RegisterRoutes(protected)
	returnHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)
	noticeHandler.RegisterRoutes(protected)
	invoiceHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	analyticsHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)
	portalHandler.RegisterRoutes(protected)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown incomplete")
	}
}
