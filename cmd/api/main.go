package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bengkelin/booking-api/api/swagger"
	"github.com/bengkelin/booking-api/internal/handler"
	"github.com/bengkelin/booking-api/internal/middleware"
	"github.com/bengkelin/booking-api/internal/models"
	"github.com/bengkelin/booking-api/internal/repository"
	"github.com/bengkelin/booking-api/internal/service"
	"github.com/bengkelin/booking-api/pkg/cache"
	"github.com/bengkelin/booking-api/pkg/config"
	"github.com/bengkelin/booking-api/pkg/database"
	"github.com/bengkelin/booking-api/pkg/logger"
	corsmiddleware "github.com/bengkelin/booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bengkelin/booking-api/pkg/middleware/requestid"
)

// @title Bengkelin Booking API
// @version 1.0.0
// @description Appointment scheduling and availability service for the workshop marketplace
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var availabilityCache *repository.CacheRepository
	if cfg.Scheduling.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			availabilityCache = repository.NewCacheRepository(redisClient, logr)
			defer availabilityCache.Close() //nolint:errcheck
		}
	}

	workshopRepo := repository.NewWorkshopRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	metrics := service.NewMetricsService()

	var scheduler *service.SchedulerService
	if availabilityCache != nil {
		scheduler = service.NewSchedulerService(workshopRepo, appointmentRepo, availabilityCache,
			models.DefaultOperatingHours(), cfg.Scheduling, metrics, nil, logr)
	} else {
		scheduler = service.NewSchedulerService(workshopRepo, appointmentRepo, nil,
			models.DefaultOperatingHours(), cfg.Scheduling, metrics, nil, logr)
	}
	bookingValidator := service.NewBookingValidator(bookingRules(cfg.Scheduling), nil)

	notifications := service.NewNotificationService(notificationRepo, workshopRepo, metrics, cfg.Notifications, logr)
	if cfg.Notifications.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		notifications.Start(ctx)
		defer notifications.Stop()
	}

	var notifier interface {
		EnqueueStatusChange(service.NotificationEvent) error
	}
	if cfg.Notifications.Enabled {
		notifier = notifications
	}

	appointments := service.NewAppointmentService(appointmentRepo, workshopRepo, scheduler,
		bookingValidator, nil, notifier, metrics, nil, logr)
	workshops := service.NewWorkshopService(workshopRepo, scheduler)
	exports := service.NewExportService(workshopRepo, appointmentRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, handler.NewWorkshopHandler(workshops),
		handler.NewAvailabilityHandler(scheduler),
		handler.NewAppointmentHandler(appointments, exports),
		handler.NewNotificationHandler(notifications))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(r *gin.Engine, cfg *config.Config, workshops *handler.WorkshopHandler,
	availability *handler.AvailabilityHandler, appointments *handler.AppointmentHandler,
	notifications *handler.NotificationHandler) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWT(cfg.JWT.Secret))

	ws := v1.Group("/workshops")
	{
		ws.GET("", workshops.List)
		ws.POST("", middleware.RequireRoles(models.RoleAdmin), workshops.Create)
		ws.POST("/compare", availability.Compare)
		ws.GET("/:id", workshops.Get)
		ws.PUT("/:id/operating-hours", middleware.RequireRoles(models.RoleWorkshop, models.RoleAdmin), workshops.UpdateOperatingHours)
		ws.GET("/:id/availability", availability.GetAvailability)
		ws.GET("/:id/availability/next", availability.NextSlots)
		ws.GET("/:id/availability/check", availability.CheckSlot)
		ws.POST("/:id/availability/optimal", availability.OptimalSlots)
		ws.GET("/:id/status", availability.CurrentStatus)
		if cfg.Exports.Enabled {
			ws.GET("/:id/schedule/export", middleware.RequireRoles(models.RoleWorkshop, models.RoleAdmin), appointments.ExportSchedule)
		}
	}

	appt := v1.Group("/appointments")
	{
		appt.GET("", appointments.List)
		appt.POST("", appointments.Create)
		appt.GET("/:id", appointments.Get)
		appt.PATCH("/:id", appointments.Patch)
	}

	v1.POST("/services/estimate", availability.Estimate)

	notif := v1.Group("/notifications")
	{
		notif.GET("", notifications.List)
		notif.PATCH("/:id/read", notifications.MarkRead)
	}
}

func bookingRules(cfg config.SchedulingConfig) service.BookingRules {
	rules := service.DefaultBookingRules()
	if cfg.MinDurationHours > 0 {
		rules.MinDurationHours = cfg.MinDurationHours
	}
	if cfg.MaxDurationHours > 0 {
		rules.MaxDurationHours = cfg.MaxDurationHours
	}
	if cfg.MaxAdvanceDays > 0 {
		rules.MaxAdvanceDays = cfg.MaxAdvanceDays
	}
	if cfg.RescheduleLeadHours > 0 {
		rules.LeadTimeHours = cfg.RescheduleLeadHours
	}
	if cfg.EarliestStartHour > 0 {
		rules.EarliestStartHour = cfg.EarliestStartHour
	}
	if cfg.LatestStartHour > 0 {
		rules.LatestStartHour = cfg.LatestStartHour
	}
	return rules
}
