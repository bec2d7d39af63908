package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/holidaysplanners/tour-booking-backend/internal/config"
	"github.com/holidaysplanners/tour-booking-backend/internal/database"
	"github.com/holidaysplanners/tour-booking-backend/internal/handlers"
	"github.com/holidaysplanners/tour-booking-backend/internal/middleware"
	"github.com/holidaysplanners/tour-booking-backend/internal/services"
	"github.com/holidaysplanners/tour-booking-backend/pkg/jwt"
	"github.com/holidaysplanners/tour-booking-backend/pkg/mailer"
	"github.com/holidaysplanners/tour-booking-backend/pkg/payment"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Holidays Planners Tour Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.ResetTokenExpiry)

	tourRepository := database.NewTourRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	userRepository := database.NewUserRepository(db)

	bookingMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP host not configured; booking confirmation mails will be skipped")
	}

	var paymentProvider payment.Provider
	stripeProvider, err := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:  cfg.Stripe.SecretKey,
		Currency:   cfg.Stripe.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	})
	if err != nil {
		logger.Warnf("Payment provider disabled: %v", err)
	} else {
		paymentProvider = stripeProvider
		logger.Info("Stripe payment provider initialized")
	}

	// Initialize and start the played-marker job
	playedMarker := services.NewPlayedMarkerService(bookingRepository, logger)
	if err := playedMarker.Start(); err != nil {
		logger.Fatalf("Failed to start played-marker service: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepository, jwtService, bookingMailer, logger)
	tourHandler := handlers.NewTourHandler(tourRepository)
	bookingHandler := handlers.NewBookingHandler(
		bookingRepository,
		tourRepository,
		userRepository,
		bookingMailer,
		paymentProvider,
		logger,
		cfg.Booking.EnforceSeatCapacity,
	)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgotpassword", authHandler.ForgotPassword)
			auth.PATCH("/forgotpassword/:token", authHandler.ResetPassword)

			authProtected := auth.Group("")
			authProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				authProtected.PUT("/password", authHandler.ChangePassword)
			}
		}

		// Tour routes: reads are public, mutation is admin-gated
		tours := v1.Group("/tours")
		{
			tours.GET("", tourHandler.GetTours)
			tours.GET("/:id", tourHandler.GetTour)

			toursAdmin := tours.Group("")
			toursAdmin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireAdmin())
			{
				toursAdmin.POST("", tourHandler.CreateTour)
				toursAdmin.PUT("/:id", tourHandler.ReplaceTour)
				toursAdmin.PATCH("/:id", tourHandler.PatchTour)
				toursAdmin.DELETE("/:id", tourHandler.DeleteTour)
			}
		}

		// Booking routes: all authenticated, some admin-gated
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.BookTour)
			bookings.DELETE("/:id", bookingHandler.DeleteBooking)
			bookings.PUT("/:id", bookingHandler.ReplaceBooking)

			bookingsAdmin := bookings.Group("")
			bookingsAdmin.Use(middleware.RequireAdmin())
			{
				bookingsAdmin.GET("", bookingHandler.GetBookings)
				bookingsAdmin.GET("/:id", bookingHandler.GetBooking)
				bookingsAdmin.PATCH("/:id", bookingHandler.PatchBooking)
				bookingsAdmin.GET("/:id/checkout", bookingHandler.GetCheckoutSession)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	playedMarker.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
