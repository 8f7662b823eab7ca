package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	handlers "github.com/curriculab/payments-service/internal/adapter/handler/http"
	"github.com/curriculab/payments-service/internal/config"
	"github.com/curriculab/payments-service/internal/infrastructure/database"
	stripeinfra "github.com/curriculab/payments-service/internal/infrastructure/stripe"
	"github.com/curriculab/payments-service/internal/middleware/auth"
	"github.com/curriculab/payments-service/internal/notification"
	"github.com/curriculab/payments-service/internal/usecase"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories) *Server {
	e := echo.New()

	// Initialize Stripe
	stripe.Key = cfg.Service.StripeSecretKey

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		repos:  repos,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Wire the reconciliation flow
	mailer := notification.NewSMTPMailer(
		s.config.Email.SMTPHost,
		s.config.Email.SMTPPort,
		s.config.Email.Username,
		s.config.Email.Password,
		s.config.Email.From,
		s.config.Email.FromName,
	)
	notifier := usecase.NewNotifier(mailer, s.repos.Notification, s.config.Service.OperatorEmail, s.logger)
	charges := stripeinfra.NewChargeClient(s.logger)
	reconciler := usecase.NewReconciler(s.repos.Order, notifier, charges, s.logger)
	verifier := stripeinfra.NewVerifier(s.config.Service.StripeWebhookSecret)
	janitor := usecase.NewJanitor(s.repos.Order, s.config.Janitor.DwellPeriod, s.config.Janitor.BatchLimit, s.logger)

	webhookHandler := handlers.NewWebhookHandler(s.logger, verifier, s.repos.Webhook, reconciler)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, s.config.Service.ClientURL, s.config.Service.Packages)
	orderHandler := handlers.NewOrderHandler(s.logger, s.repos.Order)
	onboardingHandler := handlers.NewOnboardingHandler(s.logger, s.repos.Order, notifier)
	janitorHandler := handlers.NewJanitorHandler(s.logger, janitor)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes (no authentication required)
	v1.POST("/checkout", checkoutHandler.CreateCheckout)
	v1.POST("/onboarding", onboardingHandler.SubmitOnboarding)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.Service.JWTSecret,
		Logger: s.logger,
	}))
	protected.GET("/orders", orderHandler.ListOrders)
	protected.GET("/orders/:id", orderHandler.GetOrder)

	// Scheduler-only routes
	internal := s.echo.Group("/internal", s.schedulerTokenMiddleware())
	internal.POST("/close-orders", janitorHandler.CloseOrders)

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}

// schedulerTokenMiddleware guards the janitor trigger with the shared token
// the external scheduler sends.
func (s *Server) schedulerTokenMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("X-Scheduler-Token")
			if s.config.Service.SchedulerToken == "" ||
				subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Service.SchedulerToken)) != 1 {
				s.logger.Warn("Scheduler token rejected",
					zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid scheduler token"})
			}
			return next(c)
		}
	}
}
