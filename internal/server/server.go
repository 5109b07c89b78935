// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "healthbuddy/docs" // swagger docs
	"healthbuddy/internal/config"
	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/llm"
	"healthbuddy/internal/mailer"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/notifications"
	"healthbuddy/internal/payments"
	"healthbuddy/internal/repository"
	"healthbuddy/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps lets callers and tests replace the external clients. Nil fields are
// built from config.
type Deps struct {
	LLM     llm.Client
	Mailer  mailer.Mailer
	Gateway payments.Gateway
	Now     service.Clock
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	aiLimiter      *middleware.LocalLimiter
	profileRepo    repository.ProfileRepository

	auth          *service.AuthService
	subscriptions *service.SubscriptionService
	profiles      *service.ProfileService
	ai            *service.AIService
	wellness      *service.WellnessService
	social        *service.SocialService
	notifications *service.NotificationService
	payments      *service.PaymentService
	support       *service.SupportService
}

// NewServerWithDeps creates a Server using already-initialized DB and Redis
// connections. redisClient may be nil; realtime delivery is then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, deps Deps) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server: config and database are required")
	}

	if deps.LLM == nil {
		deps.LLM = llm.New(llm.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
		})
	}
	if deps.Mailer == nil {
		deps.Mailer = mailer.New(mailer.Config{
			APIKey:      cfg.SendGridAPIKey,
			FromAddress: cfg.MailFromAddress,
			FromName:    cfg.MailFromName,
		})
	}
	if deps.Gateway == nil {
		deps.Gateway = payments.New(payments.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	postRepo := repository.NewPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	supportRepo := repository.NewSupportRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("healthbuddy-api"),
		notifier:       notifications.NewNotifier(redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		aiLimiter:      middleware.NewLocalLimiter(20, time.Minute),
		profileRepo:    profileRepo,
	}
	if redisClient != nil {
		s.hub = notifications.NewHub()
	}

	s.notifications = service.NewNotificationService(notificationRepo, s.notifier, deps.Now)
	s.auth = service.NewAuthService(userRepo, redisClient, cfg.JWTSecret, cfg.OwnerOpenID, service.OAuthConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		UserInfoURL:  cfg.OAuthUserInfoURL,
		RedirectURL:  cfg.OAuthRedirectURL,
	}, deps.Now)
	s.subscriptions = service.NewSubscriptionService(subscriptionRepo, s.notifications, deps.Now)
	s.profiles = service.NewProfileService(profileRepo, deps.Now)
	s.ai = service.NewAIService(profileRepo, deps.LLM, s.featureFlags, deps.Now)
	s.wellness = service.NewWellnessService(libraryRepo, profileRepo, deps.LLM)
	s.social = service.NewSocialService(service.SocialDeps{
		Library:       libraryRepo,
		Points:        pointsRepo,
		Posts:         postRepo,
		Profiles:      profileRepo,
		Notifications: s.notifications,
		LLM:           deps.LLM,
		Flags:         s.featureFlags,
		Now:           deps.Now,
	})
	s.payments = service.NewPaymentService(subscriptionRepo, userRepo, deps.Gateway, cfg.PaymentCurrency, deps.Now)
	s.support = service.NewSupportService(supportRepo, userRepo, deps.LLM, s.notifications, deps.Mailer, s.featureFlags, deps.Now)

	return s, nil
}

// Social exposes the social service to background jobs.
func (s *Server) Social() *service.SocialService { return s.social }

// Subscriptions exposes the subscription service to background jobs.
func (s *Server) Subscriptions() *service.SubscriptionService { return s.subscriptions }

// Profiles exposes the profile repository to background jobs.
func (s *Server) Profiles() repository.ProfileRepository { return s.profileRepo }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	aiLimit := middleware.RateLimitWithOptions(s.redis, middleware.RateLimitOptions{
		Limit:  20,
		Window: time.Minute,
		Name:   "ai",
		Policy: middleware.FailLocal,
		Local:  s.aiLimiter,
	})
	supportLimit := middleware.RateLimitWithOptions(s.redis, middleware.RateLimitOptions{
		Limit:  20,
		Window: time.Minute,
		Name:   "support_message",
		Policy: middleware.FailLocal,
		Local:  s.aiLimiter,
	})

	// OAuth and local login
	api.Get("/oauth/login", s.OAuthLogin)
	api.Get("/oauth/callback", middleware.RateLimit(s.redis, 10, time.Minute, "oauth_callback"), s.OAuthCallback)
	if !s.config.IsProduction() {
		api.Post("/auth/dev-login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "dev_login"), s.DevLogin)
	}

	// Payment processor webhook authenticates by signature, not session.
	api.Post("/payment/webhook", s.PaymentWebhook)

	optional := s.OptionalAuth()
	protected := s.AuthRequired()

	auth := api.Group("/auth")
	auth.Get("/me", optional, s.Me)
	auth.Post("/logout", optional, s.Logout)

	subscription := api.Group("/subscription")
	subscription.Get("/getPlans", s.GetPlans)
	subscription.Get("/getMySubscription", protected, s.GetMySubscription)
	subscription.Post("/initializeTrial", protected, s.InitializeTrial)
	subscription.Post("/upgradeToPlan", protected, s.UpgradeToPlan)
	subscription.Post("/cancelSubscription", protected, s.CancelPlanSubscription)
	subscription.Get("/hasAccessToContent", protected, s.HasAccessToContent)

	profile := api.Group("/profile", protected)
	profile.Get("/getProfile", s.GetProfile)
	profile.Post("/updateProfile", s.UpdateProfile)
	profile.Post("/addHealthTracking", s.AddHealthTracking)
	profile.Get("/getHealthTracking", s.GetHealthTracking)
	profile.Post("/addNutritionTracking", s.AddNutritionTracking)
	profile.Get("/getNutritionTracking", s.GetNutritionTracking)
	profile.Post("/addAIConversation", s.AddAIConversation)
	profile.Get("/getConversationHistory", s.GetConversationHistory)

	ai := api.Group("/ai", protected, aiLimit)
	ai.Post("/getRecommendation", s.GetRecommendation)
	ai.Post("/chat", s.Chat)
	ai.Post("/getMotivation", s.GetMotivation)

	wellness := api.Group("/wellness")
	wellness.Get("/getRecommendedWorkouts", protected, s.GetRecommendedWorkouts)
	wellness.Get("/getWorkout", s.GetWorkout)
	wellness.Get("/getRecommendedMeditations", protected, s.GetRecommendedMeditations)
	wellness.Get("/getMeditation", s.GetMeditation)
	wellness.Get("/getRecommendedNutritionPlan", protected, s.GetRecommendedNutritionPlan)
	wellness.Get("/getRecipe", s.GetRecipe)
	wellness.Get("/searchRecipes", s.SearchRecipes)
	wellness.Post("/getWellnessAdvice", protected, aiLimit, s.GetWellnessAdvice)

	social := api.Group("/social")
	social.Get("/getVideoClass", s.GetVideoClass)
	social.Get("/getVideoClassesByCategory", s.GetVideoClassesByCategory)
	social.Get("/getUserStats", protected, s.GetUserStats)
	social.Post("/addPoints", protected, s.AddPoints)
	social.Get("/getCommunityPosts", optional, s.GetCommunityPosts)
	social.Get("/getCommunityPost", optional, s.GetCommunityPost)
	social.Post("/createPost", protected, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	social.Post("/addComment", protected, s.AddComment)
	social.Post("/likePost", protected, s.LikePost)
	social.Get("/getNotifications", protected, s.GetNotifications)
	social.Post("/markAsRead", protected, s.MarkAsRead)
	social.Post("/generateMotivationalNotification", protected, aiLimit, s.GenerateMotivationalNotification)
	social.Post("/unlockAchievement", protected, s.UnlockAchievement)

	payment := api.Group("/payment", protected)
	payment.Post("/createPaymentIntent", s.CreatePaymentIntent)
	payment.Post("/subscribe", s.Subscribe)
	payment.Get("/getCurrentSubscription", s.GetCurrentSubscription)
	payment.Post("/cancelSubscription", s.CancelPaymentSubscription)

	support := api.Group("/support", protected)
	support.Post("/createTicket", s.CreateTicket)
	support.Post("/sendMessage", supportLimit, s.SendSupportMessage)
	support.Get("/getTicket", s.GetTicket)
	support.Get("/getTickets", s.GetTickets)
	support.Post("/closeTicket", s.CloseTicket)
	support.Post("/rateInteraction", s.RateInteraction)

	api.Post("/ws/ticket", protected, s.IssueWSTicket)
	api.Get("/ws/notifications", wsUpgradeRequired, s.WebSocketAuth(), s.WebsocketHandler())

	api.All("/*", func(c *fiber.Ctx) error {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundMessage("Procedure not found"))
	})

	s.setupStatic(app)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := s.config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}
	app := fiber.New(fiber.Config{
		AppName:   "HealthBuddy API",
		BodyLimit: bodyLimit * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, models.StatusFor(err), err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires realtime delivery and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info(fmt.Sprintf("Server starting on port %s", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
