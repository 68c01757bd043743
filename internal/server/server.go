package server

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"hackmate-backend/internal/assets"
	"hackmate-backend/internal/common"
	"hackmate-backend/internal/config"
	"hackmate-backend/internal/email"
	"hackmate-backend/internal/handlers"
	"hackmate-backend/internal/middlewares"
	"hackmate-backend/internal/models"
	"hackmate-backend/internal/teams"

	"github.com/go-playground/validator"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	resend "github.com/resend/resend-go/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CustomValidator Source: https://echo.labstack.com/docs/request#validate-data
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return err
	}
	return nil
}

type SentryLogger struct {
	echo.Logger
}

func (l *SentryLogger) Error(i ...interface{}) {
	// Capture in Sentry
	if err, ok := i[0].(error); ok {
		handlers.CaptureError(err)
	} else {
		handlers.CaptureError(fmt.Errorf("%v", i...))
	}
	// Call original logger
	l.Logger.Error(i...)
}

type Server struct {
	common.ServerState
}

func New(cfg *config.Config) *Server {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Logger = &SentryLogger{Logger: e.Logger}
	e.Logger.SetLevel(log.DEBUG)

	return &Server{
		common.ServerState{
			Echo:   e,
			Config: cfg,
		},
	}
}

func (s *Server) Initialize() error {
	// Initialize database
	s.setupDatabase()

	s.setupRedis()

	// Initialize JWT
	s.JwtIssuer = handlers.NewJwtAuth(s.Config.Auth.JWTSecret)

	// Initialize Resend email client
	s.setupEmailClient()

	// Asset store client and the team workflow engine on top of it
	s.Assets = assets.NewHTTPStore(s.Config.Assets.BaseURL, s.Config.Assets.APIKey)
	s.Teams = teams.NewEngine(teams.NewGormStore(s.DB), s.Assets)

	// Setup routes
	s.setupRoutes()

	// Run Migrations
	s.runMigrations()

	// Setup middleware -
	// Keep last to avoid Recover middleware and panic if something goes wrong on init
	s.setupMiddleware()

	return nil
}

func (s *Server) setupDatabase() {
	dsn := s.Config.Database.DSN
	if dsn == "" {
		s.Echo.Logger.Fatal("DATABASE_DSN environment variable is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		s.Echo.Logger.Fatal(err)
	}
	s.DB = db
}

func (s *Server) setupRedis() {
	url := s.Config.Database.RedisURI
	if url == "" {
		s.Echo.Logger.Warn("REDIS_URI not configured, join request rate limiting is disabled")
		return
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		panic(err)
	}

	s.Redis = redis.NewClient(opts)

	// Validate proper connection
	ctx := context.Background()
	result := s.Redis.Ping(ctx)
	if result.Err() != nil {
		panic(result.Err())
	}
}

func (s *Server) runMigrations() {
	err := s.DB.AutoMigrate(
		&models.User{},
		&models.Hackathon{},
		&models.Team{},
		&models.Membership{},
		&models.JoinRequest{},
		&models.Attachment{},
	)
	if err != nil {
		s.Echo.Logger.Fatal(err)
	}
}

func (s *Server) setupMiddleware() {
	s.Echo.Use(middleware.CORS())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(echoprometheus.NewMiddleware("hackmate_backend"))
}

func (s *Server) setupEmailClient() {
	apiKey := s.Config.Resend.APIKey
	if apiKey == "" {
		s.Echo.Logger.Warn("RESEND_API_KEY not configured, email notifications will be disabled")
		return
	}

	resendClient := resend.NewClient(apiKey)
	s.EmailClient = email.NewResendEmailClient(resendClient,
		s.Config.Resend.DefaultSender,
		s.Echo.Logger)
}

func (s *Server) setupRoutes() {
	handlers.SetupSentry(s.Echo, s.Config)

	// Initialize handlers
	h := handlers.NewAuthHandler(s.ServerState)

	// API routes group
	api := s.Echo.Group("/api")

	// Public API endpoints
	api.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	api.GET("/metrics", echoprometheus.NewHandler())

	// Authentication endpoints
	api.POST("/sign-up", h.ManualSignUp)
	api.POST("/sign-in", h.ManualSignIn)

	// Hackathon listings are public reads
	api.GET("/hackathons", h.ListHackathons)
	api.GET("/hackathons/:id", h.GetHackathon)

	// Team reads tolerate anonymous callers; private teams are filtered or
	// rejected inside the workflow engine
	api.GET("/teams/:id", h.GetTeam)
	api.GET("/hackathons/:id/teams", h.ListHackathonTeams)

	// Protected API routes group
	protectedAPI := api.Group("/auth", s.JwtIssuer.Middleware())

	protectedAPI.GET("/user", h.User)
	protectedAPI.PUT("/update-profile", h.UpdateProfile)
	protectedAPI.POST("/profile-image", h.UploadProfileImage)

	// Team formation workflow
	protectedAPI.POST("/teams", h.CreateTeam)
	protectedAPI.PUT("/teams/:id", h.UpdateTeam)
	protectedAPI.DELETE("/teams/:id", h.DeleteTeam)
	protectedAPI.POST("/teams/:id/invite", h.InviteMember)
	protectedAPI.POST("/teams/:id/join", h.SubmitJoinRequest)
	protectedAPI.POST("/teams/:id/leave", h.LeaveTeam)
	protectedAPI.POST("/teams/:id/attachments", h.UploadTeamAttachments)
	protectedAPI.GET("/join-requests", h.PendingJoinRequests)
	protectedAPI.POST("/join-requests/:id/respond", h.RespondJoinRequest)

	// Hackathon listing management is host/admin territory
	hostAPI := protectedAPI.Group("/hackathons",
		middlewares.RequireRole(&s.ServerState, models.RoleHost, models.RoleAdmin))
	hostAPI.POST("", h.CreateHackathon)
	hostAPI.PUT("/:id", h.UpdateHackathon)
	hostAPI.DELETE("/:id", h.DeleteHackathon)

	// Debug endpoints - only enabled when ENABLE_DEBUG_ENDPOINTS=true
	if s.Config.Server.Debug {
		api.GET("/jwt-debug", func(c echo.Context) error {
			email := c.QueryParam("email")
			token, err := s.JwtIssuer.GenerateToken(email)
			if err != nil {
				return c.String(http.StatusInternalServerError, "Failed to generate token")
			}
			return c.JSON(http.StatusOK, map[string]string{
				"email": email,
				"token": token,
			})
		})
	}
}

func (s *Server) Start() error {
	serverURL := s.Config.Server.Host + ":" + s.Config.Server.Port

	if s.Config.Server.TLS.Enabled {
		if _, err := os.Stat(s.Config.Server.TLS.CertFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS certificate file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		if _, err := os.Stat(s.Config.Server.TLS.KeyFile); os.IsNotExist(err) {
			s.Echo.Logger.Warn("TLS key file not found, falling back to HTTP")
			return s.Echo.Start(serverURL)
		}
		return s.Echo.StartTLS(serverURL, s.Config.Server.TLS.CertFile, s.Config.Server.TLS.KeyFile)
	}

	return s.Echo.Start(serverURL)
}
