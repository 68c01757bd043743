package common

import (
	"hackmate-backend/internal/assets"
	"hackmate-backend/internal/config"
	"hackmate-backend/internal/email"
	"hackmate-backend/internal/teams"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type JwtCustomClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JwtAuth struct {
	Secret string
	Claims JwtCustomClaims
}

type JWTIssuer interface {
	GenerateToken(email string) (string, error)
	Middleware() echo.MiddlewareFunc
	GetUserEmail(c echo.Context) (string, error)
	// ParseUserEmail resolves a raw bearer token outside the middleware,
	// for the optional-auth read paths.
	ParseUserEmail(token string) (string, error)
}

type ServerState struct {
	Echo        *echo.Echo
	Config      *config.Config
	DB          *gorm.DB
	JwtIssuer   JWTIssuer
	Redis       *redis.Client
	EmailClient email.EmailClient
	Assets      assets.Store
	Teams       *teams.Engine
}
