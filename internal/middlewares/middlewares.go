package middlewares

import (
	"net/http"

	"hackmate-backend/internal/common"
	"hackmate-backend/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole gates a route to users holding one of the given platform
// roles. It runs behind the JWT middleware, so the token is already
// verified; here we only resolve the user and check the role column.
func RequireRole(state *common.ServerState, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, err := state.JwtIssuer.GetUserEmail(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			user, err := models.GetUserByEmail(state.DB, email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			if !allowed[user.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient privileges")
			}

			return next(c)
		}
	}
}
