package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taskhive/internal/auth"
	apperrors "taskhive/internal/errors"
	"taskhive/internal/handler"
	"taskhive/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes: bearer token verification, then resolution of the token
	// subject to a live user.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := authService.VerifyToken(token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
	}), resolveUser(authService))

	secured.GET("/auth/profile", authHandler.Profile)
	secured.PUT("/auth/profile", authHandler.UpdateProfile)
	secured.DELETE("/auth/profile", authHandler.DeleteProfile)

	secured.GET("/tasks", taskHandler.List)
	secured.POST("/tasks", taskHandler.Create)
	secured.GET("/tasks/stats", taskHandler.Stats)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.PUT("/tasks/:id", taskHandler.Update)
	secured.DELETE("/tasks/:id", taskHandler.Delete)
}

// resolveUser turns verified token claims into the current user. A token for
// a user that no longer exists is rejected the same way as an invalid token.
func resolveUser(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get("user").(*auth.Claims)
			if !ok {
				return apperrors.Unauthorized("Invalid or expired token")
			}
			user, err := authService.ValidateToken(c.Request().Context(), claims)
			if err != nil || user == nil {
				return apperrors.Unauthorized("Invalid or expired token")
			}
			c.Set(handler.ContextUserKey, user)
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
