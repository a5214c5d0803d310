package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"novalabs/internal/auth"
	"novalabs/internal/config"
	apperrors "novalabs/internal/errors"
	"novalabs/internal/handler"
	"novalabs/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	webhookHandler *handler.WebhookHandler,
	projectHandler *handler.AdminProjectHandler,
	subscriptionHandler *handler.AdminSubscriptionHandler,
	userHandler *handler.AdminUserHandler,
	onboardingHandler *handler.OnboardingHandler,
	exportHandler *handler.ExportHandler,
	seedHandler *handler.SeedHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/setup-password", authHandler.SetupPassword)
	api.POST("/webhooks/stripe", webhookHandler.HandleStripe)
	api.GET("/seed/demo", seedHandler.SeedDemo)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return jwtService.ValidateToken(tokenString)
		},
	}))

	// Onboarding routes (owner or admin; ownership checked in the handler)
	secured.GET("/projects/:id/onboarding", onboardingHandler.Get)
	secured.PUT("/projects/:id/onboarding", onboardingHandler.Update)
	secured.POST("/projects/:id/onboarding/reset", onboardingHandler.Reset)

	// Admin routes
	admin := secured.Group("/admin", RequireAdmin)

	admin.GET("/projects", projectHandler.List)
	admin.POST("/projects", projectHandler.Create)
	admin.PUT("/projects", projectHandler.Update)
	admin.DELETE("/projects", projectHandler.Delete)
	admin.GET("/projects/:id/export", exportHandler.Download)

	admin.GET("/subscriptions", subscriptionHandler.List)
	admin.POST("/subscriptions", subscriptionHandler.Manage)

	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
}

// RequireAdmin rejects authenticated requests whose token lacks the admin role.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get("user").(*auth.Claims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{Error: "invalid token", Code: "UNAUTHORIZED"})
		}
		if claims.Role != model.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{Error: "admin access required", Code: "FORBIDDEN"})
		}
		return next(c)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
