package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/service"
)

// AdminUserHandler handles admin user management endpoints.
type AdminUserHandler struct {
	userService service.UserService
}

// NewAdminUserHandler creates a new admin user handler.
func NewAdminUserHandler(userService service.UserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

// List godoc
// @Summary List users with their project counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} repository.UserWithProjectCount
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminUserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: err.Error(), Code: "INTERNAL_ERROR"})
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUserRequest represents a manual admin user creation.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Password string `json:"password"`
}

// Create godoc
// @Summary Create a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	}

	user, err := h.userService.Create(c.Request().Context(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Role:     model.UserRole(req.Role),
		Phone:    req.Phone,
		Company:  req.Company,
		Password: req.Password,
	})
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, user)
}
