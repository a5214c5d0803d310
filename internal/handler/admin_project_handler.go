package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/service"
)

// AdminProjectHandler handles the admin project CRUD endpoints.
type AdminProjectHandler struct {
	projectService service.ProjectService
}

// NewAdminProjectHandler creates a new admin project handler.
func NewAdminProjectHandler(projectService service.ProjectService) *AdminProjectHandler {
	return &AdminProjectHandler{projectService: projectService}
}

// List godoc
// @Summary List projects with search, status filter and pagination
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param search query string false "Matches project name or owner name/email"
// @Param status query string false "Status filter (default all)"
// @Param userId query int false "Exact owner filter"
// @Success 200 {object} service.ProjectListResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/projects [get]
func (h *AdminProjectHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	userID, _ := strconv.Atoi(c.QueryParam("userId"))
	status := c.QueryParam("status")
	if status == "" {
		status = "all"
	}

	result, err := h.projectService.List(c.Request().Context(), service.ProjectListParams{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
		Status: status,
		UserID: uint(userID),
	})
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, result)
}

// CreateProjectRequest represents a manual admin project creation.
type CreateProjectRequest struct {
	Name   string `json:"name" validate:"required"`
	UserID uint   `json:"userId" validate:"required"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// Create godoc
// @Summary Create a project for a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "Project data"
// @Success 201 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/projects [post]
func (h *AdminProjectHandler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	}

	project, err := h.projectService.Create(c.Request().Context(), service.CreateProjectInput{
		Name:   req.Name,
		UserID: req.UserID,
		Plan:   model.PlanType(req.Plan),
		Status: model.ProjectStatus(req.Status),
	})
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, project)
}

// UpdateProjectRequest applies partial update semantics: absent fields stay
// untouched, explicit zero values (progress 0) still apply.
type UpdateProjectRequest struct {
	ID                uint    `json:"id" validate:"required"`
	Name              *string `json:"name"`
	Status            *string `json:"status"`
	Progress          *int    `json:"progress"`
	CurrentPhase      *string `json:"currentPhase"`
	EstimatedDelivery *string `json:"estimatedDelivery"`
	Plan              *string `json:"plan"`
}

// Update godoc
// @Summary Update the provided fields of a project
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProjectRequest true "Fields to update"
// @Success 200 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/projects [put]
func (h *AdminProjectHandler) Update(c echo.Context) error {
	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	}

	input := service.UpdateProjectInput{
		Name:              req.Name,
		Progress:          req.Progress,
		CurrentPhase:      req.CurrentPhase,
		EstimatedDelivery: req.EstimatedDelivery,
	}
	if req.Status != nil {
		status := model.ProjectStatus(*req.Status)
		input.Status = &status
	}
	if req.Plan != nil {
		plan := model.PlanType(*req.Plan)
		input.Plan = &plan
	}

	project, err := h.projectService.Update(c.Request().Context(), req.ID, input)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, project)
}

// DeleteProjectRequest identifies the project to hard-delete.
type DeleteProjectRequest struct {
	ID uint `json:"id" validate:"required"`
}

// Delete godoc
// @Summary Delete a project
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteProjectRequest true "Project id"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/projects [delete]
func (h *AdminProjectHandler) Delete(c echo.Context) error {
	var req DeleteProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	}

	if err := h.projectService.Delete(c.Request().Context(), req.ID); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
