package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/service"
)

// OnboardingHandler handles the client intake endpoints.
type OnboardingHandler struct {
	onboardingService service.OnboardingService
	projectService    service.ProjectService
}

// NewOnboardingHandler creates a new onboarding handler.
func NewOnboardingHandler(onboardingService service.OnboardingService, projectService service.ProjectService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService, projectService: projectService}
}

// authorizeProject lets admins through and otherwise requires the session
// user to own the project.
func (h *OnboardingHandler) authorizeProject(c echo.Context) (uint, error) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil || projectID < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid project id", Code: "INVALID_ID"})
	}

	claims, ok := claimsFrom(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{Error: "invalid session", Code: "UNAUTHORIZED"})
	}
	if claims.Role == model.RoleAdmin {
		return uint(projectID), nil
	}

	project, err := h.projectService.Get(c.Request().Context(), uint(projectID))
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return 0, echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	if project.UserID != claims.UserID {
		return 0, echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{Error: "forbidden", Code: "FORBIDDEN"})
	}
	return uint(projectID), nil
}

// Get godoc
// @Summary Read the onboarding state and progress for a project
// @Tags onboarding
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} service.OnboardingView
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id}/onboarding [get]
func (h *OnboardingHandler) Get(c echo.Context) error {
	projectID, err := h.authorizeProject(c)
	if err != nil {
		return err
	}

	view, err := h.onboardingService.Get(c.Request().Context(), projectID)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateOnboardingRequest is one incremental intake update.
type UpdateOnboardingRequest struct {
	Sections       map[string]json.RawMessage `json:"sections"`
	CompletedSteps []int                      `json:"completedSteps"`
	CurrentStep    int                        `json:"currentStep"`
}

// Update godoc
// @Summary Upsert onboarding sections and mark steps completed
// @Tags onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body UpdateOnboardingRequest true "Sections and steps"
// @Success 200 {object} service.OnboardingView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects/{id}/onboarding [put]
func (h *OnboardingHandler) Update(c echo.Context) error {
	projectID, err := h.authorizeProject(c)
	if err != nil {
		return err
	}

	var req UpdateOnboardingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
	}

	view, err := h.onboardingService.Update(c.Request().Context(), projectID, service.OnboardingUpdateInput{
		Sections:       req.Sections,
		CompletedSteps: req.CompletedSteps,
		CurrentStep:    req.CurrentStep,
	})
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, view)
}

// Reset godoc
// @Summary Clear the onboarding state for a project
// @Tags onboarding
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects/{id}/onboarding/reset [post]
func (h *OnboardingHandler) Reset(c echo.Context) error {
	projectID, err := h.authorizeProject(c)
	if err != nil {
		return err
	}

	if err := h.onboardingService.Reset(c.Request().Context(), projectID); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "onboarding reset"})
}
