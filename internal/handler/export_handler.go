package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/export"
	"novalabs/internal/repository"
	"novalabs/internal/service"
)

// ExportHandler serves onboarding snapshot downloads.
type ExportHandler struct {
	projectService service.ProjectService
	onboardingRepo repository.OnboardingRepository
}

// NewExportHandler creates a new export handler.
func NewExportHandler(projectService service.ProjectService, onboardingRepo repository.OnboardingRepository) *ExportHandler {
	return &ExportHandler{projectService: projectService, onboardingRepo: onboardingRepo}
}

// Download godoc
// @Summary Download a project onboarding snapshot
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param format query string false "json, csv or txt (default json)"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/projects/{id}/export [get]
func (h *ExportHandler) Download(c echo.Context) error {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil || projectID < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{Error: "invalid project id", Code: "INVALID_ID"})
	}

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	project, err := h.projectService.Get(c.Request().Context(), uint(projectID))
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	response, err := h.onboardingRepo.FindByProject(c.Request().Context(), project.ID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: "load onboarding failed", Code: "INTERNAL_ERROR"})
	}

	now := time.Now()
	snapshot := export.BuildSnapshot(*project, project.User, response, now)
	body, err := snapshot.Render(format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: "render export failed", Code: "INTERNAL_ERROR"})
	}

	filename := export.Filename(project.Name, format, now)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, format.ContentType(), body)
}
