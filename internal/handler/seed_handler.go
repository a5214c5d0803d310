package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/service"
)

// SeedHandler creates demo users and projects for local development.
type SeedHandler struct {
	userService    service.UserService
	projectService service.ProjectService
	onboarding     service.OnboardingService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(userService service.UserService, projectService service.ProjectService, onboarding service.OnboardingService) *SeedHandler {
	return &SeedHandler{userService: userService, projectService: projectService, onboarding: onboarding}
}

// SeedResponse represents the seed response.
type SeedResponse struct {
	Message  string `json:"message"`
	Users    int    `json:"users"`
	Projects int    `json:"projects"`
}

type demoUser struct {
	Email   string
	Name    string
	Company string
	Plan    model.PlanType
}

var demoUsers = []demoUser{
	{Email: "ana@tacosdonaana.mx", Name: "Ana Martínez", Company: "Tacos Doña Ana", Plan: model.PlanRocket},
	{Email: "carlos@estudiocreativo.mx", Name: "Carlos Rivera", Company: "Estudio Creativo Rivera", Plan: model.PlanGalaxy},
	{Email: "lucia@floreslucia.mx", Name: "Lucía Hernández", Company: "Flores Lucía", Plan: model.PlanRocket},
}

// SeedDemo godoc
// @Summary Seed demo users and projects
// @Tags seed
// @Produce json
// @Success 200 {object} SeedResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /seed/demo [get]
func (h *SeedHandler) SeedDemo(c echo.Context) error {
	ctx := c.Request().Context()
	users, projects := 0, 0

	for _, demo := range demoUsers {
		user, err := h.userService.Create(ctx, service.CreateUserInput{
			Email:   demo.Email,
			Name:    demo.Name,
			Company: demo.Company,
		})
		if err != nil {
			// Re-running the seed hits the unique email index; skip duplicates.
			continue
		}
		users++

		project, err := h.projectService.Create(ctx, service.CreateProjectInput{
			Name:   "Sitio web de " + demo.Company,
			UserID: user.ID,
			Plan:   demo.Plan,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: err.Error(), Code: "SEED_FAILED"})
		}
		projects++

		businessInfo, _ := json.Marshal(map[string]interface{}{
			"businessName": demo.Company,
			"industry":     "Comercio local",
		})
		if _, err := h.onboarding.Update(ctx, project.ID, service.OnboardingUpdateInput{
			Sections:       map[string]json.RawMessage{model.SectionBusinessInfo: businessInfo},
			CompletedSteps: []int{1, 2},
			CurrentStep:    3,
		}); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{Error: err.Error(), Code: "SEED_FAILED"})
		}
	}

	return c.JSON(http.StatusOK, SeedResponse{
		Message:  "demo data seeded",
		Users:    users,
		Projects: projects,
	})
}
