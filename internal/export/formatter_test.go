package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
)

var testTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func testProject() model.Project {
	return model.Project{
		ID:                1,
		Name:              "Sitio web de Tacos Doña Ana",
		Status:            model.StatusEnDesarrollo,
		Progress:          45,
		CurrentPhase:      "Contenido y Estructura",
		EstimatedDelivery: "3 días",
		Plan:              model.PlanRocket,
	}
}

func testClient() model.User {
	return model.User{
		ID:      7,
		Name:    "Ana Martínez",
		Email:   "ana@tacosdonaana.mx",
		Phone:   "+52 55 1234 5678",
		Company: "Tacos Doña Ana",
	}
}

func testResponse(t *testing.T) *model.OnboardingResponse {
	t.Helper()
	response := &model.OnboardingResponse{ProjectID: 1, Status: model.OnboardingInProgress}
	business, _ := json.Marshal(map[string]interface{}{
		"businessName":        "Tacos Doña Ana",
		"industry":            "Restaurantes",
		"businessDescription": "Taquería familiar con 20 años de tradición",
		"socialMedia":         map[string]interface{}{"instagram": "@tacosdonaana"},
	})
	objectives, _ := json.Marshal(map[string]interface{}{
		"primaryGoal":    "Recibir pedidos en línea",
		"targetAudience": "Vecinos de la colonia",
		"competitors":    []string{"Tacos El Güero", "La Lupita"},
	})
	design, _ := json.Marshal(map[string]interface{}{
		"stylePreference": "Tradicional",
		"hasLogo":         true,
	})
	response.SetSection(model.SectionBusinessInfo, business)
	response.SetSection(model.SectionObjectives, objectives)
	response.SetSection(model.SectionBrandDesign, design)
	response.SetSteps([]int{1, 2, 3, 4, 5})
	return response
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"txt", FormatText, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrInvalidExportFormat)
		} else {
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestBuildSnapshot(t *testing.T) {
	t.Run("decodes populated sections only", func(t *testing.T) {
		snapshot := BuildSnapshot(testProject(), testClient(), testResponse(t), testTime)

		assert.Len(t, snapshot.Sections, 3)
		assert.Equal(t, "Tacos Doña Ana", snapshot.Sections[model.SectionBusinessInfo]["businessName"])
		_, ok := snapshot.Sections[model.SectionTechnicalSetup]
		assert.False(t, ok)
	})

	t.Run("tolerates a nil response", func(t *testing.T) {
		snapshot := BuildSnapshot(testProject(), testClient(), nil, testTime)
		assert.Empty(t, snapshot.Sections)
		assert.Nil(t, snapshot.Onboarding)
	})

	t.Run("drops undecodable section json", func(t *testing.T) {
		response := &model.OnboardingResponse{ProjectID: 1}
		response.SetSection(model.SectionBusinessInfo, json.RawMessage(`"not an object"`))

		snapshot := BuildSnapshot(testProject(), testClient(), response, testTime)
		assert.Empty(t, snapshot.Sections)
	})
}

func TestSnapshotJSON(t *testing.T) {
	snapshot := BuildSnapshot(testProject(), testClient(), testResponse(t), testTime)
	out, err := snapshot.JSON()
	assert.NoError(t, err)

	var decoded struct {
		Proyecto struct {
			Nombre   string `json:"nombre"`
			Estado   string `json:"estado"`
			Progreso int    `json:"progreso"`
		} `json:"proyecto"`
		Cliente struct {
			Email string `json:"email"`
		} `json:"cliente"`
		Onboarding struct {
			Estado           string `json:"estado"`
			PasosCompletados []int  `json:"pasos_completados"`
		} `json:"onboarding"`
		Respuestas map[string]map[string]interface{} `json:"respuestas"`
	}
	assert.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "Sitio web de Tacos Doña Ana", decoded.Proyecto.Nombre)
	assert.Equal(t, "EN_DESARROLLO", decoded.Proyecto.Estado)
	assert.Equal(t, 45, decoded.Proyecto.Progreso)
	assert.Equal(t, "ana@tacosdonaana.mx", decoded.Cliente.Email)
	assert.Equal(t, "IN_PROGRESS", decoded.Onboarding.Estado)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, decoded.Onboarding.PasosCompletados)

	// The submitted answers survive the round trip untouched.
	assert.Equal(t, "Recibir pedidos en línea", decoded.Respuestas[model.SectionObjectives]["primaryGoal"])
	assert.Equal(t, "Restaurantes", decoded.Respuestas[model.SectionBusinessInfo]["industry"])
}

func TestSnapshotCSV(t *testing.T) {
	snapshot := BuildSnapshot(testProject(), testClient(), testResponse(t), testTime)
	out, err := snapshot.CSV()
	assert.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	assert.NoError(t, err)

	assert.Equal(t, []string{"Categoría", "Campo", "Valor"}, records[0])
	assert.Contains(t, records, []string{"Proyecto", "Progreso", "45%"})
	assert.Contains(t, records, []string{"Cliente", "Email", "ana@tacosdonaana.mx"})
	assert.Contains(t, records, []string{"Negocio", "Nombre del negocio", "Tacos Doña Ana"})
	assert.Contains(t, records, []string{"Objetivos", "Competidores", "Tacos El Güero, La Lupita"})
	assert.Contains(t, records, []string{"Diseño", "Cuenta con logo", "Sí"})
	// Known field without an answer renders as N/A.
	assert.Contains(t, records, []string{"Negocio", "Ubicación", "N/A"})

	// Sections with no answers at all are skipped, not padded.
	for _, record := range records {
		assert.NotEqual(t, "Técnica", record[0])
	}
}

func TestSnapshotText(t *testing.T) {
	snapshot := BuildSnapshot(testProject(), testClient(), testResponse(t), testTime)
	out, err := snapshot.Text()
	assert.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "REPORTE DE PROYECTO: Sitio web de Tacos Doña Ana")
	assert.Contains(t, text, "Progreso: 45%")
	assert.Contains(t, text, "Email: ana@tacosdonaana.mx")

	// Every submitted answer appears somewhere in the report.
	assert.Contains(t, text, "Tacos Doña Ana")
	assert.Contains(t, text, "Restaurantes")
	assert.Contains(t, text, "Taquería familiar con 20 años de tradición")
	assert.Contains(t, text, "Recibir pedidos en línea")
	assert.Contains(t, text, "Vecinos de la colonia")
	assert.Contains(t, text, "Tacos El Güero, La Lupita")
	assert.Contains(t, text, "Tradicional")

	// Extra keys outside the curated labels are still rendered.
	assert.Contains(t, text, "socialMedia")
	assert.Contains(t, text, "@tacosdonaana")

	// Rendered sections show N/A for unanswered known fields.
	assert.Contains(t, text, "Ubicación: N/A")

	// Empty sections are skipped entirely.
	assert.NotContains(t, text, "CONFIGURACIÓN TÉCNICA")
	assert.NotContains(t, text, "PLANIFICACIÓN DEL PROYECTO")

	assert.Contains(t, text, "Generado: 2026-03-14 10:30")
}

func TestFilename(t *testing.T) {
	assert.Equal(t,
		"onboarding-sitio-web-de-tacos-do-a-ana-2026-03-14.csv",
		Filename("Sitio web de Tacos Doña Ana", FormatCSV, testTime))
	assert.Equal(t,
		"onboarding-proyecto-2026-03-14.json",
		Filename("  Proyecto!!", FormatJSON, testTime))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "N/A", formatValue(nil))
	assert.Equal(t, "N/A", formatValue(""))
	assert.Equal(t, "Sí", formatValue(true))
	assert.Equal(t, "No", formatValue(false))
	assert.Equal(t, "a, b", formatValue([]interface{}{"a", "b"}))
	assert.Equal(t, "N/A", formatValue([]interface{}{}))
	assert.Equal(t, "3", formatValue(float64(3)))
	assert.Equal(t, "3.5", formatValue(3.5))
	assert.Equal(t, `{"x":"y"}`, formatValue(map[string]interface{}{"x": "y"}))
}
