// Package onboarding holds the intake questionnaire step table and the pure
// progress calculator over it. Nothing here touches storage.
package onboarding

// Step is one ordinal position in the intake questionnaire.
type Step struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Required bool   `json:"required"`
}

// Steps is the fixed ordered questionnaire. Completion is gated only on the
// required subset; 7, 8, 11, 14 and 16 are optional refinements.
var Steps = []Step{
	{Index: 1, Title: "Nombre del negocio", Required: true},
	{Index: 2, Title: "Industria y giro", Required: true},
	{Index: 3, Title: "Descripción del negocio", Required: true},
	{Index: 4, Title: "Ubicación y alcance", Required: true},
	{Index: 5, Title: "Objetivo principal del sitio", Required: true},
	{Index: 6, Title: "Audiencia objetivo", Required: true},
	{Index: 7, Title: "Competidores de referencia", Required: false},
	{Index: 8, Title: "Propuesta de valor", Required: false},
	{Index: 9, Title: "Páginas y secciones", Required: true},
	{Index: 10, Title: "Contenido disponible", Required: true},
	{Index: 11, Title: "Estructura de navegación", Required: false},
	{Index: 12, Title: "Estilo visual", Required: true},
	{Index: 13, Title: "Paleta de colores y logo", Required: true},
	{Index: 14, Title: "Sitios de inspiración", Required: false},
	{Index: 15, Title: "Dominio y configuración técnica", Required: true},
	{Index: 16, Title: "Notas finales", Required: false},
}

// RequiredSteps returns the required step indices in ascending order.
func RequiredSteps() []int {
	out := make([]int, 0, len(Steps))
	for _, s := range Steps {
		if s.Required {
			out = append(out, s.Index)
		}
	}
	return out
}

// Phase labels, bucketed by step index range.
const (
	PhaseBusinessInfo   = "Información de Negocio"
	PhaseObjectives     = "Objetivos y Audiencia"
	PhaseContent        = "Contenido y Estructura"
	PhaseVisualIdentity = "Identidad Visual"
	PhaseTechnicalSetup = "Configuración Técnica"
	PhaseFinalReview    = "Revisión Final"
)

// PhaseFor buckets a step index into its named phase.
func PhaseFor(index int) string {
	switch {
	case index >= 1 && index <= 4:
		return PhaseBusinessInfo
	case index >= 5 && index <= 8:
		return PhaseObjectives
	case index >= 9 && index <= 11:
		return PhaseContent
	case index >= 12 && index <= 14:
		return PhaseVisualIdentity
	case index == 15:
		return PhaseTechnicalSetup
	default:
		return PhaseFinalReview
	}
}
