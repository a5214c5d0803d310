// Package export serializes a project plus its onboarding snapshot into the
// downloadable report formats. Formatting is a pure read: the snapshot is
// never mutated and all three formats render the same underlying data.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
)

// Format is an export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// ParseFormat validates a query-string format value. Empty defaults to JSON.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(value)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatText:
		return FormatText, nil
	}
	return "", apperrors.ErrInvalidExportFormat
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Snapshot is a fully-loaded project + onboarding view ready for formatting.
// Sections holds the decoded intake answers; undecodable JSON is dropped
// rather than erroring, matching how partial intakes are tolerated elsewhere.
type Snapshot struct {
	Project     model.Project
	Client      model.User
	Onboarding  *model.OnboardingResponse
	Sections    map[string]map[string]interface{}
	GeneratedAt time.Time
}

// BuildSnapshot decodes the six sections and freezes the generation time.
func BuildSnapshot(project model.Project, client model.User, response *model.OnboardingResponse, now time.Time) Snapshot {
	sections := make(map[string]map[string]interface{})
	if response != nil {
		for _, name := range model.SectionNames() {
			raw := response.Section(name)
			if len(raw) == 0 {
				continue
			}
			var decoded map[string]interface{}
			if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
				continue
			}
			sections[name] = decoded
		}
	}
	return Snapshot{
		Project:     project,
		Client:      client,
		Onboarding:  response,
		Sections:    sections,
		GeneratedAt: now,
	}
}

// Render produces the requested format.
func (s Snapshot) Render(format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return s.CSV()
	case FormatText:
		return s.Text()
	default:
		return s.JSON()
	}
}

// JSON renders the full nested snapshot.
func (s Snapshot) JSON() ([]byte, error) {
	type projectBlock struct {
		ID              uint   `json:"id"`
		Nombre          string `json:"nombre"`
		Estado          string `json:"estado"`
		Progreso        int    `json:"progreso"`
		FaseActual      string `json:"fase_actual"`
		EntregaEstimada string `json:"entrega_estimada"`
		Plan            string `json:"plan"`
	}
	type clientBlock struct {
		ID       uint   `json:"id"`
		Nombre   string `json:"nombre"`
		Email    string `json:"email"`
		Telefono string `json:"telefono,omitempty"`
		Empresa  string `json:"empresa,omitempty"`
	}
	type onboardingBlock struct {
		Estado           string     `json:"estado"`
		PasosCompletados []int      `json:"pasos_completados"`
		Enviado          *time.Time `json:"enviado,omitempty"`
	}

	out := struct {
		Proyecto   projectBlock                      `json:"proyecto"`
		Cliente    clientBlock                       `json:"cliente"`
		Onboarding onboardingBlock                   `json:"onboarding"`
		Respuestas map[string]map[string]interface{} `json:"respuestas"`
		GeneradoEl time.Time                         `json:"generado_el"`
	}{
		Proyecto: projectBlock{
			ID:              s.Project.ID,
			Nombre:          s.Project.Name,
			Estado:          string(s.Project.Status),
			Progreso:        s.Project.Progress,
			FaseActual:      s.Project.CurrentPhase,
			EntregaEstimada: s.Project.EstimatedDelivery,
			Plan:            string(s.Project.Plan),
		},
		Cliente: clientBlock{
			ID:       s.Client.ID,
			Nombre:   s.Client.Name,
			Email:    s.Client.Email,
			Telefono: s.Client.Phone,
			Empresa:  s.Client.Company,
		},
		Respuestas: s.Sections,
		GeneradoEl: s.GeneratedAt,
	}
	if s.Onboarding != nil {
		out.Onboarding = onboardingBlock{
			Estado:           string(s.Onboarding.Status),
			PasosCompletados: s.Onboarding.Steps(),
			Enviado:          s.Onboarding.SubmittedAt,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// csvField pairs a section key with its report label.
type csvField struct {
	Key   string
	Label string
}

// Curated CSV subset: project summary, client contact, and the business,
// objectives and brand-design answers. Intentionally partial, not a full dump.
var csvSections = []struct {
	Category string
	Section  string
	Fields   []csvField
}{
	{"Negocio", model.SectionBusinessInfo, []csvField{
		{"businessName", "Nombre del negocio"},
		{"industry", "Industria"},
		{"businessDescription", "Descripción"},
		{"targetLocation", "Ubicación"},
	}},
	{"Objetivos", model.SectionObjectives, []csvField{
		{"primaryGoal", "Objetivo principal"},
		{"targetAudience", "Audiencia objetivo"},
		{"competitors", "Competidores"},
		{"valueProposition", "Propuesta de valor"},
	}},
	{"Diseño", model.SectionBrandDesign, []csvField{
		{"stylePreference", "Estilo visual"},
		{"colorPalette", "Paleta de colores"},
		{"hasLogo", "Cuenta con logo"},
		{"references", "Referencias"},
	}},
}

// CSV renders flat Categoría,Campo,Valor rows.
func (s Snapshot) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Categoría", "Campo", "Valor"},
		{"Proyecto", "Nombre", orNA(s.Project.Name)},
		{"Proyecto", "Estado", string(s.Project.Status)},
		{"Proyecto", "Progreso", fmt.Sprintf("%d%%", s.Project.Progress)},
		{"Proyecto", "Plan", string(s.Project.Plan)},
		{"Proyecto", "Fase actual", orNA(s.Project.CurrentPhase)},
		{"Proyecto", "Entrega estimada", orNA(s.Project.EstimatedDelivery)},
		{"Cliente", "Nombre", orNA(s.Client.Name)},
		{"Cliente", "Email", orNA(s.Client.Email)},
		{"Cliente", "Teléfono", orNA(s.Client.Phone)},
		{"Cliente", "Empresa", orNA(s.Client.Company)},
	}

	for _, spec := range csvSections {
		section, ok := s.Sections[spec.Section]
		if !ok {
			continue
		}
		for _, field := range spec.Fields {
			rows = append(rows, []string{spec.Category, field.Label, formatValue(section[field.Key])})
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Section titles and known field labels for the text report, in order.
var textSections = []struct {
	Title   string
	Section string
	Fields  []csvField
}{
	{"INFORMACIÓN DEL NEGOCIO", model.SectionBusinessInfo, []csvField{
		{"businessName", "Nombre del negocio"},
		{"industry", "Industria"},
		{"businessDescription", "Descripción"},
		{"targetLocation", "Ubicación"},
	}},
	{"OBJETIVOS Y AUDIENCIA", model.SectionObjectives, []csvField{
		{"primaryGoal", "Objetivo principal"},
		{"targetAudience", "Audiencia objetivo"},
		{"competitors", "Competidores"},
		{"valueProposition", "Propuesta de valor"},
	}},
	{"CONTENIDO Y ESTRUCTURA", model.SectionContentArchitecture, []csvField{
		{"pages", "Páginas"},
		{"sections", "Secciones"},
		{"contentReady", "Contenido listo"},
	}},
	{"IDENTIDAD VISUAL", model.SectionBrandDesign, []csvField{
		{"stylePreference", "Estilo visual"},
		{"colorPalette", "Paleta de colores"},
		{"hasLogo", "Cuenta con logo"},
		{"references", "Referencias"},
	}},
	{"CONFIGURACIÓN TÉCNICA", model.SectionTechnicalSetup, []csvField{
		{"domain", "Dominio"},
		{"hasDomain", "Cuenta con dominio"},
		{"hosting", "Hosting"},
		{"integrations", "Integraciones"},
	}},
	{"PLANIFICACIÓN DEL PROYECTO", model.SectionProjectPlanning, []csvField{
		{"launchDate", "Fecha de lanzamiento"},
		{"priority", "Prioridad"},
		{"additionalNotes", "Notas adicionales"},
	}},
}

// Text renders the human-readable report. Sections without data are skipped
// entirely; within a rendered section, a known field missing its answer shows
// as N/A and any extra answers are appended under their raw keys.
func (s Snapshot) Text() ([]byte, error) {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	subRule := strings.Repeat("-", 40)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "REPORTE DE PROYECTO: %s\n", s.Project.Name)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "PROYECTO")
	fmt.Fprintln(&b, subRule)
	fmt.Fprintf(&b, "Nombre: %s\n", orNA(s.Project.Name))
	fmt.Fprintf(&b, "Estado: %s\n", s.Project.Status)
	fmt.Fprintf(&b, "Progreso: %d%%\n", s.Project.Progress)
	fmt.Fprintf(&b, "Plan: %s\n", s.Project.Plan)
	fmt.Fprintf(&b, "Fase actual: %s\n", orNA(s.Project.CurrentPhase))
	fmt.Fprintf(&b, "Entrega estimada: %s\n", orNA(s.Project.EstimatedDelivery))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "CLIENTE")
	fmt.Fprintln(&b, subRule)
	fmt.Fprintf(&b, "Nombre: %s\n", orNA(s.Client.Name))
	fmt.Fprintf(&b, "Email: %s\n", orNA(s.Client.Email))
	fmt.Fprintf(&b, "Teléfono: %s\n", orNA(s.Client.Phone))
	fmt.Fprintf(&b, "Empresa: %s\n", orNA(s.Client.Company))
	fmt.Fprintln(&b)

	for _, spec := range textSections {
		section, ok := s.Sections[spec.Section]
		if !ok {
			continue
		}
		fmt.Fprintln(&b, spec.Title)
		fmt.Fprintln(&b, subRule)

		known := make(map[string]bool, len(spec.Fields))
		for _, field := range spec.Fields {
			known[field.Key] = true
			fmt.Fprintf(&b, "%s: %s\n", field.Label, formatValue(section[field.Key]))
		}

		extras := make([]string, 0, len(section))
		for key := range section {
			if !known[key] {
				extras = append(extras, key)
			}
		}
		sort.Strings(extras)
		for _, key := range extras {
			fmt.Fprintf(&b, "%s: %s\n", key, formatValue(section[key]))
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Generado: %s\n", s.GeneratedAt.Format("2006-01-02 15:04"))
	return []byte(b.String()), nil
}

// Filename builds the download filename embedding the project name and date.
func Filename(projectName string, format Format, now time.Time) string {
	return fmt.Sprintf("onboarding-%s-%s.%s", slugify(projectName), now.Format("2006-01-02"), format)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// formatValue renders an intake answer: arrays joined with ", ", booleans as
// Sí/No, missing values as N/A.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case string:
		return orNA(val)
	case bool:
		if val {
			return "Sí"
		}
		return "No"
	case []interface{}:
		if len(val) == 0 {
			return "N/A"
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case map[string]interface{}:
		encoded, err := json.Marshal(val)
		if err != nil {
			return "N/A"
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
