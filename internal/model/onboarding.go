package model

import (
	"encoding/json"
	"sort"
	"time"
)

// OnboardingStatus tracks how far a client has taken the intake questionnaire.
type OnboardingStatus string

const (
	OnboardingPending    OnboardingStatus = "PENDING"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

// Section names accepted by the onboarding update endpoint, in report order.
const (
	SectionBusinessInfo        = "businessInfo"
	SectionObjectives          = "objectives"
	SectionContentArchitecture = "contentArchitecture"
	SectionBrandDesign         = "brandDesign"
	SectionTechnicalSetup      = "technicalSetup"
	SectionProjectPlanning     = "projectPlanning"
)

// SectionNames returns the six section names in canonical order.
func SectionNames() []string {
	return []string{
		SectionBusinessInfo,
		SectionObjectives,
		SectionContentArchitecture,
		SectionBrandDesign,
		SectionTechnicalSetup,
		SectionProjectPlanning,
	}
}

// OnboardingResponse is the durable one-to-one intake record for a project.
// Sections are stored as raw JSON exactly as submitted; decoding happens only
// at export time.
type OnboardingResponse struct {
	ID                  uint             `json:"id" gorm:"primaryKey"`
	ProjectID           uint             `json:"project_id" gorm:"uniqueIndex;not null"`
	BusinessInfo        json.RawMessage  `json:"business_info,omitempty" gorm:"type:json"`
	Objectives          json.RawMessage  `json:"objectives,omitempty" gorm:"type:json"`
	ContentArchitecture json.RawMessage  `json:"content_architecture,omitempty" gorm:"type:json"`
	BrandDesign         json.RawMessage  `json:"brand_design,omitempty" gorm:"type:json"`
	TechnicalSetup      json.RawMessage  `json:"technical_setup,omitempty" gorm:"type:json"`
	ProjectPlanning     json.RawMessage  `json:"project_planning,omitempty" gorm:"type:json"`
	CompletedSteps      json.RawMessage  `json:"completed_steps" gorm:"type:json"`
	Status              OnboardingStatus `json:"status" gorm:"type:varchar(15);not null;default:'PENDING'"`
	SubmittedAt         *time.Time       `json:"submitted_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID"`
}

// Steps decodes the completed-step set. An empty or undecodable column yields
// an empty slice.
func (o *OnboardingResponse) Steps() []int {
	if len(o.CompletedSteps) == 0 {
		return nil
	}
	var steps []int
	if err := json.Unmarshal(o.CompletedSteps, &steps); err != nil {
		return nil
	}
	return steps
}

// SetSteps stores the step set deduplicated and sorted.
func (o *OnboardingResponse) SetSteps(steps []int) {
	seen := make(map[int]bool, len(steps))
	unique := make([]int, 0, len(steps))
	for _, s := range steps {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	sort.Ints(unique)
	encoded, _ := json.Marshal(unique)
	o.CompletedSteps = encoded
}

// Section returns the raw JSON for a named section, nil for unknown names.
func (o *OnboardingResponse) Section(name string) json.RawMessage {
	switch name {
	case SectionBusinessInfo:
		return o.BusinessInfo
	case SectionObjectives:
		return o.Objectives
	case SectionContentArchitecture:
		return o.ContentArchitecture
	case SectionBrandDesign:
		return o.BrandDesign
	case SectionTechnicalSetup:
		return o.TechnicalSetup
	case SectionProjectPlanning:
		return o.ProjectPlanning
	}
	return nil
}

// SetSection overwrites the raw JSON of a named section. Unknown names are
// ignored so stale clients cannot grow the schema.
func (o *OnboardingResponse) SetSection(name string, data json.RawMessage) {
	switch name {
	case SectionBusinessInfo:
		o.BusinessInfo = data
	case SectionObjectives:
		o.Objectives = data
	case SectionContentArchitecture:
		o.ContentArchitecture = data
	case SectionBrandDesign:
		o.BrandDesign = data
	case SectionTechnicalSetup:
		o.TechnicalSetup = data
	case SectionProjectPlanning:
		o.ProjectPlanning = data
	}
}
