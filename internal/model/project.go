package model

import "time"

// ProjectStatus represents the lifecycle state of a client engagement.
type ProjectStatus string

const (
	StatusEnDesarrollo    ProjectStatus = "EN_DESARROLLO"
	StatusEnRevision      ProjectStatus = "EN_REVISION"
	StatusCompletado      ProjectStatus = "COMPLETADO"
	StatusEnActualizacion ProjectStatus = "EN_ACTUALIZACION"
	StatusEnMantenimiento ProjectStatus = "EN_MANTENIMIENTO"
)

// ValidStatus reports whether s is a known project status.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusEnDesarrollo, StatusEnRevision, StatusCompletado, StatusEnActualizacion, StatusEnMantenimiento:
		return true
	}
	return false
}

// ActiveStatuses are the states swept by subscription cancellation and
// payment-failure annotations. COMPLETADO and EN_MANTENIMIENTO are untouched.
func ActiveStatuses() []ProjectStatus {
	return []ProjectStatus{StatusEnDesarrollo, StatusEnRevision, StatusEnActualizacion}
}

// PlanType is the commercial tier of a project.
type PlanType string

const (
	PlanRocket PlanType = "Rocket"
	PlanGalaxy PlanType = "Galaxy"
)

// ValidPlan reports whether p is a known plan.
func ValidPlan(p PlanType) bool {
	return p == PlanRocket || p == PlanGalaxy
}

// Project represents one client website engagement.
type Project struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	Name              string        `json:"name" gorm:"size:255;not null"`
	UserID            uint          `json:"user_id" gorm:"not null;index"`
	Status            ProjectStatus `json:"status" gorm:"type:varchar(20);not null;default:'EN_DESARROLLO';index"`
	Progress          int           `json:"progress" gorm:"not null;default:0"`
	CurrentPhase      string        `json:"current_phase" gorm:"size:255"`
	EstimatedDelivery string        `json:"estimated_delivery" gorm:"size:100"`
	Plan              PlanType      `json:"plan" gorm:"type:varchar(10);not null;default:'Rocket';index"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
