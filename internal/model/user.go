package model

import "time"

// UserRole gates access to the admin back-office.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User represents a client or operator account. Clients are usually created
// by the billing webhook on first successful payment; the password hash stays
// empty until the one-time login token is exchanged.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(10);not null;default:'USER';index"`
	Phone        string    `json:"phone,omitempty" gorm:"size:50"`
	Company      string    `json:"company,omitempty" gorm:"size:255"`
	PasswordHash string    `json:"-" gorm:"size:255"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Projects []Project `json:"-" gorm:"foreignKey:UserID"`
}
