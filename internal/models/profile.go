package models

import (
	"time"

	"github.com/diewo77/go-school/gate"
	"gorm.io/gorm"
)

// Profile attaches a role and an approval state to a user.
type Profile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FullName  string         `gorm:"size:255" json:"full_name"`
	// Role is stored as text; values outside the known set read as unknown.
	Role       string     `gorm:"size:32;not null;index" json:"role"`
	IsApproved bool       `gorm:"not null;default:false;index" json:"is_approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy *uint      `json:"approved_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
}

// Pending reports whether the profile awaits a decision.
func (p *Profile) Pending() bool {
	return !p.IsApproved && p.RejectedAt == nil
}

// Gate converts the row into the value the route gates consult.
func (p *Profile) Gate() gate.Profile {
	return gate.Profile{
		UserID:   p.UserID,
		FullName: p.FullName,
		Role:     gate.ParseRole(p.Role),
		Approved: p.IsApproved,
	}
}
