package models

import (
	"gorm.io/gorm"
)

// Team is the authoritative record of a team inside a hackathon. The leader
// is set at creation and never changes; the only way out of leadership is
// deleting the team.
type Team struct {
	gorm.Model
	HackathonID      uint         `gorm:"not null;index" json:"hackathon_id" validate:"required"`
	LeaderID         string       `gorm:"not null" json:"leader_id"`
	Name             string       `gorm:"not null" json:"name" validate:"required"`
	Bio              string       `json:"bio"`
	RolesRequired    []string     `gorm:"serializer:json" json:"roles_required"`
	Public           bool         `gorm:"default:true" json:"public"`
	ProjectName      string       `json:"project_name"`
	ProblemStatement string       `json:"problem_statement"`
	ProjectLink      string       `json:"project_link"`
	Members          []Membership `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Attachments      []Attachment `gorm:"foreignKey:TeamID" json:"attachments,omitempty"`
}

// IsMember reports whether the given user appears in the loaded member list.
// Members must be preloaded for this to be meaningful.
func (t *Team) IsMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
