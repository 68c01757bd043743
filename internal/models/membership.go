package models

import "time"

// MemberRoleLeader is reserved for the user who created the team.
const MemberRoleLeader = "Leader"

// Membership is a confirmed (team, user) pair. The hackathon id is
// denormalized from the team so the one-team-per-hackathon rule can be
// enforced with a unique index instead of an application-only check.
//
// No soft delete here: leaving a team has to actually free the slot for the
// unique index, not shadow it with a tombstone row.
type Membership struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	TeamID      uint      `gorm:"not null;index" json:"team_id"`
	HackathonID uint      `gorm:"not null;uniqueIndex:idx_memberships_hackathon_user" json:"hackathon_id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_memberships_hackathon_user" json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}
