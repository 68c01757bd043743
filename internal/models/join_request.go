package models

import "time"

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "PENDING"
	JoinRequestStatusAccepted JoinRequestStatus = "ACCEPTED"
	JoinRequestStatusDeclined JoinRequestStatus = "DECLINED"
)

// JoinRequest is a stateful proposal by a non-member to join a team. Request
// identity is per (team, user): resubmitting after a decline reopens the same
// row instead of creating a second one, which the unique index guarantees.
type JoinRequest struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	TeamID      uint              `gorm:"not null;uniqueIndex:idx_join_requests_team_user" json:"team_id"`
	UserID      string            `gorm:"not null;uniqueIndex:idx_join_requests_team_user" json:"user_id"`
	DesiredRole string            `json:"desired_role"`
	Status      JoinRequestStatus `gorm:"not null;default:PENDING" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Team        *Team             `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	User        *User             `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// Resolved reports whether the request reached a terminal state.
func (r *JoinRequest) Resolved() bool {
	return r.Status == JoinRequestStatusAccepted || r.Status == JoinRequestStatusDeclined
}
