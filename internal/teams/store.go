package teams

import (
	"hackmate-backend/internal/models"
)

// Store is the persistence surface the workflow engine runs against. The
// engine composes these calls inside Atomically; implementations must make
// each Atomically block all-or-nothing.
//
// Lookups return gorm.ErrRecordNotFound when the row is absent, and writes
// that hit the (hackathon, user) or (team, user) unique indexes return
// gorm.ErrDuplicatedKey, whichever backend is behind the interface.
type Store interface {
	// Atomically runs fn against a transaction-scoped view of the store.
	// If fn returns an error every change it made is rolled back.
	Atomically(fn func(tx Store) error) error

	CreateTeam(team *models.Team) error
	// GetTeamByID loads a team with its members and attachments.
	GetTeamByID(id uint) (*models.Team, error)
	SaveTeam(team *models.Team) error
	DeleteTeam(id uint) error
	TeamsByHackathon(hackathonID uint) ([]models.Team, error)
	TeamsLedBy(userID string) ([]models.Team, error)

	AddMembership(m *models.Membership) error
	GetMembership(teamID uint, userID string) (*models.Membership, error)
	// MembershipInHackathon finds the membership (if any) a user holds in
	// any team of the given hackathon. Leaders always hold one, so this is
	// the whole exclusivity check.
	MembershipInHackathon(hackathonID uint, userID string) (*models.Membership, error)
	DeleteMembership(teamID uint, userID string) error
	DeleteMembershipsForTeam(teamID uint) error

	CreateJoinRequest(r *models.JoinRequest) error
	GetJoinRequestByID(id uint) (*models.JoinRequest, error)
	GetJoinRequestForUser(teamID uint, userID string) (*models.JoinRequest, error)
	SaveJoinRequest(r *models.JoinRequest) error
	// PendingRequestsForTeams returns PENDING requests for the given teams,
	// most recently touched first.
	PendingRequestsForTeams(teamIDs []uint) ([]models.JoinRequest, error)
	DeleteJoinRequestsForTeam(teamID uint) error

	AddAttachments(attachments []models.Attachment) error
}
