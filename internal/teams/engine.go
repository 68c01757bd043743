package teams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hackmate-backend/internal/assets"
	"hackmate-backend/internal/models"

	"gorm.io/gorm"
)

// Engine orchestrates the team formation workflow: team lifecycle, the
// one-team-per-hackathon exclusivity rule, and the join request state
// machine. Every multi-step mutation runs inside a single Atomically block
// so a half-created team or a dangling membership is never observable.
type Engine struct {
	store  Store
	assets assets.Store
}

func NewEngine(store Store, assetStore assets.Store) *Engine {
	return &Engine{store: store, assets: assetStore}
}

// Caller identifies an authenticated user to the engine. A nil *Caller on
// the read paths means anonymous.
type Caller struct {
	UserID string
	Role   string
}

func (c *Caller) privileged() bool {
	return c != nil && (c.Role == models.RoleAdmin || c.Role == models.RoleHost)
}

// CreateTeamParams carries the fields a user supplies when forming a team.
type CreateTeamParams struct {
	Name             string
	Bio              string
	RolesRequired    []string
	Public           bool
	ProjectName      string
	ProblemStatement string
	ProjectLink      string
}

// TeamPatch is a partial update: nil fields are left untouched.
type TeamPatch struct {
	Name             *string   `json:"name"`
	Bio              *string   `json:"bio"`
	RolesRequired    *[]string `json:"roles_required"`
	Public           *bool     `json:"public"`
	ProjectName      *string   `json:"project_name"`
	ProblemStatement *string   `json:"problem_statement"`
	ProjectLink      *string   `json:"project_link"`
}

// CreateTeam forms a new team led by leaderID. The team row and the Leader
// membership commit together or not at all.
func (e *Engine) CreateTeam(hackathonID uint, leaderID string, params CreateTeamParams) (*models.Team, error) {
	if params.Name == "" {
		return nil, &Error{Kind: KindValidation, Message: "team name is required"}
	}

	team := &models.Team{
		HackathonID:      hackathonID,
		LeaderID:         leaderID,
		Name:             params.Name,
		Bio:              params.Bio,
		RolesRequired:    params.RolesRequired,
		Public:           params.Public,
		ProjectName:      params.ProjectName,
		ProblemStatement: params.ProblemStatement,
		ProjectLink:      params.ProjectLink,
	}

	err := e.store.Atomically(func(tx Store) error {
		if err := e.checkExclusive(tx, hackathonID, leaderID); err != nil {
			return err
		}
		if err := tx.CreateTeam(team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		m := &models.Membership{
			TeamID:      team.ID,
			HackathonID: hackathonID,
			UserID:      leaderID,
			Role:        models.MemberRoleLeader,
		}
		if err := tx.AddMembership(m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictf("user already belongs to a team in this hackathon")
			}
			return fmt.Errorf("failed to create leader membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return e.store.GetTeamByID(team.ID)
}

// UpdateTeam applies a partial patch to a team's descriptive metadata. Any
// current member may edit; roster decisions stay with the leader.
func (e *Engine) UpdateTeam(teamID uint, callerID string, patch TeamPatch) (*models.Team, error) {
	err := e.store.Atomically(func(tx Store) error {
		team, err := tx.GetTeamByID(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("team %d not found", teamID)
			}
			return err
		}
		if _, err := tx.GetMembership(teamID, callerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return forbiddenf("only team members may update the team")
			}
			return err
		}

		if patch.Name != nil {
			if *patch.Name == "" {
				return &Error{Kind: KindValidation, Message: "team name cannot be empty"}
			}
			team.Name = *patch.Name
		}
		if patch.Bio != nil {
			team.Bio = *patch.Bio
		}
		if patch.RolesRequired != nil {
			team.RolesRequired = *patch.RolesRequired
		}
		if patch.Public != nil {
			team.Public = *patch.Public
		}
		if patch.ProjectName != nil {
			team.ProjectName = *patch.ProjectName
		}
		if patch.ProblemStatement != nil {
			team.ProblemStatement = *patch.ProblemStatement
		}
		if patch.ProjectLink != nil {
			team.ProjectLink = *patch.ProjectLink
		}

		return tx.SaveTeam(team)
	})
	if err != nil {
		return nil, err
	}
	return e.store.GetTeamByID(teamID)
}

// GetTeam fetches a team with its roster. Private teams are visible to
// members and privileged callers only; anyone may view a public team, so an
// absent or invalid credential is fine here.
func (e *Engine) GetTeam(teamID uint, caller *Caller) (*models.Team, error) {
	team, err := e.store.GetTeamByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("team %d not found", teamID)
		}
		return nil, err
	}

	if !team.Public && !e.canViewPrivate(team, caller) {
		return nil, forbiddenf("this team is private")
	}
	return team, nil
}

// ListTeams returns the teams of a hackathon, newest first. Private teams
// are filtered out unless the caller is on their roster or privileged.
func (e *Engine) ListTeams(hackathonID uint, caller *Caller) ([]models.Team, error) {
	teams, err := e.store.TeamsByHackathon(hackathonID)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Team, 0, len(teams))
	for i := range teams {
		if teams[i].Public || e.canViewPrivate(&teams[i], caller) {
			visible = append(visible, teams[i])
		}
	}
	return visible, nil
}

// DeleteTeam removes a team and everything hanging off it: join requests
// first, then memberships, then the team row itself.
func (e *Engine) DeleteTeam(teamID uint, caller Caller) error {
	return e.store.Atomically(func(tx Store) error {
		team, err := tx.GetTeamByID(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("team %d not found", teamID)
			}
			return err
		}
		if team.LeaderID != caller.UserID && caller.Role != models.RoleAdmin {
			return forbiddenf("only the team leader or an admin may delete the team")
		}

		if err := tx.DeleteJoinRequestsForTeam(teamID); err != nil {
			return fmt.Errorf("failed to delete join requests: %w", err)
		}
		if err := tx.DeleteMembershipsForTeam(teamID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := tx.DeleteTeam(teamID); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		return nil
	})
}

// Invite adds a user straight onto the roster, bypassing the request queue.
// Leader only. The exclusivity rule applies here just like on accept; a
// leader cannot pull someone out of another team by inviting them.
func (e *Engine) Invite(teamID uint, inviterID, targetUserID, role string) (*models.Membership, error) {
	if role == "" {
		role = "Member"
	}
	if role == models.MemberRoleLeader {
		return nil, &Error{Kind: KindValidation, Message: `role "Leader" is reserved`}
	}

	m := &models.Membership{TeamID: teamID, UserID: targetUserID, Role: role}

	err := e.store.Atomically(func(tx Store) error {
		team, err := tx.GetTeamByID(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("team %d not found", teamID)
			}
			return err
		}
		if team.LeaderID != inviterID {
			return forbiddenf("only the team leader may invite members")
		}

		if err := e.checkExclusive(tx, team.HackathonID, targetUserID); err != nil {
			return err
		}

		m.HackathonID = team.HackathonID
		if err := tx.AddMembership(m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictf("user already belongs to a team in this hackathon")
			}
			return fmt.Errorf("failed to create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SubmitJoin records a join request for a team. While a request is PENDING
// resubmission is a no-op returning the same request; a resolved request is
// reactivated in place. The returned bool is true when the request row was
// newly created.
func (e *Engine) SubmitJoin(teamID uint, userID, desiredRole string) (*models.JoinRequest, bool, error) {
	var (
		request *models.JoinRequest
		created bool
	)

	err := e.store.Atomically(func(tx Store) error {
		team, err := tx.GetTeamByID(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("team %d not found", teamID)
			}
			return err
		}
		if team.LeaderID == userID {
			return invalidf("the team leader cannot request to join their own team")
		}
		if err := e.checkExclusive(tx, team.HackathonID, userID); err != nil {
			return err
		}

		existing, err := tx.GetJoinRequestForUser(teamID, userID)
		switch {
		case err == nil && existing.Status == models.JoinRequestStatusPending:
			// Idempotent resubmission while still pending.
			request = existing
			return nil
		case err == nil:
			// Reopen the resolved request rather than creating a duplicate.
			existing.Status = models.JoinRequestStatusPending
			if desiredRole != "" {
				existing.DesiredRole = desiredRole
			}
			if err := tx.SaveJoinRequest(existing); err != nil {
				return fmt.Errorf("failed to reactivate join request: %w", err)
			}
			request = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			request = &models.JoinRequest{
				TeamID:      teamID,
				UserID:      userID,
				DesiredRole: desiredRole,
				Status:      models.JoinRequestStatusPending,
			}
			if err := tx.CreateJoinRequest(request); err != nil {
				return fmt.Errorf("failed to create join request: %w", err)
			}
			created = true
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	return request, created, nil
}

// PendingForLeader returns all PENDING requests across every team the user
// leads, most recently submitted first.
func (e *Engine) PendingForLeader(leaderID string) ([]models.JoinRequest, error) {
	led, err := e.store.TeamsLedBy(leaderID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(led))
	for i, t := range led {
		ids[i] = t.ID
	}
	return e.store.PendingRequestsForTeams(ids)
}

// Respond resolves a pending request. Decline only flips the status. Accept
// re-checks exclusivity in the same transaction that inserts the membership:
// submission and resolution are decoupled in time, so the requester may have
// committed to another team in between. In that case the request is left
// DECLINED and the caller sees a Conflict, never a silent success.
func (e *Engine) Respond(requestID uint, leaderID string, accept bool) (*models.JoinRequest, error) {
	var (
		request      *models.JoinRequest
		lostToRace   bool
		duplicateKey bool
	)
	conflictErr := conflictf("requester already belongs to a team in this hackathon")

	err := e.store.Atomically(func(tx Store) error {
		var err error
		request, err = tx.GetJoinRequestByID(requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("join request %d not found", requestID)
			}
			return err
		}

		team, err := tx.GetTeamByID(request.TeamID)
		if err != nil {
			return fmt.Errorf("failed to load team for request: %w", err)
		}
		if team.LeaderID != leaderID {
			return forbiddenf("only the team leader may respond to join requests")
		}
		if request.Status != models.JoinRequestStatusPending {
			return invalidf("join request is already %s", request.Status)
		}

		if !accept {
			request.Status = models.JoinRequestStatusDeclined
			return tx.SaveJoinRequest(request)
		}

		if _, err := tx.MembershipInHackathon(team.HackathonID, request.UserID); err == nil {
			// The requester joined elsewhere between submission and now.
			// Commit the decline and report the conflict after the tx.
			lostToRace = true
			request.Status = models.JoinRequestStatusDeclined
			return tx.SaveJoinRequest(request)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		role := request.DesiredRole
		if role == "" || role == models.MemberRoleLeader {
			role = "Member"
		}
		m := &models.Membership{
			TeamID:      team.ID,
			HackathonID: team.HackathonID,
			UserID:      request.UserID,
			Role:        role,
		}
		if err := tx.AddMembership(m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent accept won the unique index. The insert broke
				// this transaction, so the decline is committed separately.
				duplicateKey = true
				return conflictErr
			}
			return fmt.Errorf("failed to create membership: %w", err)
		}

		request.Status = models.JoinRequestStatusAccepted
		return tx.SaveJoinRequest(request)
	})

	if duplicateKey {
		if declineErr := e.declineRequest(requestID); declineErr != nil {
			return nil, fmt.Errorf("failed to decline conflicting request: %w", declineErr)
		}
		request.Status = models.JoinRequestStatusDeclined
		return request, conflictErr
	}
	if err != nil {
		return nil, err
	}
	if lostToRace {
		return request, conflictErr
	}
	return request, nil
}

func (e *Engine) declineRequest(requestID uint) error {
	return e.store.Atomically(func(tx Store) error {
		request, err := tx.GetJoinRequestByID(requestID)
		if err != nil {
			return err
		}
		request.Status = models.JoinRequestStatusDeclined
		return tx.SaveJoinRequest(request)
	})
}

// Leave removes the caller's membership from a team. Leaders cannot leave;
// their way out is deleting the team.
func (e *Engine) Leave(teamID uint, userID string) error {
	return e.store.Atomically(func(tx Store) error {
		team, err := tx.GetTeamByID(teamID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("team %d not found", teamID)
			}
			return err
		}
		if _, err := tx.GetMembership(teamID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("user is not a member of this team")
			}
			return err
		}
		if team.LeaderID == userID {
			return invalidf("the leader cannot leave the team; delete it instead")
		}
		return tx.DeleteMembership(teamID, userID)
	})
}

// Upload is one file destined for the team's attachment sequence.
type Upload struct {
	Filename string
	Content  []byte
}

// UploadAttachments stores the files in the external asset store and appends
// the resulting descriptors to the team's attachment sequence. Existing
// attachments are never touched.
func (e *Engine) UploadAttachments(ctx context.Context, teamID uint, callerID, kind string, uploads []Upload) ([]models.Attachment, error) {
	team, err := e.store.GetTeamByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("team %d not found", teamID)
		}
		return nil, err
	}
	if _, err := e.store.GetMembership(teamID, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forbiddenf("only team members may upload attachments")
		}
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		url, err := e.assets.Store(ctx, assets.Upload{
			Filename: upload.Filename,
			Content:  upload.Content,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment %q: %w", upload.Filename, err)
		}
		attachments = append(attachments, models.Attachment{
			TeamID:     team.ID,
			Kind:       kind,
			URL:        url,
			Filename:   upload.Filename,
			UploadedAt: time.Now(),
			UploadedBy: callerID,
		})
	}

	if err := e.store.AddAttachments(attachments); err != nil {
		return nil, fmt.Errorf("failed to record attachments: %w", err)
	}
	return attachments, nil
}

// checkExclusive enforces the one-team-per-hackathon rule. Leaders always
// hold a Leader membership, so a single membership lookup covers both cases.
func (e *Engine) checkExclusive(tx Store, hackathonID uint, userID string) error {
	_, err := tx.MembershipInHackathon(hackathonID, userID)
	if err == nil {
		return conflictf("user already belongs to a team in this hackathon")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (e *Engine) canViewPrivate(team *models.Team, caller *Caller) bool {
	if caller == nil {
		return false
	}
	if caller.privileged() {
		return true
	}
	return team.IsMember(caller.UserID)
}
