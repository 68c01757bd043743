package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"hackmate-backend/internal/models"
	"hackmate-backend/internal/notifications"
	"hackmate-backend/internal/teams"

	"github.com/labstack/echo/v4"
)

func teamIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid team id")
	}
	return uint(id), nil
}

type CreateTeamRequest struct {
	HackathonID      uint     `json:"hackathon_id" validate:"required"`
	Name             string   `json:"name" validate:"required"`
	Bio              string   `json:"bio"`
	RolesRequired    []string `json:"roles_required"`
	Public           *bool    `json:"public"`
	ProjectName      string   `json:"project_name"`
	ProblemStatement string   `json:"problem_statement"`
	ProjectLink      string   `json:"project_link"`
}

func (h *AuthHandler) CreateTeam(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	req := new(CreateTeamRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	public := true
	if req.Public != nil {
		public = *req.Public
	}

	team, err := h.Teams.CreateTeam(req.HackathonID, user.ID, teams.CreateTeamParams{
		Name:             req.Name,
		Bio:              req.Bio,
		RolesRequired:    req.RolesRequired,
		Public:           public,
		ProjectName:      req.ProjectName,
		ProblemStatement: req.ProblemStatement,
		ProjectLink:      req.ProjectLink,
	})
	if err != nil {
		return engineError(err)
	}

	_ = notifications.SendTelegramNotification(fmt.Sprintf("New team %q in hackathon %d", team.Name, team.HackathonID), h.Config)

	return c.JSON(http.StatusCreated, team)
}

func (h *AuthHandler) GetTeam(c echo.Context) error {
	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	team, err := h.Teams.GetTeam(id, h.optionalCaller(c))
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, team)
}

func (h *AuthHandler) ListHackathonTeams(c echo.Context) error {
	hackathonID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid hackathon id")
	}

	list, err := h.Teams.ListTeams(uint(hackathonID), h.optionalCaller(c))
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AuthHandler) UpdateTeam(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	patch := new(teams.TeamPatch)
	if err := c.Bind(patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	team, err := h.Teams.UpdateTeam(id, user.ID, *patch)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, team)
}

func (h *AuthHandler) DeleteTeam(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	if err := h.Teams.DeleteTeam(id, teams.Caller{UserID: user.ID, Role: user.Role}); err != nil {
		return engineError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// InviteMember adds an existing user straight onto the roster, leader only.
func (h *AuthHandler) InviteMember(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	type InviteRequest struct {
		Email string `json:"email" validate:"required,email"`
		Role  string `json:"role"`
	}

	req := new(InviteRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	target, err := models.GetUserByEmail(h.DB, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "No user with this email")
	}

	membership, err := h.Teams.Invite(id, user.ID, target.ID, req.Role)
	if err != nil {
		return engineError(err)
	}

	if h.EmailClient != nil {
		team, teamErr := h.Teams.GetTeam(id, &teams.Caller{UserID: user.ID, Role: user.Role})
		if teamErr == nil {
			h.EmailClient.SendTeamInviteEmail(user.GetDisplayName(), team.Name, target.Email)
		}
	}

	return c.JSON(http.StatusCreated, membership)
}

func (h *AuthHandler) SubmitJoinRequest(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	allowed, err := h.allowJoinSubmission(c, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check submission limit")
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusTooManyRequests, "You have reached the daily join request limit")
	}

	type JoinRequestBody struct {
		DesiredRole string `json:"desired_role"`
	}

	req := new(JoinRequestBody)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, created, err := h.Teams.SubmitJoin(id, user.ID, req.DesiredRole)
	if err != nil {
		return engineError(err)
	}

	// Distinguish a fresh submission from an idempotent or reopened one
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, request)
}

// PendingJoinRequests lists PENDING requests across all teams the caller
// leads, most recent first.
func (h *AuthHandler) PendingJoinRequests(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	requests, err := h.Teams.PendingForLeader(user.ID)
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

func (h *AuthHandler) RespondJoinRequest(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	type RespondRequest struct {
		Action string `json:"action" validate:"required,oneof=accept decline"`
	}

	req := new(RespondRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := h.Teams.Respond(uint(requestID), user.ID, req.Action == "accept")
	if err != nil {
		return engineError(err)
	}
	return c.JSON(http.StatusOK, request)
}

func (h *AuthHandler) LeaveTeam(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	if err := h.Teams.Leave(id, user.ID); err != nil {
		return engineError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadTeamAttachments accepts one or more files under the "files" form
// field and appends them to the team's attachment sequence.
func (h *AuthHandler) UploadTeamAttachments(c echo.Context) error {
	user, isAuthenticated := h.getAuthenticatedUserFromJWT(c)
	if !isAuthenticated {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	id, err := teamIDParam(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No files provided")
	}

	kind := c.FormValue("kind")
	if kind == "" {
		kind = "document"
	}

	uploads := make([]teams.Upload, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to open uploaded file")
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
		}
		uploads = append(uploads, teams.Upload{Filename: fileHeader.Filename, Content: content})
	}

	attachments, err := h.Teams.UploadAttachments(c.Request().Context(), id, user.ID, kind, uploads)
	if err != nil {
		if teams.KindOf(err) == teams.KindUnknown {
			c.Logger().Error("Attachment upload failed:", err)
			return echo.NewHTTPError(http.StatusBadGateway, "Failed to store attachments")
		}
		return engineError(err)
	}

	return c.JSON(http.StatusCreated, attachments)
}
