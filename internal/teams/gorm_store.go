package teams

import (
	"hackmate-backend/internal/models"

	"gorm.io/gorm"
)

// GormStore is the production Store backed by a gorm DB. Atomically maps
// directly onto a database transaction, so the unique indexes on memberships
// and join requests do the final word on the exclusivity races.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomically(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateTeam(team *models.Team) error {
	return s.db.Create(team).Error
}

func (s *GormStore) GetTeamByID(id uint) (*models.Team, error) {
	var team models.Team
	err := s.db.
		Preload("Members").
		Preload("Members.User").
		Preload("Attachments").
		First(&team, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *GormStore) SaveTeam(team *models.Team) error {
	// Save with loaded associations would upsert member rows as a side
	// effect; restrict the write to the team's own columns.
	return s.db.Omit("Members", "Attachments").Save(team).Error
}

func (s *GormStore) DeleteTeam(id uint) error {
	return s.db.Delete(&models.Team{}, id).Error
}

func (s *GormStore) TeamsByHackathon(hackathonID uint) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.
		Preload("Members").
		Preload("Members.User").
		Where("hackathon_id = ?", hackathonID).
		Order("created_at DESC").
		Find(&teams).Error
	return teams, err
}

func (s *GormStore) TeamsLedBy(userID string) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.Where("leader_id = ?", userID).Find(&teams).Error
	return teams, err
}

func (s *GormStore) AddMembership(m *models.Membership) error {
	return s.db.Create(m).Error
}

func (s *GormStore) GetMembership(teamID uint, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) MembershipInHackathon(hackathonID uint, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Where("hackathon_id = ? AND user_id = ?", hackathonID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) DeleteMembership(teamID uint, userID string) error {
	return s.db.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.Membership{}).Error
}

func (s *GormStore) DeleteMembershipsForTeam(teamID uint) error {
	return s.db.Where("team_id = ?", teamID).Delete(&models.Membership{}).Error
}

func (s *GormStore) CreateJoinRequest(r *models.JoinRequest) error {
	return s.db.Create(r).Error
}

func (s *GormStore) GetJoinRequestByID(id uint) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := s.db.Preload("Team").First(&r, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) GetJoinRequestForUser(teamID uint, userID string) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) SaveJoinRequest(r *models.JoinRequest) error {
	return s.db.Omit("Team", "User").Save(r).Error
}

func (s *GormStore) PendingRequestsForTeams(teamIDs []uint) ([]models.JoinRequest, error) {
	if len(teamIDs) == 0 {
		return []models.JoinRequest{}, nil
	}
	var requests []models.JoinRequest
	err := s.db.
		Preload("Team").
		Preload("User").
		Where("team_id IN ? AND status = ?", teamIDs, models.JoinRequestStatusPending).
		Order("updated_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *GormStore) DeleteJoinRequestsForTeam(teamID uint) error {
	return s.db.Where("team_id = ?", teamID).Delete(&models.JoinRequest{}).Error
}

func (s *GormStore) AddAttachments(attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return s.db.Create(&attachments).Error
}
