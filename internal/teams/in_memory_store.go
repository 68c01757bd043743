package teams

import (
	"sort"
	"sync"
	"time"

	"hackmate-backend/internal/models"

	"gorm.io/gorm"
)

// InMemoryStore is a Store for tests. One mutex serializes every Atomically
// block, and a snapshot taken at the start of the block is restored when fn
// fails, giving the same all-or-nothing behavior as a database transaction.
//
// It returns the gorm sentinel errors the engine keys on, so the engine
// cannot tell it apart from GormStore.
type InMemoryStore struct {
	mu   sync.Mutex
	data memData
	// nonzero while executing inside Atomically; the tx view skips locking
	inTx bool

	nextTeamID       uint
	nextMembershipID uint
	nextRequestID    uint
	nextAttachmentID uint
}

type memData struct {
	teams       map[uint]models.Team
	memberships map[uint]models.Membership
	requests    map[uint]models.JoinRequest
	attachments map[uint]models.Attachment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: memData{
			teams:       map[uint]models.Team{},
			memberships: map[uint]models.Membership{},
			requests:    map[uint]models.JoinRequest{},
			attachments: map[uint]models.Attachment{},
		},
	}
}

func (d memData) clone() memData {
	c := memData{
		teams:       make(map[uint]models.Team, len(d.teams)),
		memberships: make(map[uint]models.Membership, len(d.memberships)),
		requests:    make(map[uint]models.JoinRequest, len(d.requests)),
		attachments: make(map[uint]models.Attachment, len(d.attachments)),
	}
	for id, t := range d.teams {
		c.teams[id] = t
	}
	for id, m := range d.memberships {
		c.memberships[id] = m
	}
	for id, r := range d.requests {
		c.requests[id] = r
	}
	for id, a := range d.attachments {
		c.attachments[id] = a
	}
	return c
}

func (s *InMemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *InMemoryStore) Atomically(fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &InMemoryStore{
		data:             s.data,
		inTx:             true,
		nextTeamID:       s.nextTeamID,
		nextMembershipID: s.nextMembershipID,
		nextRequestID:    s.nextRequestID,
		nextAttachmentID: s.nextAttachmentID,
	}

	if err := fn(tx); err != nil {
		s.data = snapshot
		return err
	}

	s.nextTeamID = tx.nextTeamID
	s.nextMembershipID = tx.nextMembershipID
	s.nextRequestID = tx.nextRequestID
	s.nextAttachmentID = tx.nextAttachmentID
	return nil
}

func (s *InMemoryStore) CreateTeam(team *models.Team) error {
	defer s.lock()()

	s.nextTeamID++
	team.ID = s.nextTeamID
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	s.data.teams[team.ID] = *team
	return nil
}

func (s *InMemoryStore) GetTeamByID(id uint) (*models.Team, error) {
	defer s.lock()()

	team, ok := s.data.teams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	team.Members = s.membersOf(id)
	team.Attachments = s.attachmentsOf(id)
	return &team, nil
}

func (s *InMemoryStore) SaveTeam(team *models.Team) error {
	defer s.lock()()

	if _, ok := s.data.teams[team.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	saved := *team
	saved.Members = nil
	saved.Attachments = nil
	saved.UpdatedAt = time.Now()
	s.data.teams[team.ID] = saved
	return nil
}

func (s *InMemoryStore) DeleteTeam(id uint) error {
	defer s.lock()()

	delete(s.data.teams, id)
	return nil
}

func (s *InMemoryStore) TeamsByHackathon(hackathonID uint) ([]models.Team, error) {
	defer s.lock()()

	var teams []models.Team
	for _, t := range s.data.teams {
		if t.HackathonID == hackathonID {
			t.Members = s.membersOf(t.ID)
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].CreatedAt.After(teams[j].CreatedAt)
	})
	return teams, nil
}

func (s *InMemoryStore) TeamsLedBy(userID string) ([]models.Team, error) {
	defer s.lock()()

	var teams []models.Team
	for _, t := range s.data.teams {
		if t.LeaderID == userID {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

func (s *InMemoryStore) AddMembership(m *models.Membership) error {
	defer s.lock()()

	for _, existing := range s.data.memberships {
		if existing.HackathonID == m.HackathonID && existing.UserID == m.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	s.nextMembershipID++
	m.ID = s.nextMembershipID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	s.data.memberships[m.ID] = *m
	return nil
}

func (s *InMemoryStore) GetMembership(teamID uint, userID string) (*models.Membership, error) {
	defer s.lock()()

	for _, m := range s.data.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *InMemoryStore) MembershipInHackathon(hackathonID uint, userID string) (*models.Membership, error) {
	defer s.lock()()

	for _, m := range s.data.memberships {
		if m.HackathonID == hackathonID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *InMemoryStore) DeleteMembership(teamID uint, userID string) error {
	defer s.lock()()

	for id, m := range s.data.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			delete(s.data.memberships, id)
			return nil
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteMembershipsForTeam(teamID uint) error {
	defer s.lock()()

	for id, m := range s.data.memberships {
		if m.TeamID == teamID {
			delete(s.data.memberships, id)
		}
	}
	return nil
}

func (s *InMemoryStore) CreateJoinRequest(r *models.JoinRequest) error {
	defer s.lock()()

	for _, existing := range s.data.requests {
		if existing.TeamID == r.TeamID && existing.UserID == r.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	s.nextRequestID++
	r.ID = s.nextRequestID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	s.data.requests[r.ID] = *r
	return nil
}

func (s *InMemoryStore) GetJoinRequestByID(id uint) (*models.JoinRequest, error) {
	defer s.lock()()

	r, ok := s.data.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if team, ok := s.data.teams[r.TeamID]; ok {
		r.Team = &team
	}
	return &r, nil
}

func (s *InMemoryStore) GetJoinRequestForUser(teamID uint, userID string) (*models.JoinRequest, error) {
	defer s.lock()()

	for _, r := range s.data.requests {
		if r.TeamID == teamID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *InMemoryStore) SaveJoinRequest(r *models.JoinRequest) error {
	defer s.lock()()

	if _, ok := s.data.requests[r.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	saved := *r
	saved.Team = nil
	saved.User = nil
	saved.UpdatedAt = time.Now()
	s.data.requests[r.ID] = saved
	return nil
}

func (s *InMemoryStore) PendingRequestsForTeams(teamIDs []uint) ([]models.JoinRequest, error) {
	defer s.lock()()

	ids := map[uint]bool{}
	for _, id := range teamIDs {
		ids[id] = true
	}

	var requests []models.JoinRequest
	for _, r := range s.data.requests {
		if ids[r.TeamID] && r.Status == models.JoinRequestStatusPending {
			if team, ok := s.data.teams[r.TeamID]; ok {
				r.Team = &team
			}
			requests = append(requests, r)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].UpdatedAt.After(requests[j].UpdatedAt)
	})
	return requests, nil
}

func (s *InMemoryStore) DeleteJoinRequestsForTeam(teamID uint) error {
	defer s.lock()()

	for id, r := range s.data.requests {
		if r.TeamID == teamID {
			delete(s.data.requests, id)
		}
	}
	return nil
}

func (s *InMemoryStore) AddAttachments(attachments []models.Attachment) error {
	defer s.lock()()

	for i := range attachments {
		s.nextAttachmentID++
		attachments[i].ID = s.nextAttachmentID
		s.data.attachments[attachments[i].ID] = attachments[i]
	}
	return nil
}

func (s *InMemoryStore) membersOf(teamID uint) []models.Membership {
	var members []models.Membership
	for _, m := range s.data.memberships {
		if m.TeamID == teamID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

func (s *InMemoryStore) attachmentsOf(teamID uint) []models.Attachment {
	var attachments []models.Attachment
	for _, a := range s.data.attachments {
		if a.TeamID == teamID {
			attachments = append(attachments, a)
		}
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].ID < attachments[j].ID })
	return attachments
}
