package teams

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hackmate-backend/internal/assets"
	"hackmate-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const hackathonID = uint(1)

func newTestEngine() (*Engine, *assets.FakeStore) {
	fake := assets.NewFakeStore()
	return NewEngine(NewInMemoryStore(), fake), fake
}

func mustCreateTeam(t *testing.T, e *Engine, leaderID, name string) *models.Team {
	t.Helper()
	team, err := e.CreateTeam(hackathonID, leaderID, CreateTeamParams{Name: name, Public: true})
	require.NoError(t, err)
	return team
}

func TestCreateTeamMakesLeaderAMember(t *testing.T) {
	e, _ := newTestEngine()

	team := mustCreateTeam(t, e, "alice", "Rocket")

	require.Equal(t, "alice", team.LeaderID)
	require.Len(t, team.Members, 1)
	assert.Equal(t, "alice", team.Members[0].UserID)
	assert.Equal(t, models.MemberRoleLeader, team.Members[0].Role)
	assert.Equal(t, hackathonID, team.Members[0].HackathonID)
}

func TestCreateTeamRequiresName(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.CreateTeam(hackathonID, "alice", CreateTeamParams{})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateSecondTeamInSameHackathonConflicts(t *testing.T) {
	e, _ := newTestEngine()

	mustCreateTeam(t, e, "alice", "Rocket")

	_, err := e.CreateTeam(hackathonID, "alice", CreateTeamParams{Name: "Comet"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// A different hackathon is fine
	_, err = e.CreateTeam(hackathonID+1, "alice", CreateTeamParams{Name: "Comet"})
	assert.NoError(t, err)
}

func TestSubmitJoinUnknownTeam(t *testing.T) {
	e, _ := newTestEngine()

	_, _, err := e.SubmitJoin(99, "bob", "")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSubmitJoinByLeaderIsInvalid(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	_, _, err := e.SubmitJoin(team.ID, "alice", "")
	require.Error(t, err)
	assert.Equal(t, KindInvalidOperation, KindOf(err))
}

func TestSubmitJoinIdempotentWhilePending(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	first, created, err := e.SubmitJoin(team.ID, "bob", "Backend")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := e.SubmitJoin(team.ID, "bob", "Frontend")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// An idempotent no-op does not rewrite the request
	assert.Equal(t, "Backend", second.DesiredRole)
	assert.Equal(t, models.JoinRequestStatusPending, second.Status)
}

func TestSubmitJoinReactivatesDeclinedRequest(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	first, _, err := e.SubmitJoin(team.ID, "bob", "Backend")
	require.NoError(t, err)

	_, err = e.Respond(first.ID, "alice", false)
	require.NoError(t, err)

	reopened, created, err := e.SubmitJoin(team.ID, "bob", "Designer")
	require.NoError(t, err)
	assert.False(t, created, "resubmission must reuse the request row")
	assert.Equal(t, first.ID, reopened.ID)
	assert.Equal(t, models.JoinRequestStatusPending, reopened.Status)
	assert.Equal(t, "Designer", reopened.DesiredRole)
}

func TestSubmitJoinWhileCommittedElsewhereConflicts(t *testing.T) {
	e, _ := newTestEngine()
	mustCreateTeam(t, e, "alice", "Rocket")
	t2 := mustCreateTeam(t, e, "carol", "Comet")

	// alice leads Rocket, so she cannot even queue up for Comet
	_, _, err := e.SubmitJoin(t2.ID, "alice", "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestAcceptFlow(t *testing.T) {
	e, _ := newTestEngine()
	t1 := mustCreateTeam(t, e, "alice", "Rocket")
	t2 := mustCreateTeam(t, e, "carol", "Comet")

	request, _, err := e.SubmitJoin(t1.ID, "bob", "Backend")
	require.NoError(t, err)

	resolved, err := e.Respond(request.ID, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestStatusAccepted, resolved.Status)

	team, err := e.GetTeam(t1.ID, &Caller{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, team.Members, 2)
	assert.True(t, team.IsMember("bob"))
	for _, m := range team.Members {
		if m.UserID == "bob" {
			assert.Equal(t, "Backend", m.Role)
		}
	}

	// bob is now committed; joining another team in the hackathon conflicts
	_, _, err = e.SubmitJoin(t2.ID, "bob", "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRespondUnknownRequest(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Respond(42, "alice", true)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRespondByNonLeaderForbidden(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	request, _, err := e.SubmitJoin(team.ID, "bob", "")
	require.NoError(t, err)

	_, err = e.Respond(request.ID, "mallory", true)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestRespondToResolvedRequestIsInvalid(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	request, _, err := e.SubmitJoin(team.ID, "bob", "")
	require.NoError(t, err)

	_, err = e.Respond(request.ID, "alice", false)
	require.NoError(t, err)

	_, err = e.Respond(request.ID, "alice", true)
	require.Error(t, err)
	assert.Equal(t, KindInvalidOperation, KindOf(err))
}

func TestAcceptAfterRequesterJoinedElsewhereDeclines(t *testing.T) {
	e, _ := newTestEngine()
	t1 := mustCreateTeam(t, e, "alice", "Rocket")
	t2 := mustCreateTeam(t, e, "carol", "Comet")

	r1, _, err := e.SubmitJoin(t1.ID, "bob", "")
	require.NoError(t, err)
	r2, _, err := e.SubmitJoin(t2.ID, "bob", "")
	require.NoError(t, err)

	// carol accepts first; bob is now committed to Comet
	_, err = e.Respond(r2.ID, "carol", true)
	require.NoError(t, err)

	// alice's accept must fail at commit time and leave the request declined
	resolved, err := e.Respond(r1.ID, "alice", true)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	require.NotNil(t, resolved)
	assert.Equal(t, models.JoinRequestStatusDeclined, resolved.Status)

	// bob must not have ended up on two rosters
	rocket, err := e.GetTeam(t1.ID, nil)
	require.NoError(t, err)
	assert.False(t, rocket.IsMember("bob"))
}

func TestConcurrentAcceptsExactlyOneSucceeds(t *testing.T) {
	e, _ := newTestEngine()
	t1 := mustCreateTeam(t, e, "alice", "Rocket")
	t2 := mustCreateTeam(t, e, "carol", "Comet")

	r1, _, err := e.SubmitJoin(t1.ID, "bob", "")
	require.NoError(t, err)
	r2, _, err := e.SubmitJoin(t2.ID, "bob", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = e.Respond(r1.ID, "alice", true)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = e.Respond(r2.ID, "carol", true)
	}()
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case KindOf(err) == KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	// The losing request must end DECLINED, not dangle as PENDING
	for _, id := range []uint{r1.ID, r2.ID} {
		r, err := e.store.GetJoinRequestByID(id)
		require.NoError(t, err)
		assert.NotEqual(t, models.JoinRequestStatusPending, r.Status)
	}
}

func TestPendingForLeaderSpansAllLedTeams(t *testing.T) {
	e, _ := newTestEngine()
	t1 := mustCreateTeam(t, e, "alice", "Rocket")
	team2, err := e.CreateTeam(hackathonID+1, "alice", CreateTeamParams{Name: "Comet"})
	require.NoError(t, err)

	_, _, err = e.SubmitJoin(t1.ID, "bob", "")
	require.NoError(t, err)
	_, _, err = e.SubmitJoin(team2.ID, "dave", "")
	require.NoError(t, err)

	pending, err := e.PendingForLeader("alice")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Not the leader of anything
	pending, err = e.PendingForLeader("bob")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLeave(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	_, err := e.Invite(team.ID, "alice", "bob", "Backend")
	require.NoError(t, err)

	// Leaders cannot leave
	err = e.Leave(team.ID, "alice")
	require.Error(t, err)
	assert.Equal(t, KindInvalidOperation, KindOf(err))

	// Non-members get NotFound
	err = e.Leave(team.ID, "mallory")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, e.Leave(team.ID, "bob"))

	// The slot is free again
	_, _, err = e.SubmitJoin(team.ID, "bob", "")
	assert.NoError(t, err)
}

func TestInvite(t *testing.T) {
	e, _ := newTestEngine()
	t1 := mustCreateTeam(t, e, "alice", "Rocket")
	t2 := mustCreateTeam(t, e, "carol", "Comet")

	// Only the leader may invite
	_, err := e.Invite(t1.ID, "bob", "dave", "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	m, err := e.Invite(t1.ID, "alice", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "Member", m.Role)

	// The invite path enforces exclusivity like accept does
	_, err = e.Invite(t2.ID, "carol", "bob", "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// The reserved role cannot be handed out
	_, err = e.Invite(t1.ID, "alice", "dave", models.MemberRoleLeader)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpdateTeamPartialPatch(t *testing.T) {
	e, _ := newTestEngine()
	team, err := e.CreateTeam(hackathonID, "alice", CreateTeamParams{
		Name: "Rocket",
		Bio:  "we build rockets",
	})
	require.NoError(t, err)

	bio := "now with more boosters"
	updated, err := e.UpdateTeam(team.ID, "alice", TeamPatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Rocket", updated.Name, "absent patch fields stay untouched")
	assert.Equal(t, bio, updated.Bio)

	// Non-members may not edit
	_, err = e.UpdateTeam(team.ID, "mallory", TeamPatch{Bio: &bio})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestPrivateTeamVisibility(t *testing.T) {
	e, _ := newTestEngine()
	team, err := e.CreateTeam(hackathonID, "alice", CreateTeamParams{Name: "Stealth", Public: false})
	require.NoError(t, err)

	_, err = e.GetTeam(team.ID, nil)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = e.GetTeam(team.ID, &Caller{UserID: "mallory"})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = e.GetTeam(team.ID, &Caller{UserID: "alice"})
	assert.NoError(t, err)

	_, err = e.GetTeam(team.ID, &Caller{UserID: "root", Role: models.RoleAdmin})
	assert.NoError(t, err)

	_, err = e.GetTeam(team.ID, &Caller{UserID: "host", Role: models.RoleHost})
	assert.NoError(t, err)

	// Listing hides it from strangers but not from the roster
	visible, err := e.ListTeams(hackathonID, nil)
	require.NoError(t, err)
	assert.Empty(t, visible)

	visible, err = e.ListTeams(hackathonID, &Caller{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestDeleteTeamCascades(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	_, err := e.Invite(team.ID, "alice", "bob", "")
	require.NoError(t, err)
	request, _, err := e.SubmitJoin(team.ID, "carol", "")
	require.NoError(t, err)

	// Random users cannot delete
	err = e.DeleteTeam(team.ID, Caller{UserID: "bob"})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, e.DeleteTeam(team.ID, Caller{UserID: "alice"}))

	_, err = e.GetTeam(team.ID, &Caller{UserID: "alice"})
	assert.Equal(t, KindNotFound, KindOf(err))

	// No orphaned memberships or requests: everyone is free to regroup
	_, err = e.store.GetJoinRequestByID(request.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	for _, user := range []string{"alice", "bob", "carol"} {
		fresh, err := e.CreateTeam(hackathonID, user, CreateTeamParams{Name: "Team " + user})
		require.NoError(t, err, "user %s should be free after the cascade", user)
		require.NoError(t, e.DeleteTeam(fresh.ID, Caller{UserID: user}))
	}
}

func TestDeleteTeamByAdmin(t *testing.T) {
	e, _ := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	require.NoError(t, e.DeleteTeam(team.ID, Caller{UserID: "root", Role: models.RoleAdmin}))

	_, err := e.GetTeam(team.ID, nil)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUploadAttachmentsAppends(t *testing.T) {
	e, fake := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	ctx := context.Background()

	_, err := e.UploadAttachments(ctx, team.ID, "mallory", "deck", []Upload{{Filename: "x.pdf"}})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	first, err := e.UploadAttachments(ctx, team.ID, "alice", "deck", []Upload{
		{Filename: "pitch.pdf", Content: []byte("pdf")},
	})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.NotEmpty(t, first[0].URL)

	second, err := e.UploadAttachments(ctx, team.ID, "alice", "screenshot", []Upload{
		{Filename: "demo.png", Content: []byte("png")},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	// Merge, never replace: both uploads are in the sequence, in order
	loaded, err := e.GetTeam(team.ID, &Caller{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, loaded.Attachments, 2)
	assert.Equal(t, "pitch.pdf", loaded.Attachments[0].Filename)
	assert.Equal(t, "demo.png", loaded.Attachments[1].Filename)
	assert.Len(t, fake.Uploads(), 2)
}

func TestUploadAttachmentsPropagatesStoreFailure(t *testing.T) {
	e, fake := newTestEngine()
	team := mustCreateTeam(t, e, "alice", "Rocket")

	fake.Err = errors.New("asset store down")

	_, err := e.UploadAttachments(context.Background(), team.ID, "alice", "deck", []Upload{
		{Filename: "pitch.pdf"},
	})
	require.Error(t, err)

	loaded, err := e.GetTeam(team.ID, &Caller{UserID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, loaded.Attachments, "a failed upload must not record a descriptor")
}

// duplicateKeyStore makes the next AddMembership fail with the unique-index
// sentinel, standing in for a concurrent insert that commits between the
// engine's exclusivity check and its own insert.
type duplicateKeyStore struct {
	*InMemoryStore
	duplicates int
}

func (s *duplicateKeyStore) Atomically(fn func(tx Store) error) error {
	return s.InMemoryStore.Atomically(func(tx Store) error {
		return fn(&duplicateKeyTx{Store: tx, parent: s})
	})
}

type duplicateKeyTx struct {
	Store
	parent *duplicateKeyStore
}

func (t *duplicateKeyTx) AddMembership(m *models.Membership) error {
	if t.parent.duplicates > 0 {
		t.parent.duplicates--
		return gorm.ErrDuplicatedKey
	}
	return t.Store.AddMembership(m)
}

func TestAcceptLosingUniqueIndexDeclinesRequest(t *testing.T) {
	store := &duplicateKeyStore{InMemoryStore: NewInMemoryStore()}
	e := NewEngine(store, assets.NewFakeStore())

	team, err := e.CreateTeam(hackathonID, "alice", CreateTeamParams{Name: "Rocket", Public: true})
	require.NoError(t, err)

	request, created, err := e.SubmitJoin(team.ID, "bob", "")
	require.NoError(t, err)
	require.True(t, created)

	store.duplicates = 1

	got, err := e.Respond(request.ID, "alice", true)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	require.NotNil(t, got)
	assert.Equal(t, models.JoinRequestStatusDeclined, got.Status)

	// The decline is committed by the follow-up transaction even though the
	// accept itself rolled back
	stored, err := store.GetJoinRequestByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestStatusDeclined, stored.Status)

	_, err = store.GetMembership(team.ID, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "the losing accept must not leave a membership")
}
