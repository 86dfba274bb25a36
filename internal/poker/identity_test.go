package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeRole_TogglesAndClearsVote(t *testing.T) {
	c, rec, _ := newTestCoordinator()
	join(c, "c1", "r1", "alice")
	c.Vote("r1", "alice", "13")
	rec.take()

	c.ChangeRole("r1", "alice")

	log := rec.take()
	assert.Equal(t, []string{"broadcast:" + EventRoomUpdate, "broadcast:" + EventVotesUpdate}, eventNames(log))
	assert.Equal(t, []MemberView{{Username: "alice", Role: RoleSpectator}}, log[0].payload)
	assert.Equal(t, map[string]string{"alice": ""}, log[1].payload)

	c.ChangeRole("r1", "alice")
	got, _ := rec.lastPayload("broadcast", "r1", EventRoomUpdate)
	assert.Equal(t, []MemberView{{Username: "alice", Role: RolePlayer}}, got)
}

func TestChangeRole_UnknownIsNoop(t *testing.T) {
	c, rec, _ := newTestCoordinator()
	join(c, "c1", "r1", "alice")
	rec.take()

	assert.NotPanics(t, func() {
		c.ChangeRole("r1", "nobody")
		c.ChangeRole("nope", "alice")
	})
	assert.Empty(t, rec.take())
}

func TestChangeUsername_PreservesVoteRoleAndAdmin(t *testing.T) {
	c, rec, _ := newTestCoordinator()
	c.Join("c1", JoinRequest{RoomID: "r1", Username: "alice", Role: RolePlayer, IsAdmin: true})
	c.Vote("r1", "alice", "5")
	rec.take()

	err := c.ChangeUsername("c1", "r1", "alice", "bob")
	require.NoError(t, err)

	log := rec.take()
	assert.Equal(t, []string{"broadcast:" + EventRoomUpdate, "broadcast:" + EventVotesUpdate}, eventNames(log))
	assert.Equal(t, []MemberView{{Username: "bob", Role: RolePlayer, Admin: true}}, log[0].payload)
	assert.Equal(t, map[string]string{"bob": "5"}, log[1].payload)

	res, _ := c.Reveal("r1")
	assert.Equal(t, "5", res.MostVoted)
	_, stillThere := res.Votes["alice"]
	assert.False(t, stillThere)
}

func TestChangeUsername_MovesBinding(t *testing.T) {
	c, _, _ := newTestCoordinator()
	join(c, "c1", "r1", "alice")
	join(c, "c2", "r1", "carol")

	require.NoError(t, c.ChangeUsername("c1", "r1", "alice", "bob"))
	c.Disconnect("c1")

	snap, _ := c.Snapshot("r1")
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "carol", snap.Participants[0].Username)
}

func TestChangeUsername_RejectsTakenName(t *testing.T) {
	c, rec, _ := newTestCoordinator()
	join(c, "c1", "r1", "alice")
	join(c, "c2", "r1", "bob")
	c.Vote("r1", "bob", "8")
	rec.take()

	err := c.ChangeUsername("c1", "r1", "alice", "bob")

	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Empty(t, rec.take())
	res, _ := c.Reveal("r1")
	assert.Equal(t, map[string]string{"alice": "", "bob": "8"}, res.Votes)
}

func TestChangeUsername_Noops(t *testing.T) {
	c, rec, _ := newTestCoordinator()
	join(c, "c1", "r1", "alice")
	rec.take()

	assert.NoError(t, c.ChangeUsername("c1", "nope", "alice", "bob"))
	assert.NoError(t, c.ChangeUsername("c1", "r1", "ghost", "bob"))
	assert.NoError(t, c.ChangeUsername("unbound", "r1", "alice", "bob"))
	assert.NoError(t, c.ChangeUsername("c1", "r1", "alice", "alice"))

	assert.Empty(t, rec.take())
}
