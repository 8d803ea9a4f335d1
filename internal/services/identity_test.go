package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReusesExistingName(t *testing.T) {
	f := newFixture(t)

	first, created, err := f.identity.Register(f.ctx, "  alice ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice", first.Name)
	assert.True(t, first.Online)

	require.NoError(t, f.identity.Logout(f.ctx, first.ID))
	f.clock.Advance(time.Hour)

	again, created, err := f.identity.Register(f.ctx, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Online)
	assert.Equal(t, f.clock.Now(), again.LastSeenAt)
}

func TestRegisterRejectsBlankName(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.identity.Register(f.ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPresenceDecaysWithoutSweeper(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	require.NoError(t, f.identity.Heartbeat(f.ctx, alice.ID))

	f.clock.Advance(20 * time.Second)
	got, err := f.identity.GetUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Online)

	f.clock.Advance(15 * time.Second)
	got, err = f.identity.GetUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Online)
}

func TestHeartbeatAndLogoutIgnoreUnknownUsers(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.identity.Heartbeat(f.ctx, "not-a-uuid"))
	assert.NoError(t, f.identity.Heartbeat(f.ctx, "1b7c5b7e-0d1c-4b59-9a43-6f5c0c8f1a2b"))
	assert.NoError(t, f.identity.Logout(f.ctx, "1b7c5b7e-0d1c-4b59-9a43-6f5c0c8f1a2b"))

	_, err := f.identity.GetUser(f.ctx, "1b7c5b7e-0d1c-4b59-9a43-6f5c0c8f1a2b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogoutForcesOffline(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	require.NoError(t, f.identity.Logout(f.ctx, alice.ID))

	got, err := f.identity.GetUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Online)
}

func TestReapStaleOnline(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.clock.Advance(45 * time.Second)
	bob := f.user(t, "bob")

	changed, err := f.identity.ReapStaleOnline(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, changed)

	f.clock.Advance(16 * time.Second)
	changed, err = f.identity.ReapStaleOnline(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	storedAlice, err := f.store.GetUser(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, storedAlice.Online)
	storedBob, err := f.store.GetUser(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, storedBob.Online)

	changed, err = f.identity.ReapStaleOnline(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestListUsersExcludesCaller(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.user(t, "bob")
	f.user(t, "carol")

	users, err := f.identity.ListUsers(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, alice.ID, u.ID)
	}
}
