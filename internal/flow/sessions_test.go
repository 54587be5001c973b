package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneDropsOnlyIdleSessions(t *testing.T) {
	s := newSessionStore()
	stale := s.create("stale")
	fresh := s.create("fresh")

	s.mu.Lock()
	s.m[stale.ID].updatedAt = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	assert.Equal(t, 1, s.prune(24*time.Hour))

	_, ok := s.get(stale.ID)
	assert.False(t, ok)
	_, ok = s.get(fresh.ID)
	require.True(t, ok)
}

func TestPruneKeepsRecentlyTouchedSession(t *testing.T) {
	s := newSessionStore()
	sess := s.create("active")

	s.mu.Lock()
	s.m[sess.ID].updatedAt = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	_, ok := s.update(sess.ID, func(st *sessionState) { st.Onboarding = false })
	require.True(t, ok)

	assert.Zero(t, s.prune(24*time.Hour))
}
