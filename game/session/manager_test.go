package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/report"
)

func createTestConfig() *engine.Config {
	config := engine.DefaultConfig()
	config.Name = "Test Config"
	config.FrameIntervalMs = 1
	config.SpawnIntervalMs = 2
	return config
}

func seed(v uint64) *uint64 { return &v }

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", config, Options{})
		require.NoError(t, err)
		assert.Equal(t, "test-session", session.ID)
		assert.Equal(t, "test", session.ConfigID)
		assert.False(t, session.Running())
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config, Options{})
		require.NoError(t, err)
		assert.Len(t, session.ID, 4)
	})

	t.Run("duplicate ID is rejected case-insensitively", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "test", config, Options{})
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("a/b", "test", config, Options{})
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.Capacity = 0
		_, err := manager.Create("bad", "bad", bad, Options{})
		assert.Error(t, err)
		_, err = manager.Get("bad")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	assert.Equal(t, 2, manager.Count())
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("AbCd", "test", createTestConfig(), Options{})
	require.NoError(t, err)

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		got, err := manager.Get(id)
		require.NoError(t, err, id)
		assert.Same(t, created, got)
	}

	_, err = manager.Get("zzzz")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestManager_Delete(t *testing.T) {
	store, err := report.NewFileStore(t.TempDir())
	require.NoError(t, err)
	manager := NewManagerWithArchive(store)

	session, err := manager.Create("del1", "test", createTestConfig(), Options{Seed: seed(5)})
	require.NoError(t, err)
	require.True(t, session.Spawn(engine.BehaviorLR))
	session.Step(10)

	r, err := manager.Delete("DEL1")
	require.NoError(t, err)
	assert.Equal(t, "del1", r.SessionID)
	assert.Equal(t, "test", r.ConfigID)
	assert.Equal(t, uint64(10), r.Ticks)
	assert.Equal(t, 1, r.Active)
	assert.Equal(t, 1, r.Stats.Vehicles)

	archived, err := store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Stats, archived.Stats)

	_, err = manager.Delete("del1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, manager.Count())
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	for _, id := range []string{"s1", "s2", "s3"} {
		_, err := manager.Create(id, "test", createTestConfig(), Options{})
		require.NoError(t, err)
	}

	ids := make([]string, 0, 3)
	for _, s := range manager.List() {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, ids)
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	store, err := report.NewFileStore(t.TempDir())
	require.NoError(t, err)
	manager := NewManagerWithArchive(store)

	old, err := manager.Create("old", "test", createTestConfig(), Options{Running: true})
	require.NoError(t, err)
	_, err = manager.Create("fresh", "test", createTestConfig(), Options{})
	require.NoError(t, err)

	old.mu.Lock()
	old.lastAccessedAt = time.Now().Add(-2 * time.Hour)
	old.mu.Unlock()

	removed := manager.CleanupExpiredSessions(time.Hour)
	assert.Equal(t, 1, removed)
	assert.False(t, old.Running())

	_, err = manager.Get("old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = manager.Get("fresh")
	assert.NoError(t, err)

	reports, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "old", reports[0].SessionID)
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, err := manager.Create("touch", "test", createTestConfig(), Options{})
	require.NoError(t, err)

	before := session.LastAccessedAt()
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, manager.UpdateLastAccessed("touch"))
	assert.True(t, session.LastAccessedAt().After(before))

	assert.ErrorIs(t, manager.UpdateLastAccessed("nope"), ErrSessionNotFound)
}

func TestManager_Shutdown(t *testing.T) {
	store, err := report.NewFileStore(t.TempDir())
	require.NoError(t, err)
	manager := NewManagerWithArchive(store)

	var sessions []*Session
	for _, id := range []string{"a", "b"} {
		s, err := manager.Create(id, "test", createTestConfig(), Options{Running: true, AutoSpawn: true})
		require.NoError(t, err)
		sessions = append(sessions, s)
	}

	require.NoError(t, manager.Shutdown())
	assert.Equal(t, 0, manager.Count())
	for _, s := range sessions {
		assert.False(t, s.Running())
	}

	reports, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.Create("", "test", createTestConfig(), Options{})
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			s.SpawnRandom()
			s.Step(5)
			if _, err := manager.Get(strings.ToUpper(s.ID)); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, manager.Count())
}
