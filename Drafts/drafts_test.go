package Drafts

import (
	"context"
	"testing"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Checklist.DraftStore = (*Memory)(nil)
	_ Checklist.DraftStore = (*Redis)(nil)
)

func exerciseStore(t *testing.T, store Checklist.DraftStore) {
	ctx := context.Background()
	session, q1, q2 := uuid.New(), uuid.New(), uuid.New()

	empty, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Save(ctx, session, q1, Checklist.Entry{Status: Models.StatusNOK, Justification: "Leak"}))
	require.NoError(t, store.Save(ctx, session, q2, Checklist.Entry{Status: Models.StatusOK}))
	require.NoError(t, store.Save(ctx, session, q1, Checklist.Entry{Status: Models.StatusNA}))

	got, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]Checklist.Entry{
		q1: {Status: Models.StatusNA},
		q2: {Status: Models.StatusOK},
	}, got)

	release, err := store.AcquireSubmitLock(ctx, session)
	require.NoError(t, err)
	_, err = store.AcquireSubmitLock(ctx, session)
	assert.ErrorIs(t, err, Checklist.ErrSubmissionInFlight)

	other, err := store.AcquireSubmitLock(ctx, uuid.New())
	require.NoError(t, err)
	other()

	release()
	again, err := store.AcquireSubmitLock(ctx, session)
	require.NoError(t, err)
	again()

	require.NoError(t, store.Delete(ctx, session))
	got, err = store.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory(time.Hour))
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	session := uuid.New()
	require.NoError(t, m.Save(ctx, session, uuid.New(), Checklist.Entry{Status: Models.StatusOK}))

	now = now.Add(2 * time.Minute)
	got, err := m.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySweepsAbandonedDrafts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	abandoned := make([]uuid.UUID, 50)
	for i := range abandoned {
		abandoned[i] = uuid.New()
		require.NoError(t, m.Save(ctx, abandoned[i], uuid.New(), Checklist.Entry{Status: Models.StatusOK}))
	}
	require.Len(t, m.drafts, 50)

	// Sessions never loaded again are still dropped by later saves.
	now = now.Add(2 * time.Minute)
	active := uuid.New()
	require.NoError(t, m.Save(ctx, active, uuid.New(), Checklist.Entry{Status: Models.StatusNA}))
	assert.Len(t, m.drafts, 1)
	assert.Contains(t, m.drafts, active)

	// Fresh drafts survive a sweep.
	now = now.Add(30 * time.Second)
	require.NoError(t, m.Save(ctx, uuid.New(), uuid.New(), Checklist.Entry{Status: Models.StatusOK}))
	now = now.Add(45 * time.Second)
	require.NoError(t, m.Save(ctx, uuid.New(), uuid.New(), Checklist.Entry{Status: Models.StatusOK}))
	assert.Len(t, m.drafts, 2)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	exerciseStore(t, store)
}

func TestRedisDraftExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedis("redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	session := uuid.New()
	require.NoError(t, store.Save(ctx, session, uuid.New(), Checklist.Entry{Status: Models.StatusOK}))
	assert.True(t, mr.Exists(draftKey(session)))

	mr.FastForward(2 * time.Minute)
	got, err := store.Load(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisLockLeaseExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	defer store.Close()

	ctx := context.Background()
	session := uuid.New()
	_, err := store.AcquireSubmitLock(ctx, session)
	require.NoError(t, err)

	mr.FastForward(submitLease + time.Second)
	release, err := store.AcquireSubmitLock(ctx, session)
	require.NoError(t, err)
	release()
}
