package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/db/badger"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/result"
)

func newRepo(t *testing.T, retention int) (*Repo, *badger.Store) {
	t.Helper()
	s, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return New(s, "test:", retention, zap.NewNop()), s
}

func TestAppendRecent(t *testing.T) {
	repo, _ := newRepo(t, 3)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := history.New("acme", fmt.Sprintf("q%d", i), filter.Filters{},
			[]result.Match{{ID: "t1", Score: 0.5, Reasons: []string{"Domain match: x"}}}, 5, now)
		require.NoError(t, repo.Append(ctx, rec))
	}

	got, err := repo.Recent(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "q4", got[0].Query)
	assert.Equal(t, "q2", got[2].Query)
	assert.Equal(t, []string{"Domain match: x"}, got[0].TopResults[0].Reasons)

	one, err := repo.Recent(ctx, "acme", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	none, err := repo.Recent(ctx, "other", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecent_SkipsUndecodable(t *testing.T) {
	repo, s := newRepo(t, 0)
	ctx := context.Background()
	require.NoError(t, s.PushCapped(ctx, "test:history:acme", []byte("garbage"), 10))
	require.NoError(t, repo.Append(ctx, history.New("acme", "ok", filter.Filters{}, nil, 5, time.Now())))

	got, err := repo.Recent(ctx, "acme", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Query)
}

func TestRecent_NonPositive(t *testing.T) {
	repo, _ := newRepo(t, 0)
	got, err := repo.Recent(context.Background(), "acme", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
