package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewClickRepository(testutil.NewDB(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, code := range []string{"aaaa111", "aaaa111", "aaaa111", "bbbb222"} {
		require.NoError(t, repo.Create(ctx, &models.ClickEvent{
			Code:       code,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
			UserAgent:  "test-agent",
		}))
	}

	events, err := repo.ListByCode(ctx, "aaaa111", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].OccurredAt.After(events[2].OccurredAt), "newest first")

	limited, err := repo.ListByCode(ctx, "aaaa111", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	count, err := repo.CountByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	counts, err := repo.CountsByCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"aaaa111": 3, "bbbb222": 1}, counts)
}

func TestRecordCountsAndLeavesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewLinkRepository(db)
	clicks := NewClickRepository(db)

	require.NoError(t, links.Create(ctx, newLink("aaaa111", "https://example.com/1", "alice")))
	before, err := links.FindByCode(ctx, "aaaa111")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	counted, err := clicks.Record(ctx, &models.ClickEvent{Code: "aaaa111", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, counted)

	after, err := links.FindByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Clicks)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))

	count, err := clicks.CountByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordForDeletedLinkKeepsEvent(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewLinkRepository(db)
	clicks := NewClickRepository(db)

	require.NoError(t, links.Create(ctx, newLink("aaaa111", "https://example.com/1", "alice")))
	require.NoError(t, links.Delete(ctx, "aaaa111", "alice"))

	counted, err := clicks.Record(ctx, &models.ClickEvent{Code: "aaaa111", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, counted)

	count, err := clicks.CountByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordConcurrently(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	links := NewLinkRepository(db)
	clicks := NewClickRepository(db)
	require.NoError(t, links.Create(ctx, newLink("aaaa111", "https://example.com/1", "alice")))

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := clicks.Record(ctx, &models.ClickEvent{Code: "aaaa111", OccurredAt: time.Now().UTC()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	link, err := links.FindByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(n), link.Clicks)

	count, err := clicks.CountByCode(ctx, "aaaa111")
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}
