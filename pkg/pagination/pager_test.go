package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string
	Page int
}

// pagedSource serves numbered pages of two items each and records every
// cursor it was asked for
type pagedSource struct {
	pages    [][]item
	failAt   int
	loopBack bool
	requests []string
}

func (s *pagedSource) fetch(ctx context.Context, cursor string) (Page[item], error) {
	s.requests = append(s.requests, cursor)

	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page[item]{}, err
		}
		idx = n
	}
	if s.failAt > 0 && idx == s.failAt {
		return Page[item]{}, errors.New("page fetch failed")
	}

	page := Page[item]{Items: s.pages[idx]}
	switch {
	case s.loopBack && idx == len(s.pages)-1:
		page.NextCursor = "1"
	case idx+1 < len(s.pages):
		page.NextCursor = strconv.Itoa(idx + 1)
	}
	return page, nil
}

func newSource(n int) *pagedSource {
	s := &pagedSource{}
	for i := 0; i < n; i++ {
		s.pages = append(s.pages, []item{
			{ID: "a" + strconv.Itoa(i), Page: i},
			{ID: "b" + strconv.Itoa(i), Page: i},
		})
	}
	return s
}

func byID(i item) string { return i.ID }

func TestPagerStopsAtLastPage(t *testing.T) {
	src := newSource(3)
	p := New(src.fetch, "", 10)

	items, cursor, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)

	assert.Len(t, items, 6)
	assert.Empty(t, cursor)
	assert.Equal(t, 3, p.PagesFetched())
	assert.Equal(t, []string{"", "1", "2"}, src.requests)
	assert.True(t, p.Done())
}

func TestPagerHonorsPageBound(t *testing.T) {
	src := newSource(20)
	p := New(src.fetch, "", 5)

	items, cursor, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)

	assert.Len(t, src.requests, 5)
	assert.Equal(t, 5, p.PagesFetched())
	assert.Len(t, items, 10)
	assert.Equal(t, "5", cursor, "cursor should point at the first unfetched page")
}

func TestPagerClampsMaxPages(t *testing.T) {
	src := newSource(4)
	p := New(src.fetch, "", 0)

	_, _, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)
	assert.Len(t, src.requests, 1)
}

func TestPagerStartCursor(t *testing.T) {
	src := newSource(4)
	p := New(src.fetch, "2", 10)

	items, _, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "3"}, src.requests)
	assert.Equal(t, 2, items[0].Page)
}

func TestPagerNeverRevisitsCursor(t *testing.T) {
	src := newSource(3)
	src.loopBack = true
	p := New(src.fetch, "", 50)

	_, cursor, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "1", "2"}, src.requests)
	assert.Empty(t, cursor, "a visited cursor is never handed back for resuming")
	assert.Empty(t, p.Cursor())
	assert.True(t, p.Done())
}

func TestCollectDeduplicates(t *testing.T) {
	t.Run("across pages", func(t *testing.T) {
		src := newSource(3)
		src.pages[1][0].ID = "a0"
		src.pages[2][1].ID = "b0"

		items, _, err := Collect(context.Background(), New(src.fetch, "", 10), byID)
		require.NoError(t, err)

		assert.Len(t, items, 4)
		// first-seen order and first-seen copy win
		assert.Equal(t, "a0", items[0].ID)
		assert.Equal(t, 0, items[0].Page)
		assert.Equal(t, "b0", items[1].ID)
		assert.Equal(t, 0, items[1].Page)
	})

	t.Run("within a page", func(t *testing.T) {
		src := newSource(1)
		src.pages[0] = append(src.pages[0], item{ID: "a0", Page: 99})

		items, _, err := Collect(context.Background(), New(src.fetch, "", 10), byID)
		require.NoError(t, err)

		assert.Len(t, items, 2)
		seen := map[string]bool{}
		for _, it := range items {
			assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
			seen[it.ID] = true
		}
	})
}

func TestCollectDiscardsPartialOnFailure(t *testing.T) {
	src := newSource(5)
	src.failAt = 2
	p := New(src.fetch, "", 10)

	items, cursor, err := Collect(context.Background(), p, byID)

	assert.Error(t, err)
	assert.Nil(t, items)
	assert.Empty(t, cursor)
	assert.Equal(t, 3, p.PagesFetched())
	assert.Error(t, p.Err())

	// a failed pager stays finished
	_, ok, err := p.Next(context.Background())
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Len(t, src.requests, 3)
}

func TestPagerIsNotRestartable(t *testing.T) {
	src := newSource(2)
	p := New(src.fetch, "", 10)

	_, _, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)

	items, _, err := Collect(context.Background(), p, byID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, src.requests, 2)
}

func TestPagerCanceledContext(t *testing.T) {
	src := newSource(3)
	p := New(src.fetch, "", 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := p.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.requests)
}

func TestPagerAllEarlyBreak(t *testing.T) {
	src := newSource(5)
	p := New(src.fetch, "", 10)

	count := 0
	for _, err := range p.All(context.Background()) {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}

	assert.Equal(t, 2, p.PagesFetched())
	assert.False(t, p.Done())
}
