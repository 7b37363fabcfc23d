package listing_test

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-labs/storefront-engine-go/listing"
)

func Test_PageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		maxLimit int
		expected int
	}{
		{"zero_falls_back_to_default", 0, 100, listing.DefaultPageSize},
		{"negative_falls_back_to_default", -5, 100, listing.DefaultPageSize},
		{"in_range_kept", 42, 100, 42},
		{"above_max_silently_capped", 5000, 100, 100},
		{"zero_max_uses_default_max", 5000, 0, listing.DefaultMaxPageSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			normalized := listing.PageRequest{Limit: tc.limit}.Normalize(tc.maxLimit)
			assert.Equal(t, tc.expected, normalized.Limit)
		})
	}
}

func Test_ResolvePage_EmptyResultSet(t *testing.T) {
	page := listing.ResolvePage(nil, 10, func(r row) listing.Cursor { return r.boundary() })

	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
	assert.False(t, page.HasMore)
}

func Test_ResolvePage_DropsTheExtraRowAndSetsHasMore(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []row{
		{id: orderedID(3), publishedAt: at},
		{id: orderedID(2), publishedAt: at},
		{id: orderedID(1), publishedAt: at},
	}

	page := listing.ResolvePage(rows, 2, func(r row) listing.Cursor { return r.boundary() })

	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	decoded, err := listing.DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, orderedID(2), decoded.TiebreakID, "cursor must come from the last returned row, not the dropped one")
}

func Test_ResolvePage_ExactLimitMeansNoMore(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []row{
		{id: orderedID(2), publishedAt: at},
		{id: orderedID(1), publishedAt: at},
	}

	page := listing.ResolvePage(rows, 2, func(r row) listing.Cursor { return r.boundary() })

	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor, "a full final page still carries a resumable cursor")
}

// row is a minimal record stand-in for pure pagination math tests.
type row struct {
	id          uuid.UUID
	publishedAt time.Time
}

func (r row) boundary() listing.Cursor {
	return listing.Cursor{SortValue: r.publishedAt, TiebreakID: r.id}
}

// fetchDescending simulates the store side of a compound-ordered listing: sort
// by (published_at DESC, id DESC), apply the cursor boundary, return limit+1 rows.
func fetchDescending(dataset []row, cursor *listing.Cursor, limit int) []row {
	sorted := make([]row, len(dataset))
	copy(sorted, dataset)

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].publishedAt.Equal(sorted[j].publishedAt) {
			return sorted[i].publishedAt.After(sorted[j].publishedAt)
		}
		return bytes.Compare(sorted[i].id[:], sorted[j].id[:]) > 0
	})

	fetched := make([]row, 0, limit+1)
	for _, r := range sorted {
		if cursor != nil && !cursor.Admits(r.publishedAt, r.id) {
			continue
		}
		fetched = append(fetched, r)
		if len(fetched) == limit+1 {
			break
		}
	}

	return fetched
}

func walkAllPages(t *testing.T, dataset []row, limit int) []uuid.UUID {
	t.Helper()

	var visited []uuid.UUID
	var cursor *listing.Cursor

	for pageCount := 0; ; pageCount++ {
		require.Less(t, pageCount, len(dataset)+2, "page walk did not terminate")

		fetched := fetchDescending(dataset, cursor, limit)
		page := listing.ResolvePage(fetched, limit, func(r row) listing.Cursor { return r.boundary() })

		for _, item := range page.Items {
			visited = append(visited, item.id)
		}

		if !page.HasMore {
			return visited
		}

		decoded, err := listing.DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		cursor = &decoded
	}
}

func Test_PageWalk_NoSkipNoDuplicate_WithHeavilyDuplicatedSortValues(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// 11 records across 3 sort values, most of them ties
	var dataset []row
	for n := 1; n <= 5; n++ {
		dataset = append(dataset, row{id: orderedID(n), publishedAt: at})
	}
	for n := 6; n <= 9; n++ {
		dataset = append(dataset, row{id: orderedID(n), publishedAt: at.Add(-time.Minute)})
	}
	dataset = append(dataset,
		row{id: orderedID(10), publishedAt: at.Add(-2 * time.Minute)},
		row{id: orderedID(11), publishedAt: at.Add(-2 * time.Minute)},
	)

	for _, limit := range []int{1, 2, 3, 5} {
		visited := walkAllPages(t, dataset, limit)

		require.Len(t, visited, len(dataset), "limit %d: every record visited exactly once", limit)

		seen := map[uuid.UUID]bool{}
		for _, id := range visited {
			assert.False(t, seen[id], "limit %d: record %s returned twice", limit, id)
			seen[id] = true
		}
	}
}

func Test_PageWalk_ConcreteScenario_FourRecordsPageSizeTwo(t *testing.T) {
	// page size 2, sort values [T, T, T-1, T-2], ids [4, 3, 2, 1], descending
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	dataset := []row{
		{id: orderedID(4), publishedAt: at},
		{id: orderedID(3), publishedAt: at},
		{id: orderedID(2), publishedAt: at.Add(-time.Second)},
		{id: orderedID(1), publishedAt: at.Add(-2 * time.Second)},
	}

	pageOne := listing.ResolvePage(fetchDescending(dataset, nil, 2), 2, func(r row) listing.Cursor { return r.boundary() })

	require.Len(t, pageOne.Items, 2)
	assert.Equal(t, orderedID(4), pageOne.Items[0].id)
	assert.Equal(t, orderedID(3), pageOne.Items[1].id)
	assert.True(t, pageOne.HasMore)

	boundary, err := listing.DecodeCursor(pageOne.NextCursor)
	require.NoError(t, err)
	assert.True(t, boundary.SortValue.Equal(at), "cursor must encode the tied sort value T")
	assert.Equal(t, orderedID(3), boundary.TiebreakID, "cursor must encode id 3, the last returned row")

	pageTwo := listing.ResolvePage(fetchDescending(dataset, &boundary, 2), 2, func(r row) listing.Cursor { return r.boundary() })

	require.Len(t, pageTwo.Items, 2)
	assert.Equal(t, orderedID(2), pageTwo.Items[0].id, "a plain sort-value comparison would wrongly repeat id 3 here")
	assert.Equal(t, orderedID(1), pageTwo.Items[1].id)
	assert.False(t, pageTwo.HasMore)
}

func Test_PageWalk_DeletionOnlyChurnDoesNotBreakSubsequentPages(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var dataset []row
	for n := 1; n <= 6; n++ {
		dataset = append(dataset, row{id: orderedID(n), publishedAt: at})
	}

	pageOne := listing.ResolvePage(fetchDescending(dataset, nil, 2), 2, func(r row) listing.Cursor { return r.boundary() })
	require.Len(t, pageOne.Items, 2)

	// soft-delete a record that was already returned on page one
	remaining := dataset[:0:0]
	for _, r := range dataset {
		if r.id != pageOne.Items[0].id {
			remaining = append(remaining, r)
		}
	}

	boundary, err := listing.DecodeCursor(pageOne.NextCursor)
	require.NoError(t, err)

	var visited []uuid.UUID
	cursor := &boundary
	for {
		page := listing.ResolvePage(fetchDescending(remaining, cursor, 2), 2, func(r row) listing.Cursor { return r.boundary() })
		for _, item := range page.Items {
			visited = append(visited, item.id)
		}
		if !page.HasMore {
			break
		}
		decoded, decodeErr := listing.DecodeCursor(page.NextCursor)
		require.NoError(t, decodeErr)
		cursor = &decoded
	}

	assert.Equal(t, []uuid.UUID{orderedID(4), orderedID(3), orderedID(2), orderedID(1)}, visited)
}

func Test_ResolveIDPage_OwnerHistoryMode(t *testing.T) {
	rows := []row{
		{id: orderedID(9)},
		{id: orderedID(8)},
		{id: orderedID(7)},
	}

	page := listing.ResolveIDPage(rows, 2, func(r row) listing.IDCursor { return listing.IDCursor{ID: r.id} })

	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	decoded, err := listing.DecodeIDCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, orderedID(8), decoded.ID)
}
