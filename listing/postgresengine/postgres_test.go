package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-labs/storefront-engine-go/internal/adapters"
	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

/***** scripted fake adapter *****/

type fakeDB struct {
	queries      []string
	execs        []string
	queryResults [][]listing.Record
	execResults  []int64
	queryErr     error
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.queries = append(f.queries, query)

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var records []listing.Record
	if len(f.queryResults) > 0 {
		records = f.queryResults[0]
		f.queryResults = f.queryResults[1:]
	}

	return &fakeRows{records: records}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.execs = append(f.execs, query)

	affected := int64(1)
	if len(f.execResults) > 0 {
		affected = f.execResults[0]
		f.execResults = f.execResults[1:]
	}

	return fakeResult{affected: affected}, nil
}

type fakeRows struct {
	records []listing.Record
	idx     int
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.records) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	r := f.records[f.idx-1]

	var linkJSON, mediaJSON []byte
	if r.Link != nil {
		linkJSON, _ = json.Marshal(r.Link)
	}
	if len(r.Media) > 0 {
		mediaJSON, _ = json.Marshal(r.Media)
	}

	*(dest[0].(*uuid.UUID)) = r.ID
	*(dest[1].(*listing.RecordType)) = r.RecordType
	*(dest[2].(*uuid.UUID)) = r.Author.UserID
	*(dest[3].(*string)) = r.Author.DisplayName
	*(dest[4].(*string)) = r.Author.Avatar
	*(dest[5].(*listing.AuthorType)) = r.Author.AuthorType
	*(dest[6].(*string)) = r.TextContent
	*(dest[7].(*[]byte)) = linkJSON
	*(dest[8].(*[]byte)) = mediaJSON
	*(dest[9].(*int64)) = r.Counters.Views
	*(dest[10].(*int64)) = r.Counters.Likes
	*(dest[11].(*int64)) = r.Counters.Comments
	*(dest[12].(*int64)) = r.Counters.Shares
	*(dest[13].(*int64)) = r.Counters.Saves
	*(dest[14].(**time.Time)) = r.LastCommentAt
	*(dest[15].(**time.Time)) = r.PublishedAt
	*(dest[16].(**time.Time)) = r.DeletedAt
	*(dest[17].(*time.Time)) = r.CreatedAt
	*(dest[18].(*time.Time)) = r.UpdatedAt

	return nil
}

func (f *fakeRows) Err() error   { return nil }
func (f *fakeRows) Close() error { return nil }

type fakeResult struct {
	affected int64
}

func (f fakeResult) RowsAffected() (int64, error) { return f.affected, nil }

/***** fixtures *****/

func testID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("018f0000-0000-7000-8000-%012x", n))
}

func publishedRecord(n int, publishedAt time.Time) listing.Record {
	return listing.Record{
		ID:         testID(n),
		RecordType: listing.RecordTypeText,
		Author: listing.AuthorSnapshot{
			UserID:      testID(1000),
			DisplayName: "Maya",
			Avatar:      "https://cdn.example.com/avatars/maya.jpg",
			AuthorType:  listing.AuthorTypeUser,
		},
		TextContent: "hello",
		PublishedAt: &publishedAt,
		CreatedAt:   publishedAt,
		UpdatedAt:   publishedAt,
	}
}

func engineWithFake(t *testing.T, db *fakeDB, options ...Option) Engine {
	t.Helper()

	engine, err := newEngine(db, options...)
	require.NoError(t, err)

	return engine
}

/***** listing *****/

func Test_ListPublished_ResolvesLimitPlusOneFetch(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{queryResults: [][]listing.Record{{
		publishedRecord(3, at),
		publishedRecord(2, at),
		publishedRecord(1, at),
	}}}
	engine := engineWithFake(t, db)

	page, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 2})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	boundary, decodeErr := listing.DecodeCursor(page.NextCursor)
	require.NoError(t, decodeErr)
	assert.Equal(t, testID(2), boundary.TiebreakID)

	require.Len(t, db.queries, 1)
	sql := db.queries[0]
	assert.Contains(t, sql, `"deleted_at" IS NULL`)
	assert.Contains(t, sql, `"published_at" IS NOT NULL`)
	assert.Contains(t, sql, `ORDER BY "published_at" DESC, "id" DESC`)
	assert.Contains(t, sql, "LIMIT 3", "engine must fetch limit+1 rows")
}

func Test_ListPublished_CursorAddsCompoundTiebreakPredicate(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db)

	cursor := &listing.Cursor{SortValue: at, TiebreakID: testID(3)}
	_, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 2, Cursor: cursor})

	require.NoError(t, err)
	require.Len(t, db.queries, 1)
	sql := db.queries[0]

	// strictly-before OR (tied AND smaller id) — both arms must be present
	assert.Contains(t, sql, `"published_at" <`)
	assert.Contains(t, sql, `"published_at" =`)
	assert.Contains(t, sql, `"id" <`)
	assert.Contains(t, sql, testID(3).String())
}

func Test_ListPublished_EmptyResultSet(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db)

	page, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 10})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
	assert.False(t, page.HasMore)
}

func Test_ListPublished_ClampsOversizedLimits(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db, WithMaxPageSize(50))

	_, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 5000})

	require.NoError(t, err)
	assert.Contains(t, db.queries[0], "LIMIT 51", "oversized limits are silently capped, not rejected")
}

func Test_ListPublished_AppliesCallerFilters(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db)

	filter := listing.BuildFilter().
		WithAuthor(testID(1000)).
		WithRecordType(listing.RecordTypeLink)

	_, err := engine.ListPublished(context.Background(), filter, listing.PageRequest{Limit: 10})

	require.NoError(t, err)
	sql := db.queries[0]
	assert.Contains(t, sql, `"author_id" =`)
	assert.Contains(t, sql, testID(1000).String())
	assert.Contains(t, sql, `"record_type" = 'link'`)
}

func Test_ListOwnerHistory_UsesSimpleIDOnlyMode(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db)

	cursor := &listing.IDCursor{ID: testID(7)}
	_, err := engine.ListOwnerHistory(context.Background(), testID(1000), cursor, 10)

	require.NoError(t, err)
	sql := db.queries[0]
	assert.Contains(t, sql, `"author_id" =`)
	assert.Contains(t, sql, `"id" <`)
	assert.Contains(t, sql, testID(7).String())
	assert.Contains(t, sql, `ORDER BY "id" DESC`)
	assert.NotContains(t, sql, `"published_at" IS NOT NULL`, "owner history includes unpublished records")
}

func Test_ListOwnerHistory_ResolvesPageWithIDCursor(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{queryResults: [][]listing.Record{{
		publishedRecord(9, at),
		publishedRecord(8, at),
		publishedRecord(7, at),
	}}}
	engine := engineWithFake(t, db)

	page, err := engine.ListOwnerHistory(context.Background(), testID(1000), nil, 2)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	boundary, decodeErr := listing.DecodeIDCursor(page.NextCursor)
	require.NoError(t, decodeErr)
	assert.Equal(t, testID(8), boundary.ID)
}

/***** single-record operations *****/

func Test_GetOwnedRecord_FoldsOwnershipIntoThePredicate(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db)

	_, err := engine.GetOwnedRecord(context.Background(), testID(5), testID(1000))

	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	sql := db.queries[0]
	assert.Contains(t, sql, `"id" =`)
	assert.Contains(t, sql, `"author_id" =`)
	assert.Contains(t, sql, testID(1000).String())
}

func Test_GetPublishedRecord_ReturnsTheRecord(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	want := publishedRecord(5, at)
	want.Link = &listing.LinkPreview{URL: "https://example.com"}
	db := &fakeDB{queryResults: [][]listing.Record{{want}}}
	engine := engineWithFake(t, db)

	got, err := engine.GetPublishedRecord(context.Background(), testID(5))

	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	require.NotNil(t, got.Link)
	assert.Equal(t, "https://example.com", got.Link.URL)
}

func Test_InsertRecord_BuildsSingleInsert(t *testing.T) {
	db := &fakeDB{}
	engine := engineWithFake(t, db)

	record, buildErr := listing.BuildRecord(
		listing.RecordTypeLink,
		listing.AuthorSnapshot{UserID: testID(1000), DisplayName: "Maya", AuthorType: listing.AuthorTypeUser},
		"check this out",
	)
	require.NoError(t, buildErr)
	record.Link = &listing.LinkPreview{URL: "https://example.com"}

	require.NoError(t, engine.InsertRecord(context.Background(), record))

	require.Len(t, db.execs, 1)
	sql := db.execs[0]
	assert.Contains(t, sql, `INSERT INTO "records"`)
	assert.Contains(t, sql, record.ID.String())
	assert.Contains(t, sql, "::jsonb")
}

func Test_UpdateTextContent_ZeroRowsMeansNotFound(t *testing.T) {
	db := &fakeDB{execResults: []int64{0}}
	engine := engineWithFake(t, db)

	err := engine.UpdateTextContent(context.Background(), testID(5), testID(1000), "edited")

	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, db.execs[0], `"author_id" =`)
}

func Test_SoftDeleteRecord_SetsMarkerOwnerScoped(t *testing.T) {
	db := &fakeDB{}
	engine := engineWithFake(t, db)

	require.NoError(t, engine.SoftDeleteRecord(context.Background(), testID(5), testID(1000)))

	sql := db.execs[0]
	assert.Contains(t, sql, `"deleted_at"=`)
	assert.Contains(t, sql, `"author_id" =`)
	assert.Contains(t, sql, `"deleted_at" IS NULL`)
}

func Test_PublishRecord_Success(t *testing.T) {
	db := &fakeDB{}
	engine := engineWithFake(t, db)

	require.NoError(t, engine.PublishRecord(context.Background(), testID(5), testID(1000)))

	sql := db.execs[0]
	assert.Contains(t, sql, `"published_at" IS NULL`, "publishing must be a once-only transition")
}

func Test_PublishRecord_AlreadyPublishedIsStateConflict(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db := &fakeDB{
		execResults:  []int64{0},
		queryResults: [][]listing.Record{{publishedRecord(5, at)}},
	}
	engine := engineWithFake(t, db)

	err := engine.PublishRecord(context.Background(), testID(5), testID(1000))

	assert.True(t, errs.IsStateConflict(err))
}

func Test_PublishRecord_MissingOrForeignIsNotFound(t *testing.T) {
	db := &fakeDB{
		execResults:  []int64{0},
		queryResults: [][]listing.Record{{}},
	}
	engine := engineWithFake(t, db)

	err := engine.PublishRecord(context.Background(), testID(5), testID(1000))

	assert.True(t, errs.IsNotFound(err))
}

/***** counters *****/

func Test_IncrementCounters_SingleAtomicStatement(t *testing.T) {
	db := &fakeDB{}
	engine := engineWithFake(t, db)

	err := engine.IncrementCounters(context.Background(), testID(5), listing.CounterSet{Views: 2, Comments: 1})

	require.NoError(t, err)
	require.Len(t, db.execs, 1, "all deltas must travel in one statement")

	sql := db.execs[0]
	assert.Contains(t, sql, "view_count + 2")
	assert.Contains(t, sql, "comment_count + 1")
	assert.Contains(t, sql, `"last_comment_at"`, "comment increments set the timestamp in the same statement")
	assert.NotContains(t, sql, "like_count +", "zero deltas are not written")
}

func Test_IncrementCounters_NoDeltasIsANoOp(t *testing.T) {
	db := &fakeDB{}
	engine := engineWithFake(t, db)

	require.NoError(t, engine.IncrementCounters(context.Background(), testID(5), listing.CounterSet{}))
	assert.Empty(t, db.execs)
}

/***** construction and failure paths *****/

func Test_NewEngine_RejectsNilConnections(t *testing.T) {
	_, err := NewEngineFromPGXPool(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromSQLDB(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewEngineFromSQLX(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)
}

func Test_NewEngine_RejectsInvalidOptions(t *testing.T) {
	_, err := newEngine(&fakeDB{}, WithTableName(""))
	assert.ErrorIs(t, err, ErrEmptyTableName)

	_, err = newEngine(&fakeDB{}, WithMaxPageSize(0))
	assert.ErrorIs(t, err, ErrInvalidMaxPageSize)
}

func Test_WithTableName_ChangesTheQueriedTable(t *testing.T) {
	db := &fakeDB{queryResults: [][]listing.Record{{}}}
	engine := engineWithFake(t, db, WithTableName("feed_posts"))

	_, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 10})

	require.NoError(t, err)
	assert.Contains(t, db.queries[0], `FROM "feed_posts"`)
}

func Test_QueryFailure_SurfacesAsInternal(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("connection refused")}
	engine := engineWithFake(t, db)

	_, err := engine.ListPublished(context.Background(), listing.BuildFilter(), listing.PageRequest{Limit: 10})

	require.Error(t, err)
	assert.Equal(t, errs.KindInternal, errs.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
