// Package postgresengine implements the cursor pagination engine and the
// record store against Postgres. All SQL is built with goqu; the engine runs on
// pgxpool, database/sql, or sqlx connections through the shared adapters.
package postgresengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/velora-labs/storefront-engine-go/internal/adapters"
	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTableName = "records"
	dialectPostgres  = "postgres"

	colID                = "id"
	colRecordType        = "record_type"
	colAuthorID          = "author_id"
	colAuthorDisplayName = "author_display_name"
	colAuthorAvatar      = "author_avatar"
	colAuthorType        = "author_type"
	colTextContent       = "text_content"
	colLink              = "link"
	colMedia             = "media"
	colViewCount         = "view_count"
	colLikeCount         = "like_count"
	colCommentCount      = "comment_count"
	colShareCount        = "share_count"
	colSaveCount         = "save_count"
	colLastCommentAt     = "last_comment_at"
	colPublishedAt       = "published_at"
	colDeletedAt         = "deleted_at"
	colCreatedAt         = "created_at"
	colUpdatedAt         = "updated_at"

	castJsonb = "?::jsonb"

	msgRecordNotFound = "record not found"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgQueryFailed      = "database query execution failed"
	logMsgExecFailed       = "database statement execution failed"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "listing operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
	logAttrRecordCount     = "record_count"
	logAttrRecordID        = "record_id"

	metricQueryDuration = "storefront_listing_query_duration"
	metricOperations    = "storefront_listing_operations"
	labelOperation      = "operation"
)

// Engine is the Postgres cursor pagination engine over the records table.
// It owns every read and write of records: listings, owner-scoped mutations,
// and atomic counter increments.
type Engine struct {
	db               adapters.DBAdapter
	tableName        string
	maxPageSize      int
	logger           listing.Logger
	contextualLogger listing.ContextualLogger
	metrics          listing.MetricsCollector
}

// NewEngineFromPGXPool creates an Engine using a pgx pool with optional configuration.
func NewEngineFromPGXPool(pool *pgxpool.Pool, options ...Option) (Engine, error) {
	if pool == nil {
		return Engine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), options...)
}

// NewEngineFromSQLDB creates an Engine using a database/sql DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates an Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	engine := Engine{
		db:          db,
		tableName:   defaultTableName,
		maxPageSize: listing.DefaultMaxPageSize,
	}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return Engine{}, err
		}
	}

	return engine, nil
}

// ListPublished returns one page of publicly visible records in
// (published_at DESC, id DESC) order. Repeated calls chaining the returned
// cursor visit every qualifying record exactly once, even when many records
// share a published_at value — the cursor boundary compares the tiebreak id
// whenever the sort value ties.
//
// A cursor pointing past the end of the data yields an empty page, not an error.
func (e Engine) ListPublished(
	ctx context.Context,
	filter listing.Filter,
	pageRequest listing.PageRequest,
) (listing.Page[listing.Record], error) {

	var empty listing.Page[listing.Record]

	pageRequest = pageRequest.Normalize(e.maxPageSize)

	stmt := e.selectRecords().
		Where(goqu.C(colDeletedAt).IsNull(), goqu.C(colPublishedAt).IsNotNull()).
		Order(goqu.I(colPublishedAt).Desc(), goqu.I(colID).Desc()).
		Limit(uint(pageRequest.Limit) + 1)

	stmt = addFilterClauses(stmt, filter)

	if pageRequest.Cursor != nil {
		stmt = stmt.Where(compoundBoundary(*pageRequest.Cursor))
	}

	rows, err := e.queryRecords(ctx, "list_published", stmt)
	if err != nil {
		return empty, err
	}

	page := listing.ResolvePage(rows, pageRequest.Limit, listing.Record.Boundary)

	e.logOperation(ctx, logMsgOperation+"list_published", logAttrRecordCount, len(page.Items))

	return page, nil
}

// ListOwnerHistory returns one page of an owner's own records — published or
// not, soft-deleted excluded — in id DESC order using the simple id-only cursor
// mode. This mode is valid here and only here: record ids are UUIDv7, so the id
// itself is unique and ordered consistently with creation time. Public listings
// sort by published_at, which can tie, and must use the compound mode instead.
func (e Engine) ListOwnerHistory(
	ctx context.Context,
	ownerID uuid.UUID,
	cursor *listing.IDCursor,
	limit int,
) (listing.Page[listing.Record], error) {

	var empty listing.Page[listing.Record]

	normalized := listing.PageRequest{Limit: limit}.Normalize(e.maxPageSize)

	stmt := e.selectRecords().
		Where(goqu.C(colAuthorID).Eq(ownerID.String()), goqu.C(colDeletedAt).IsNull()).
		Order(goqu.I(colID).Desc()).
		Limit(uint(normalized.Limit) + 1)

	if cursor != nil {
		stmt = stmt.Where(goqu.C(colID).Lt(cursor.ID.String()))
	}

	rows, err := e.queryRecords(ctx, "list_owner_history", stmt)
	if err != nil {
		return empty, err
	}

	page := listing.ResolveIDPage(rows, normalized.Limit, listing.Record.IDBoundary)

	e.logOperation(ctx, logMsgOperation+"list_owner_history", logAttrRecordCount, len(page.Items))

	return page, nil
}

// GetPublishedRecord fetches one publicly visible record by id.
func (e Engine) GetPublishedRecord(ctx context.Context, recordID uuid.UUID) (listing.Record, error) {
	stmt := e.selectRecords().
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colDeletedAt).IsNull(),
			goqu.C(colPublishedAt).IsNotNull(),
		).
		Limit(1)

	return e.querySingleRecord(ctx, "get_published_record", stmt)
}

// GetOwnedRecord fetches one record on behalf of its owner. The ownership
// condition is part of the lookup predicate itself, so a record that exists but
// belongs to someone else produces the identical not-found outcome as a record
// that does not exist at all.
func (e Engine) GetOwnedRecord(ctx context.Context, recordID uuid.UUID, ownerID uuid.UUID) (listing.Record, error) {
	stmt := e.selectRecords().
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colAuthorID).Eq(ownerID.String()),
			goqu.C(colDeletedAt).IsNull(),
		).
		Limit(1)

	return e.querySingleRecord(ctx, "get_owned_record", stmt)
}

// InsertRecord stores a freshly built record.
func (e Engine) InsertRecord(ctx context.Context, record listing.Record) error {
	row, buildErr := e.buildInsertRow(record)
	if buildErr != nil {
		return buildErr
	}

	stmt := goqu.Dialect(dialectPostgres).
		Insert(e.tableName).
		Rows(row)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errs.Internal("building insert query", toSQLErr)
	}

	if _, err := e.execStatement(ctx, "insert_record", sqlQuery); err != nil {
		return err
	}

	e.logOperation(ctx, logMsgOperation+"insert_record", logAttrRecordID, record.ID.String())

	return nil
}

// UpdateTextContent replaces the text content of an owner's record.
// Absent and foreign records fail identically.
func (e Engine) UpdateTextContent(ctx context.Context, recordID uuid.UUID, ownerID uuid.UUID, textContent string) error {
	stmt := goqu.Dialect(dialectPostgres).
		Update(e.tableName).
		Set(goqu.Record{
			colTextContent: textContent,
			colUpdatedAt:   time.Now().UTC(),
		}).
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colAuthorID).Eq(ownerID.String()),
			goqu.C(colDeletedAt).IsNull(),
		)

	return e.execOwnerScopedUpdate(ctx, "update_text_content", stmt)
}

// PublishRecord sets the publication timestamp of an owner's record, making it
// visible in public listings. Publishing an already-published record fails with
// a state conflict; absent and foreign records fail identically with not-found.
func (e Engine) PublishRecord(ctx context.Context, recordID uuid.UUID, ownerID uuid.UUID) error {
	now := time.Now().UTC()

	stmt := goqu.Dialect(dialectPostgres).
		Update(e.tableName).
		Set(goqu.Record{
			colPublishedAt: now,
			colUpdatedAt:   now,
		}).
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colAuthorID).Eq(ownerID.String()),
			goqu.C(colDeletedAt).IsNull(),
			goqu.C(colPublishedAt).IsNull(),
		)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errs.Internal("building publish query", toSQLErr)
	}

	rowsAffected, execErr := e.execStatement(ctx, "publish_record", sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		// Zero rows means either "no such visible record for this owner" or
		// "already published". Only an owner-scoped re-read may tell them apart.
		if _, getErr := e.GetOwnedRecord(ctx, recordID, ownerID); getErr != nil {
			return getErr
		}

		return errs.StateConflict("record is already published")
	}

	e.logOperation(ctx, logMsgOperation+"publish_record", logAttrRecordID, recordID.String())

	return nil
}

// SoftDeleteRecord marks an owner's record as deleted. Records are never hard
// deleted; terminal visibility is a flag, not a removal.
func (e Engine) SoftDeleteRecord(ctx context.Context, recordID uuid.UUID, ownerID uuid.UUID) error {
	now := time.Now().UTC()

	stmt := goqu.Dialect(dialectPostgres).
		Update(e.tableName).
		Set(goqu.Record{
			colDeletedAt: now,
			colUpdatedAt: now,
		}).
		Where(
			goqu.C(colID).Eq(recordID.String()),
			goqu.C(colAuthorID).Eq(ownerID.String()),
			goqu.C(colDeletedAt).IsNull(),
		)

	return e.execOwnerScopedUpdate(ctx, "soft_delete_record", stmt)
}

// IncrementCounters applies counter deltas as a single atomic statement:
// every field is mutated as "field = field + n" so concurrent increments
// compose losslessly, and the comment timestamp travels in the same statement
// so no inconsistent intermediate state is ever visible.
func (e Engine) IncrementCounters(ctx context.Context, recordID uuid.UUID, deltas listing.CounterSet) error {
	updates := goqu.Record{}

	counterColumns := []struct {
		column string
		delta  int64
	}{
		{colViewCount, deltas.Views},
		{colLikeCount, deltas.Likes},
		{colCommentCount, deltas.Comments},
		{colShareCount, deltas.Shares},
		{colSaveCount, deltas.Saves},
	}

	for _, counter := range counterColumns {
		if counter.delta != 0 {
			updates[counter.column] = goqu.L(counter.column+" + ?", counter.delta)
		}
	}

	if len(updates) == 0 {
		return nil
	}

	if deltas.Comments > 0 {
		updates[colLastCommentAt] = time.Now().UTC()
	}

	stmt := goqu.Dialect(dialectPostgres).
		Update(e.tableName).
		Set(updates).
		Where(goqu.C(colID).Eq(recordID.String()), goqu.C(colDeletedAt).IsNull())

	return e.execOwnerScopedUpdate(ctx, "increment_counters", stmt)
}

func (e Engine) selectRecords() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(e.tableName).
		Select(
			colID, colRecordType,
			colAuthorID, colAuthorDisplayName, colAuthorAvatar, colAuthorType,
			colTextContent, colLink, colMedia,
			colViewCount, colLikeCount, colCommentCount, colShareCount, colSaveCount,
			colLastCommentAt, colPublishedAt, colDeletedAt, colCreatedAt, colUpdatedAt,
		)
}

// compoundBoundary builds the tiebreak predicate for descending listings:
// rows strictly older than the boundary, or tied on the sort value with a
// strictly smaller id. A plain published_at comparison would skip or duplicate
// rows sharing the boundary's sort value across the page break.
func compoundBoundary(cursor listing.Cursor) goqu.Expression {
	return goqu.Or(
		goqu.C(colPublishedAt).Lt(cursor.SortValue),
		goqu.And(
			goqu.C(colPublishedAt).Eq(cursor.SortValue),
			goqu.C(colID).Lt(cursor.TiebreakID.String()),
		),
	)
}

func addFilterClauses(stmt *goqu.SelectDataset, filter listing.Filter) *goqu.SelectDataset {
	if authorID, ok := filter.AuthorID(); ok {
		stmt = stmt.Where(goqu.C(colAuthorID).Eq(authorID.String()))
	}

	if recordType, ok := filter.RecordType(); ok {
		stmt = stmt.Where(goqu.C(colRecordType).Eq(string(recordType)))
	}

	if from := filter.PublishedFromBound(); !from.IsZero() {
		stmt = stmt.Where(goqu.C(colPublishedAt).Gte(from))
	}

	if until := filter.PublishedUntilBound(); !until.IsZero() {
		stmt = stmt.Where(goqu.C(colPublishedAt).Lte(until))
	}

	return stmt
}

func (e Engine) buildInsertRow(record listing.Record) (goqu.Record, error) {
	row := goqu.Record{
		colID:                record.ID.String(),
		colRecordType:        string(record.RecordType),
		colAuthorID:          record.Author.UserID.String(),
		colAuthorDisplayName: record.Author.DisplayName,
		colAuthorAvatar:      record.Author.Avatar,
		colAuthorType:        string(record.Author.AuthorType),
		colTextContent:       record.TextContent,
		colViewCount:         record.Counters.Views,
		colLikeCount:         record.Counters.Likes,
		colCommentCount:      record.Counters.Comments,
		colShareCount:        record.Counters.Shares,
		colSaveCount:         record.Counters.Saves,
		colLastCommentAt:     record.LastCommentAt,
		colPublishedAt:       record.PublishedAt,
		colDeletedAt:         record.DeletedAt,
		colCreatedAt:         record.CreatedAt,
		colUpdatedAt:         record.UpdatedAt,
	}

	if record.Link != nil {
		linkJSON, marshalErr := json.Marshal(record.Link)
		if marshalErr != nil {
			return nil, errs.Internal("marshalling link preview", marshalErr)
		}

		row[colLink] = goqu.L(castJsonb, string(linkJSON))
	}

	if len(record.Media) > 0 {
		mediaJSON, marshalErr := json.Marshal(record.Media)
		if marshalErr != nil {
			return nil, errs.Internal("marshalling media items", marshalErr)
		}

		row[colMedia] = goqu.L(castJsonb, string(mediaJSON))
	}

	return row, nil
}

func (e Engine) queryRecords(ctx context.Context, operation string, stmt *goqu.SelectDataset) ([]listing.Record, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errs.Internal("building select query", toSQLErr)
	}

	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.observeQuery(ctx, operation, sqlQuery, duration)

	if queryErr != nil {
		e.logError(ctx, logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errs.Internal("querying records", queryErr)
	}
	defer e.closeRows(ctx, rows)

	records := make([]listing.Record, 0)

	for rows.Next() {
		record, scanErr := e.scanRecord(rows)
		if scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errs.Internal("scanning record row", scanErr)
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		e.logError(ctx, logMsgQueryFailed, logAttrError, rowsErr.Error())
		return nil, errs.Internal("iterating record rows", rowsErr)
	}

	return records, nil
}

func (e Engine) querySingleRecord(ctx context.Context, operation string, stmt *goqu.SelectDataset) (listing.Record, error) {
	records, err := e.queryRecords(ctx, operation, stmt)
	if err != nil {
		return listing.Record{}, err
	}

	if len(records) == 0 {
		return listing.Record{}, errs.NotFound(msgRecordNotFound)
	}

	return records[0], nil
}

func (e Engine) scanRecord(rows adapters.DBRows) (listing.Record, error) {
	var record listing.Record
	var linkJSON, mediaJSON []byte

	scanErr := rows.Scan(
		&record.ID, &record.RecordType,
		&record.Author.UserID, &record.Author.DisplayName, &record.Author.Avatar, &record.Author.AuthorType,
		&record.TextContent, &linkJSON, &mediaJSON,
		&record.Counters.Views, &record.Counters.Likes, &record.Counters.Comments,
		&record.Counters.Shares, &record.Counters.Saves,
		&record.LastCommentAt, &record.PublishedAt, &record.DeletedAt,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if scanErr != nil {
		return listing.Record{}, scanErr
	}

	if len(linkJSON) > 0 {
		record.Link = &listing.LinkPreview{}
		if unmarshalErr := json.Unmarshal(linkJSON, record.Link); unmarshalErr != nil {
			return listing.Record{}, unmarshalErr
		}
	}

	if len(mediaJSON) > 0 {
		if unmarshalErr := json.Unmarshal(mediaJSON, &record.Media); unmarshalErr != nil {
			return listing.Record{}, unmarshalErr
		}
	}

	return record, nil
}

func (e Engine) execOwnerScopedUpdate(ctx context.Context, operation string, stmt *goqu.UpdateDataset) error {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		e.logError(ctx, logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errs.Internal("building update query", toSQLErr)
	}

	rowsAffected, execErr := e.execStatement(ctx, operation, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return errs.NotFound(msgRecordNotFound)
	}

	e.logOperation(ctx, logMsgOperation+operation)

	return nil
}

func (e Engine) execStatement(ctx context.Context, operation string, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	e.observeQuery(ctx, operation, sqlQuery, duration)

	if execErr != nil {
		e.logError(ctx, logMsgExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return 0, errs.Internal("executing statement", execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logError(ctx, logMsgExecFailed, logAttrError, rowsAffectedErr.Error())
		return 0, errs.Internal("reading rows affected", rowsAffectedErr)
	}

	return rowsAffected, nil
}

func (e Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (e Engine) observeQuery(ctx context.Context, operation string, sqlQuery string, duration time.Duration) {
	e.logDebug(ctx, logMsgSQLExecuted+operation, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)

	if e.metrics != nil {
		labels := map[string]string{labelOperation: operation}
		e.metrics.RecordDuration(metricQueryDuration, duration, labels)
		e.metrics.IncrementCounter(metricOperations, labels)
	}
}

func (e Engine) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.DebugContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Debug(msg, args...)
	}
}

func (e Engine) logOperation(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.InfoContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Info(msg, args...)
	}
}

func (e Engine) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.WarnContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Warn(msg, args...)
	}
}

func (e Engine) logError(ctx context.Context, msg string, args ...any) {
	switch {
	case e.contextualLogger != nil:
		e.contextualLogger.ErrorContext(ctx, msg, args...)
	case e.logger != nil:
		e.logger.Error(msg, args...)
	}
}

func durationToMilliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
