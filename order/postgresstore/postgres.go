// Package postgresstore persists order aggregates in Postgres. All SQL is
// built with goqu; the store runs on pgxpool, database/sql, or sqlx connections
// through the shared adapters.
package postgresstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/velora-labs/storefront-engine-go/internal/adapters"
	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/order"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTableName = "orders"
	dialectPostgres  = "postgres"

	colID              = "id"
	colOrderNumber     = "order_number"
	colCustomerID      = "customer_id"
	colCustomer        = "customer"
	colShippingAddress = "shipping_address"
	colItems           = "items"
	colStatus          = "status"
	colCancelReason    = "cancel_reason"
	colTotalCents      = "total_cents"
	colCreatedAt       = "created_at"
	colUpdatedAt       = "updated_at"

	castJsonb = "?::jsonb"

	msgOrderNotFound = "order not found"

	uniqueViolationCode = "23505"
)

// Store is the Postgres implementation of order.Store. Every read predicate
// includes the customer id, so foreign and missing orders are indistinguishable.
type Store struct {
	db               adapters.DBAdapter
	tableName        string
	logger           order.Logger
	contextualLogger order.ContextualLogger
}

// NewStoreFromPGXPool creates a Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (Store, error) {
	if pool == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(pool), options...)
}

// NewStoreFromSQLDB creates a Store using a database/sql DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	store := Store{
		db:        db,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return Store{}, err
		}
	}

	return store, nil
}

// Insert writes a new order aggregate. A unique violation surfaces as Conflict:
// order ids are UUIDv7 and cannot realistically collide, so the only unique
// constraint this insert can trip is the order number. The caller regenerates
// the number and retries.
func (s Store) Insert(ctx context.Context, o order.Order) error {
	row, buildErr := s.buildInsertRow(o)
	if buildErr != nil {
		return buildErr
	}

	stmt := goqu.Dialect(dialectPostgres).
		Insert(s.tableName).
		Rows(row)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, "failed to build sql query", "error", toSQLErr.Error())
		return errs.Internal("building insert query", toSQLErr)
	}

	if _, execErr := s.db.Exec(ctx, sqlQuery); execErr != nil {
		if isUniqueViolation(execErr) {
			return errs.Conflict("order number already taken")
		}

		s.logError(ctx, "database statement execution failed", "error", execErr.Error())

		return errs.Internal("inserting order", execErr)
	}

	s.logOperation(ctx, "order store operation: insert", "order_id", o.ID.String())

	return nil
}

// GetForCustomer loads one aggregate scoped to its owning customer.
func (s Store) GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (order.Order, error) {
	stmt := s.selectOrders().
		Where(
			goqu.C(colID).Eq(orderID.String()),
			goqu.C(colCustomerID).Eq(customerID.String()),
		).
		Limit(1)

	orders, err := s.queryOrders(ctx, stmt)
	if err != nil {
		return order.Order{}, err
	}

	if len(orders) == 0 {
		return order.Order{}, errs.NotFound(msgOrderNotFound)
	}

	return orders[0], nil
}

// UpdateAggregate writes status, cancel reason, items and the update timestamp
// as one statement, so a cancellation cascade can never be observed half-applied.
func (s Store) UpdateAggregate(ctx context.Context, o order.Order) error {
	itemsJSON, marshalErr := json.Marshal(o.Items)
	if marshalErr != nil {
		return errs.Internal("marshalling order items", marshalErr)
	}

	stmt := goqu.Dialect(dialectPostgres).
		Update(s.tableName).
		Set(goqu.Record{
			colStatus:       string(o.Status),
			colCancelReason: o.CancelReason,
			colItems:        goqu.L(castJsonb, string(itemsJSON)),
			colUpdatedAt:    o.UpdatedAt,
		}).
		Where(goqu.C(colID).Eq(o.ID.String()))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, "failed to build sql query", "error", toSQLErr.Error())
		return errs.Internal("building update query", toSQLErr)
	}

	result, execErr := s.db.Exec(ctx, sqlQuery)
	if execErr != nil {
		s.logError(ctx, "database statement execution failed", "error", execErr.Error())
		return errs.Internal("updating order", execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return errs.Internal("reading rows affected", rowsAffectedErr)
	}

	if rowsAffected == 0 {
		return errs.NotFound(msgOrderNotFound)
	}

	s.logOperation(ctx, "order store operation: update_aggregate", "order_id", o.ID.String())

	return nil
}

// ListForCustomer returns up to limit orders of one customer in
// (created_at DESC, id DESC) order, resuming after the compound cursor boundary
// when one is given. Callers pass limit+1 to detect further pages.
func (s Store) ListForCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	statusFilter *order.OrderStatus,
	cursor *listing.Cursor,
	limit int,
) ([]order.Order, error) {

	stmt := s.selectOrders().
		Where(goqu.C(colCustomerID).Eq(customerID.String())).
		Order(goqu.I(colCreatedAt).Desc(), goqu.I(colID).Desc()).
		Limit(uint(limit))

	if statusFilter != nil {
		stmt = stmt.Where(goqu.C(colStatus).Eq(string(*statusFilter)))
	}

	if cursor != nil {
		stmt = stmt.Where(goqu.Or(
			goqu.C(colCreatedAt).Lt(cursor.SortValue),
			goqu.And(
				goqu.C(colCreatedAt).Eq(cursor.SortValue),
				goqu.C(colID).Lt(cursor.TiebreakID.String()),
			),
		))
	}

	return s.queryOrders(ctx, stmt)
}

func (s Store) selectOrders() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(s.tableName).
		Select(
			colID, colOrderNumber, colCustomer, colShippingAddress, colItems,
			colStatus, colCancelReason, colTotalCents, colCreatedAt, colUpdatedAt,
		)
}

func (s Store) buildInsertRow(o order.Order) (goqu.Record, error) {
	customerJSON, customerErr := json.Marshal(o.Customer)
	if customerErr != nil {
		return nil, errs.Internal("marshalling customer snapshot", customerErr)
	}

	addressJSON, addressErr := json.Marshal(o.ShippingAddress)
	if addressErr != nil {
		return nil, errs.Internal("marshalling shipping address", addressErr)
	}

	itemsJSON, itemsErr := json.Marshal(o.Items)
	if itemsErr != nil {
		return nil, errs.Internal("marshalling order items", itemsErr)
	}

	return goqu.Record{
		colID:              o.ID.String(),
		colOrderNumber:     o.Number,
		colCustomerID:      o.Customer.UserID.String(),
		colCustomer:        goqu.L(castJsonb, string(customerJSON)),
		colShippingAddress: goqu.L(castJsonb, string(addressJSON)),
		colItems:           goqu.L(castJsonb, string(itemsJSON)),
		colStatus:          string(o.Status),
		colCancelReason:    o.CancelReason,
		colTotalCents:      o.TotalCents,
		colCreatedAt:       o.CreatedAt,
		colUpdatedAt:       o.UpdatedAt,
	}, nil
}

func (s Store) queryOrders(ctx context.Context, stmt *goqu.SelectDataset) ([]order.Order, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(ctx, "failed to build sql query", "error", toSQLErr.Error())
		return nil, errs.Internal("building select query", toSQLErr)
	}

	rows, queryErr := s.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		s.logError(ctx, "database query execution failed", "error", queryErr.Error(), "query", sqlQuery)
		return nil, errs.Internal("querying orders", queryErr)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logWarn(ctx, "failed to close database rows", "error", closeErr.Error())
		}
	}()

	orders := make([]order.Order, 0)

	for rows.Next() {
		o, scanErr := s.scanOrder(rows)
		if scanErr != nil {
			s.logError(ctx, "failed to scan database row", "error", scanErr.Error())
			return nil, errs.Internal("scanning order row", scanErr)
		}

		orders = append(orders, o)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, errs.Internal("iterating order rows", rowsErr)
	}

	return orders, nil
}

func (s Store) scanOrder(rows adapters.DBRows) (order.Order, error) {
	var o order.Order
	var customerJSON, addressJSON, itemsJSON []byte

	scanErr := rows.Scan(
		&o.ID, &o.Number, &customerJSON, &addressJSON, &itemsJSON,
		&o.Status, &o.CancelReason, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt,
	)
	if scanErr != nil {
		return order.Order{}, scanErr
	}

	if unmarshalErr := json.Unmarshal(customerJSON, &o.Customer); unmarshalErr != nil {
		return order.Order{}, unmarshalErr
	}

	if unmarshalErr := json.Unmarshal(addressJSON, &o.ShippingAddress); unmarshalErr != nil {
		return order.Order{}, unmarshalErr
	}

	if len(itemsJSON) > 0 {
		if unmarshalErr := json.Unmarshal(itemsJSON, &o.Items); unmarshalErr != nil {
			return order.Order{}, unmarshalErr
		}
	}

	return o, nil
}

// isUniqueViolation recognizes Postgres unique violations from both the pgx and
// the lib/pq driver paths.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}

	return false
}

func (s Store) logOperation(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.InfoContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Info(msg, args...)
	}
}

func (s Store) logWarn(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.WarnContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Warn(msg, args...)
	}
}

func (s Store) logError(ctx context.Context, msg string, args ...any) {
	switch {
	case s.contextualLogger != nil:
		s.contextualLogger.ErrorContext(ctx, msg, args...)
	case s.logger != nil:
		s.logger.Error(msg, args...)
	}
}

// interface guard
var _ order.Store = Store{}
