// Package order implements the order lifecycle engine.
//
// An Order is an aggregate of line items, each carrying a frozen product
// snapshot and its own fulfillment status. Status changes funnel through a
// single transition table: explicit calls (confirm, cancel) are validated
// against it, and fulfillment-driven recomputation only applies a derived
// status when it is reachable from the current one. Orders are never deleted;
// terminal statuses are resting states.
//
// Snapshots are copied from live entities exactly once, at order placement.
// Later changes to the customer or catalog never alter a placed order:
// historical correctness wins over current accuracy.
package order
