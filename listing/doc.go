// Package listing implements the storage-agnostic core of cursor pagination over
// append-heavy record collections: the opaque cursor codec, page-size clamping,
// limit+1 page resolution, and the listing filter that DB-specific engines compile
// into queries.
//
// Two cursor modes exist and must not be mixed:
//
//   - Cursor carries a (sort value, tiebreak id) pair and is the default for
//     public listings ordered by a possibly-duplicated timestamp. The compound
//     boundary is what keeps pages gap-free and duplicate-free when many records
//     share a sort value.
//   - IDCursor carries only a monotonic record id and is valid solely for
//     owner-history listings ordered by id itself, where the id is unique and
//     ordered consistently with creation time.
//
// Tokens are opaque to clients; their internal layout carries a mode marker so a
// token minted for one mode is rejected by the other.
package listing
