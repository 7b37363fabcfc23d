package listing

const (
	// DefaultPageSize is used when a caller supplies no limit or a non-positive one.
	DefaultPageSize = 20

	// DefaultMaxPageSize is the clamp ceiling engines use unless configured otherwise.
	DefaultMaxPageSize = 100
)

// PageRequest is a caller's request for one page of a listing.
// Cursor is nil for the first page.
type PageRequest struct {
	Limit  int
	Cursor *Cursor
}

// Normalize clamps the limit into [1, maxLimit]. Out-of-range limits are
// silently capped, never rejected. A non-positive maxLimit falls back to
// DefaultMaxPageSize.
func (r PageRequest) Normalize(maxLimit int) PageRequest {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxPageSize
	}

	normalized := r

	if normalized.Limit <= 0 {
		normalized.Limit = DefaultPageSize
	}

	if normalized.Limit > maxLimit {
		normalized.Limit = maxLimit
	}

	return normalized
}

// Page is one page of a listing. NextCursor is empty on the final page and on
// empty pages; HasMore reports whether chaining NextCursor would yield more rows.
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// ResolvePage turns a limit+1 row fetch into a Page: when more than limit rows
// came back the extra row is dropped and HasMore is set. The next cursor is
// encoded from the boundary of the last returned row, so a follow-up request
// resumes exactly after it.
func ResolvePage[T any](rows []T, limit int, boundary func(T) Cursor) Page[T] {
	page := Page[T]{}

	if len(rows) > limit {
		page.HasMore = true
		rows = rows[:limit]
	}

	page.Items = rows

	if len(rows) > 0 {
		page.NextCursor = boundary(rows[len(rows)-1]).Encode()
	}

	return page
}

// ResolveIDPage is ResolvePage for id-ordered listings using the simple cursor mode.
func ResolveIDPage[T any](rows []T, limit int, boundary func(T) IDCursor) Page[T] {
	page := Page[T]{}

	if len(rows) > limit {
		page.HasMore = true
		rows = rows[:limit]
	}

	page.Items = rows

	if len(rows) > 0 {
		page.NextCursor = boundary(rows[len(rows)-1]).Encode()
	}

	return page
}
