package listing

import (
	"time"

	"github.com/google/uuid"
)

// Filter narrows a public listing with caller-supplied equality and range
// conditions. The base visibility predicate (not soft-deleted, published) is not
// part of the filter — engines always apply it.
//
// The zero Filter matches every publicly visible record.
type Filter struct {
	authorID       *uuid.UUID
	recordType     *RecordType
	publishedFrom  time.Time
	publishedUntil time.Time
}

// BuildFilter starts an empty listing filter.
func BuildFilter() Filter {
	return Filter{}
}

// WithAuthor restricts the listing to records authored by the given user.
func (f Filter) WithAuthor(authorID uuid.UUID) Filter {
	f.authorID = &authorID
	return f
}

// WithRecordType restricts the listing to a single record type.
func (f Filter) WithRecordType(recordType RecordType) Filter {
	f.recordType = &recordType
	return f
}

// PublishedFrom restricts the listing to records published at or after t.
func (f Filter) PublishedFrom(t time.Time) Filter {
	f.publishedFrom = t
	return f
}

// PublishedUntil restricts the listing to records published at or before t.
func (f Filter) PublishedUntil(t time.Time) Filter {
	f.publishedUntil = t
	return f
}

// AuthorID returns the author restriction, if any.
func (f Filter) AuthorID() (uuid.UUID, bool) {
	if f.authorID == nil {
		return uuid.Nil, false
	}

	return *f.authorID, true
}

// RecordType returns the record-type restriction, if any.
func (f Filter) RecordType() (RecordType, bool) {
	if f.recordType == nil {
		return "", false
	}

	return *f.recordType, true
}

// PublishedFromBound returns the lower publication-time bound; zero means unbounded.
func (f Filter) PublishedFromBound() time.Time {
	return f.publishedFrom
}

// PublishedUntilBound returns the upper publication-time bound; zero means unbounded.
func (f Filter) PublishedUntilBound() time.Time {
	return f.publishedUntil
}
