package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/storefront-engine-go/entity"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

// RecordType discriminates the kinds of records a listing can carry.
type RecordType string

const (
	RecordTypeText  RecordType = "text"
	RecordTypeMedia RecordType = "media"
	RecordTypeLink  RecordType = "link"
)

// IsValid reports whether rt is one of the known record types.
func (rt RecordType) IsValid() bool {
	switch rt {
	case RecordTypeText, RecordTypeMedia, RecordTypeLink:
		return true
	default:
		return false
	}
}

// AuthorType discriminates who authored a record.
type AuthorType string

const (
	AuthorTypeUser   AuthorType = "user"
	AuthorTypeLeader AuthorType = "leader"
)

// AuthorSnapshot is the denormalized author reference embedded into a record at
// creation time. It deliberately does not update when the source user changes.
type AuthorSnapshot struct {
	UserID      uuid.UUID  `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Avatar      string     `json:"avatar"`
	AuthorType  AuthorType `json:"author_type"`
}

// BuildAuthorSnapshot freezes the author-facing fields of a live user.
func BuildAuthorSnapshot(user entity.User, authorType AuthorType) AuthorSnapshot {
	return AuthorSnapshot{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
		AuthorType:  authorType,
	}
}

// LinkPreview is the optional link attachment of a link record. Modeled as an
// explicit tagged struct, not an open-ended map, so the shape is checked at
// compile time.
type LinkPreview struct {
	URL         string  `json:"url"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	SiteName    *string `json:"site_name,omitempty"`
}

// MediaItem is one attached media object of a media record.
type MediaItem struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	AltText  string `json:"alt_text,omitempty"`
}

// CounterSet holds the denormalized engagement counters of a record. These are
// only ever mutated through atomic field-level increments in the store, never
// read-modify-write in application code.
type CounterSet struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
	Saves    int64
}

// Record is a generic paginated entity, e.g. a feed post. It is visible in a
// public listing iff DeletedAt is unset and PublishedAt is set.
type Record struct {
	ID            uuid.UUID
	RecordType    RecordType
	Author        AuthorSnapshot
	TextContent   string
	Link          *LinkPreview
	Media         []MediaItem
	Counters      CounterSet
	LastCommentAt *time.Time
	PublishedAt   *time.Time
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BuildRecord creates an unpublished record with a fresh UUIDv7 id.
// UUIDv7 ids are monotonically orderable, which is what makes them usable as the
// pagination tiebreak key.
func BuildRecord(recordType RecordType, author AuthorSnapshot, textContent string) (Record, error) {
	if !recordType.IsValid() {
		return Record{}, errs.Validation("unknown record type: " + string(recordType))
	}

	id, idErr := uuid.NewV7()
	if idErr != nil {
		return Record{}, errs.Internal("generating record id", idErr)
	}

	now := time.Now().UTC()

	return Record{
		ID:          id,
		RecordType:  recordType,
		Author:      author,
		TextContent: textContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsPubliclyVisible reports whether the record qualifies for public listings.
func (r Record) IsPubliclyVisible() bool {
	return r.DeletedAt == nil && r.PublishedAt != nil
}

// Boundary returns the compound pagination boundary of this record for
// published listings. Only meaningful for published records.
func (r Record) Boundary() Cursor {
	boundary := Cursor{TiebreakID: r.ID}

	if r.PublishedAt != nil {
		boundary.SortValue = *r.PublishedAt
	}

	return boundary
}

// IDBoundary returns the id-only pagination boundary of this record for
// owner-history listings.
func (r Record) IDBoundary() IDCursor {
	return IDCursor{ID: r.ID}
}
