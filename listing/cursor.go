package listing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	cursorModeCompound = "sv"
	cursorModeID       = "id"
)

var (
	errEmptyCursorToken   = errors.New("cursor token is empty")
	errCursorModeMismatch = errors.New("cursor token was minted for a different listing mode")
	errZeroSortValue      = errors.New("cursor sort value is zero")
	errZeroTiebreakID     = errors.New("cursor tiebreak id is zero")
)

// cursorToken is the wire layout of an encoded cursor. Clients must treat the
// token as a black box; this layout is not stable across engine versions.
type cursorToken struct {
	Mode       string `json:"m"`
	SortValue  int64  `json:"s,omitempty"` // unix microseconds
	TiebreakID string `json:"id"`
}

// Cursor is the pagination boundary of a compound-ordered listing, captured from
// the last row of the previous page: the primary sort value plus the monotonic
// record id that disambiguates rows sharing the sort value.
type Cursor struct {
	SortValue  time.Time
	TiebreakID uuid.UUID
}

// Encode packs the cursor into an opaque, URL-safe token.
func (c Cursor) Encode() string {
	payload, _ := json.Marshal(cursorToken{
		Mode:       cursorModeCompound,
		SortValue:  c.SortValue.UnixMicro(),
		TiebreakID: c.TiebreakID.String(),
	})

	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeCursor parses an opaque token back into a compound Cursor.
// Any malformed, tampered, or wrong-mode token fails with an invalid-cursor
// error — it is never silently treated as "no cursor".
func DecodeCursor(token string) (Cursor, error) {
	parsed, decodeErr := decodeToken(token, cursorModeCompound)
	if decodeErr != nil {
		return Cursor{}, errs.InvalidCursor(decodeErr)
	}

	if parsed.SortValue == 0 {
		return Cursor{}, errs.InvalidCursor(errZeroSortValue)
	}

	tiebreakID, parseErr := uuid.Parse(parsed.TiebreakID)
	if parseErr != nil {
		return Cursor{}, errs.InvalidCursor(parseErr)
	}

	if tiebreakID == uuid.Nil {
		return Cursor{}, errs.InvalidCursor(errZeroTiebreakID)
	}

	return Cursor{
		SortValue:  time.UnixMicro(parsed.SortValue).UTC(),
		TiebreakID: tiebreakID,
	}, nil
}

// Admits reports whether a row with the given sort value and id lies strictly
// beyond this boundary in a descending listing — i.e. the row has not been
// returned on an earlier page. This is the reference semantics of the compound
// tiebreak predicate the DB engines compile into SQL:
//
//	sort_value < boundary.sort_value
//	OR (sort_value = boundary.sort_value AND id < boundary.tiebreak_id)
func (c Cursor) Admits(sortValue time.Time, id uuid.UUID) bool {
	if sortValue.Before(c.SortValue) {
		return true
	}

	if sortValue.Equal(c.SortValue) {
		return bytes.Compare(id[:], c.TiebreakID[:]) < 0
	}

	return false
}

// IDCursor is the pagination boundary of an id-ordered listing. Valid only where
// the record id itself is unique and monotonic with the listing order (owner
// history); everywhere else the compound Cursor must be used.
type IDCursor struct {
	ID uuid.UUID
}

// Encode packs the cursor into an opaque, URL-safe token.
func (c IDCursor) Encode() string {
	payload, _ := json.Marshal(cursorToken{
		Mode:       cursorModeID,
		TiebreakID: c.ID.String(),
	})

	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeIDCursor parses an opaque token back into an IDCursor, rejecting
// malformed tokens and tokens minted for the compound mode.
func DecodeIDCursor(token string) (IDCursor, error) {
	parsed, decodeErr := decodeToken(token, cursorModeID)
	if decodeErr != nil {
		return IDCursor{}, errs.InvalidCursor(decodeErr)
	}

	id, parseErr := uuid.Parse(parsed.TiebreakID)
	if parseErr != nil {
		return IDCursor{}, errs.InvalidCursor(parseErr)
	}

	if id == uuid.Nil {
		return IDCursor{}, errs.InvalidCursor(errZeroTiebreakID)
	}

	return IDCursor{ID: id}, nil
}

// Admits reports whether the row id lies strictly beyond this boundary in a
// descending id-ordered listing.
func (c IDCursor) Admits(id uuid.UUID) bool {
	return bytes.Compare(id[:], c.ID[:]) < 0
}

func decodeToken(token string, expectedMode string) (cursorToken, error) {
	if token == "" {
		return cursorToken{}, errEmptyCursorToken
	}

	raw, base64Err := base64.RawURLEncoding.DecodeString(token)
	if base64Err != nil {
		return cursorToken{}, base64Err
	}

	var parsed cursorToken
	if unmarshalErr := json.Unmarshal(raw, &parsed); unmarshalErr != nil {
		return cursorToken{}, unmarshalErr
	}

	if parsed.Mode != expectedMode {
		return cursorToken{}, errCursorModeMismatch
	}

	return parsed, nil
}
