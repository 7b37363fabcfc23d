package listing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-labs/storefront-engine-go/entity"
	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
)

func Test_BuildRecord_StartsUnpublishedWithMonotonicID(t *testing.T) {
	author := listing.AuthorSnapshot{UserID: orderedID(1), DisplayName: "Maya", AuthorType: listing.AuthorTypeUser}

	first, err := listing.BuildRecord(listing.RecordTypeText, author, "hello")
	require.NoError(t, err)
	second, err := listing.BuildRecord(listing.RecordTypeText, author, "world")
	require.NoError(t, err)

	assert.Nil(t, first.PublishedAt)
	assert.Nil(t, first.DeletedAt)
	assert.False(t, first.IsPubliclyVisible())
	assert.Equal(t, uuid.Version(7), first.ID.Version())

	// UUIDv7 ids order by creation time, the property the tiebreak key relies on
	assert.True(t, listing.IDCursor{ID: second.ID}.Admits(first.ID))
}

func Test_BuildRecord_RejectsUnknownRecordType(t *testing.T) {
	_, err := listing.BuildRecord("poll", listing.AuthorSnapshot{}, "")

	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func Test_Record_VisibilityInvariant(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name        string
		publishedAt *time.Time
		deletedAt   *time.Time
		visible     bool
	}{
		{"published_not_deleted", &now, nil, true},
		{"unpublished", nil, nil, false},
		{"published_then_deleted", &now, &now, false},
		{"unpublished_and_deleted", nil, &now, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := listing.Record{PublishedAt: tc.publishedAt, DeletedAt: tc.deletedAt}
			assert.Equal(t, tc.visible, r.IsPubliclyVisible())
		})
	}
}

func Test_BuildAuthorSnapshot_FreezesSourceFields(t *testing.T) {
	user := entity.User{
		ID:          orderedID(3),
		DisplayName: "Maya",
		Avatar:      "https://cdn.example.com/avatars/maya.jpg",
	}

	snapshot := listing.BuildAuthorSnapshot(user, listing.AuthorTypeLeader)

	// later changes to the source must not leak into the snapshot
	user.DisplayName = "Renamed"
	user.Avatar = "https://cdn.example.com/avatars/new.jpg"

	assert.Equal(t, "Maya", snapshot.DisplayName)
	assert.Equal(t, "https://cdn.example.com/avatars/maya.jpg", snapshot.Avatar)
	assert.Equal(t, listing.AuthorTypeLeader, snapshot.AuthorType)
}

func Test_Record_Boundaries(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	record := listing.Record{ID: orderedID(5), PublishedAt: &at}

	boundary := record.Boundary()
	assert.True(t, boundary.SortValue.Equal(at))
	assert.Equal(t, orderedID(5), boundary.TiebreakID)

	assert.Equal(t, orderedID(5), record.IDBoundary().ID)
}
