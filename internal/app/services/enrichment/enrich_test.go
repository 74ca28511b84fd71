package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
)

func TestEnrichAttachesCommentsByPostID(t *testing.T) {
	users := []user.User{{ID: 5, Name: "Chelsey"}}
	posts := []user.Post{{ID: 1, UserID: 5}, {ID: 2, UserID: 5}}
	comments := []user.Comment{{ID: 9, PostID: 1}, {ID: 10, PostID: 99}}

	enrichedUsers, enrichedPosts := Enrich(users, posts, comments)

	require.Len(t, enrichedPosts, 2)
	assert.Equal(t, []user.Comment{{ID: 9, PostID: 1}}, enrichedPosts[0].Comments)
	assert.NotNil(t, enrichedPosts[1].Comments)
	assert.Empty(t, enrichedPosts[1].Comments)

	require.Len(t, enrichedUsers, 1)
	require.Len(t, enrichedUsers[0].Posts, 2)
	assert.Equal(t, enrichedPosts, enrichedUsers[0].Posts)

	for _, p := range enrichedPosts {
		for _, c := range p.Comments {
			assert.NotEqual(t, int64(10), c.ID, "orphaned comment must not be embedded")
		}
	}

	orphans := Orphans(users, posts, comments)
	assert.Equal(t, OrphanCounts{Posts: 0, Comments: 1}, orphans)
}

func TestEnrichPreservesInputOrder(t *testing.T) {
	users := []user.User{{ID: 2}, {ID: 1}}
	posts := []user.Post{{ID: 30, UserID: 1}, {ID: 10, UserID: 2}, {ID: 20, UserID: 1}}
	comments := []user.Comment{{ID: 3, PostID: 20}, {ID: 1, PostID: 20}, {ID: 2, PostID: 30}}

	enrichedUsers, _ := Enrich(users, posts, comments)

	require.Len(t, enrichedUsers, 2)
	assert.Equal(t, int64(2), enrichedUsers[0].ID)
	require.Len(t, enrichedUsers[1].Posts, 2)
	assert.Equal(t, int64(30), enrichedUsers[1].Posts[0].ID)
	assert.Equal(t, int64(20), enrichedUsers[1].Posts[1].ID)

	got := enrichedUsers[1].Posts[1].Comments
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestEnrichMissingOwnerBucketsUnderZero(t *testing.T) {
	users := []user.User{{ID: 1}}
	posts := []user.Post{{ID: 1}}        // no UserID
	comments := []user.Comment{{ID: 1}} // no PostID

	enrichedUsers, enrichedPosts := Enrich(users, posts, comments)
	assert.Empty(t, enrichedUsers[0].Posts)
	assert.NotNil(t, enrichedUsers[0].Posts)
	assert.Empty(t, enrichedPosts[0].Comments)

	assert.Equal(t, OrphanCounts{Posts: 1, Comments: 1}, Orphans(users, posts, comments))

	// A user with id 0 would claim the bucket.
	enrichedUsers, _ = Enrich([]user.User{{ID: 0}}, posts, comments)
	assert.Len(t, enrichedUsers[0].Posts, 1)
}

func TestEnrichOutputDoesNotAlias(t *testing.T) {
	users := []user.User{{ID: 1}}
	posts := []user.Post{{ID: 1, UserID: 1}}
	comments := []user.Comment{{ID: 1, PostID: 1, Body: "original"}}

	enrichedUsers, enrichedPosts := Enrich(users, posts, comments)
	enrichedPosts[0].Comments[0].Body = "changed"

	assert.Equal(t, "original", enrichedUsers[0].Posts[0].Comments[0].Body)
	assert.Equal(t, "original", comments[0].Body)
	assert.Nil(t, posts[0].Comments, "input posts are not modified")
}

func TestEnrichIsIdempotent(t *testing.T) {
	users := []user.User{{ID: 1}, {ID: 2}}
	posts := []user.Post{{ID: 1, UserID: 1}, {ID: 2, UserID: 2}, {ID: 3, UserID: 1}}
	comments := []user.Comment{{ID: 1, PostID: 3}, {ID: 2, PostID: 1}}

	firstUsers, firstPosts := Enrich(users, posts, comments)
	secondUsers, secondPosts := Enrich(firstUsers, firstPosts, comments)

	assert.Equal(t, firstUsers, secondUsers)
	assert.Equal(t, firstPosts, secondPosts)
}

func TestEnrichEmptyInput(t *testing.T) {
	enrichedUsers, enrichedPosts := Enrich(nil, nil, nil)
	assert.NotNil(t, enrichedUsers)
	assert.Empty(t, enrichedUsers)
	assert.NotNil(t, enrichedPosts)
	assert.Empty(t, enrichedPosts)
}
