// Package enrichment joins flat users, posts and comments into nested
// documents and loads the result into the stores.
package enrichment

import "github.com/R3E-Network/data_harmony/internal/app/domain/user"

// Enrich attaches comments to posts by PostID and posts to users by UserID.
// It returns the enriched users and the enriched flat post list. Every
// returned slice is freshly allocated, so enriched posts embedded in two
// places never share comment storage. Posts and comments whose parent is
// absent are dropped from the embedded views; see Orphans.
func Enrich(users []user.User, posts []user.Post, comments []user.Comment) ([]user.User, []user.Post) {
	commentsByPost := make(map[int64][]user.Comment, len(posts))
	for _, c := range comments {
		commentsByPost[c.PostID] = append(commentsByPost[c.PostID], c)
	}

	postsByUser := make(map[int64][]user.Post, len(users))
	for _, p := range posts {
		postsByUser[p.UserID] = append(postsByUser[p.UserID], p)
	}

	withComments := func(p user.Post) user.Post {
		group := commentsByPost[p.ID]
		p.Comments = make([]user.Comment, len(group))
		copy(p.Comments, group)
		return p
	}

	enrichedPosts := make([]user.Post, 0, len(posts))
	for _, p := range posts {
		enrichedPosts = append(enrichedPosts, withComments(p))
	}

	enrichedUsers := make([]user.User, 0, len(users))
	for _, u := range users {
		group := postsByUser[u.ID]
		u.Posts = make([]user.Post, 0, len(group))
		for _, p := range group {
			u.Posts = append(u.Posts, withComments(p))
		}
		enrichedUsers = append(enrichedUsers, u)
	}

	return enrichedUsers, enrichedPosts
}

// OrphanCounts reports records whose parent is missing from the input.
type OrphanCounts struct {
	Posts    int // posts with no matching user
	Comments int // comments with no matching post
}

// Orphans counts records Enrich leaves out of the embedded views.
func Orphans(users []user.User, posts []user.Post, comments []user.Comment) OrphanCounts {
	userIDs := make(map[int64]struct{}, len(users))
	for _, u := range users {
		userIDs[u.ID] = struct{}{}
	}
	postIDs := make(map[int64]struct{}, len(posts))
	for _, p := range posts {
		postIDs[p.ID] = struct{}{}
	}

	var out OrphanCounts
	for _, p := range posts {
		if _, ok := userIDs[p.UserID]; !ok {
			out.Posts++
		}
	}
	for _, c := range comments {
		if _, ok := postIDs[c.PostID]; !ok {
			out.Comments++
		}
	}
	return out
}
