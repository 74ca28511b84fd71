package memory

import (
	"context"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
)

// SampleUsers returns the deterministic record used to seed an empty store:
// one user owning one post with one comment.
func SampleUsers() []user.User {
	comment := user.Comment{
		ID:     1,
		PostID: 1,
		Name:   "Jane Smith",
		Email:  "jane@example.com",
		Body:   "Great post!",
	}
	post := user.Post{
		ID:       1,
		UserID:   1,
		Title:    "Sample Post",
		Body:     "This is a sample post body",
		Comments: []user.Comment{comment},
	}
	return []user.User{{
		ID:       1,
		Name:     "John Doe",
		Username: "johndoe",
		Email:    "john@example.com",
		Address: user.Address{
			Street:  "123 Main St",
			Suite:   "Apt 456",
			City:    "New York",
			Zipcode: "10001",
			Geo:     user.Geo{Lat: "40.730610", Lng: "-73.935242"},
		},
		Phone:   "123-456-7890",
		Website: "johndoe.com",
		Company: user.Company{
			Name:        "ABC Corp",
			CatchPhrase: "Leading the way",
			BS:          "innovative solutions",
		},
		Posts: []user.Post{post},
	}}
}

// Seed inserts the sample user into stores when the users collection is
// empty. The flat posts and comments collections receive the embedded post
// and comment when they are empty too. It reports whether anything was
// written.
func Seed(ctx context.Context, stores storage.Stores) (bool, error) {
	n, err := stores.Users.Count(ctx)
	if err != nil || n > 0 {
		return false, err
	}

	users := SampleUsers()
	if err := stores.Users.InsertMany(ctx, users); err != nil {
		return false, err
	}

	var posts []user.Post
	var comments []user.Comment
	for _, u := range users {
		for _, p := range u.Posts {
			posts = append(posts, p)
			comments = append(comments, p.Comments...)
		}
	}
	if stores.Posts != nil {
		if err := seedIfEmpty(ctx, stores.Posts, posts); err != nil {
			return true, err
		}
	}
	if stores.Comments != nil {
		if err := seedIfEmpty(ctx, stores.Comments, comments); err != nil {
			return true, err
		}
	}
	return true, nil
}

func seedIfEmpty[T storage.Document](ctx context.Context, coll storage.Collection[T], docs []T) error {
	n, err := coll.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	return coll.InsertMany(ctx, docs)
}

// NewSeeded returns in-memory stores holding the sample data. It is the
// fallback used when the primary store cannot be reached.
func NewSeeded() storage.Stores {
	stores := New()
	// Inserting into fresh in-memory collections cannot fail.
	_, _ = Seed(context.Background(), stores)
	return stores
}
