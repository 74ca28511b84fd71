package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
)

// ErrDuplicateID is returned by InsertOne and InsertMany when a document with
// the same id is already stored.
var ErrDuplicateID = errors.New("storage: duplicate document id")

// Document is anything stored in a Collection. Ids are unique per collection.
type Document interface {
	DocumentID() int64
}

// Collection persists one kind of document. Implementations return copies:
// mutating a returned document never changes stored state.
type Collection[T Document] interface {
	// FindAll returns every document in insertion order.
	FindAll(ctx context.Context) ([]T, error)
	// FindByID reports false when no document has id.
	FindByID(ctx context.Context, id int64) (T, bool, error)
	InsertOne(ctx context.Context, doc T) error
	InsertMany(ctx context.Context, docs []T) error
	// DeleteOne reports whether a document was removed.
	DeleteOne(ctx context.Context, id int64) (bool, error)
	// DeleteAll returns the number of removed documents.
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	// MaxID returns the highest stored id, or 0 when empty.
	MaxID(ctx context.Context) (int64, error)
}

// UserStore persists users with their embedded posts.
type UserStore = Collection[user.User]

// PostStore persists the flat, enriched post snapshot.
type PostStore = Collection[user.Post]

// CommentStore persists the flat comment snapshot.
type CommentStore = Collection[user.Comment]

// Stores groups the collections the application works with.
type Stores struct {
	Users    UserStore
	Posts    PostStore
	Comments CommentStore
}

// Closer is implemented by backends holding connections.
type Closer interface {
	Close() error
}
