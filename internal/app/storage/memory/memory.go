package memory

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/tidwall/btree"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
)

// Collection is an in-memory implementation of storage.Collection. It is
// safe for concurrent use. Documents are kept in insertion order and deep
// copied on every write and read.
type Collection[T storage.Document] struct {
	mu   sync.RWMutex
	seq  uint64
	docs btree.Map[uint64, T]     // insertion sequence -> document
	ids  btree.Map[int64, uint64] // document id -> insertion sequence
}

var _ storage.UserStore = (*Collection[user.User])(nil)
var _ storage.PostStore = (*Collection[user.Post])(nil)
var _ storage.CommentStore = (*Collection[user.Comment])(nil)

// NewCollection creates an empty collection.
func NewCollection[T storage.Document]() *Collection[T] {
	return &Collection[T]{}
}

// New creates an empty set of stores.
func New() storage.Stores {
	return storage.Stores{
		Users:    NewCollection[user.User](),
		Posts:    NewCollection[user.Post](),
		Comments: NewCollection[user.Comment](),
	}
}

func (c *Collection[T]) FindAll(_ context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, c.docs.Len())
	var err error
	c.docs.Scan(func(_ uint64, doc T) bool {
		var cp T
		if cp, err = clone(doc); err != nil {
			return false
		}
		out = append(out, cp)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[T]) FindByID(_ context.Context, id int64) (T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	seq, ok := c.ids.Get(id)
	if !ok {
		return zero, false, nil
	}
	doc, _ := c.docs.Get(seq)
	cp, err := clone(doc)
	if err != nil {
		return zero, false, err
	}
	return cp, true, nil
}

func (c *Collection[T]) InsertOne(_ context.Context, doc T) error {
	cp, err := clone(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.ids.Get(doc.DocumentID()); exists {
		return errors.Wrapf(storage.ErrDuplicateID, "id %d", doc.DocumentID())
	}
	c.putLocked(cp)
	return nil
}

// InsertMany stores all docs or none: a duplicate id, against stored state or
// within the batch, rejects the whole batch.
func (c *Collection[T]) InsertMany(_ context.Context, docs []T) error {
	copies := make([]T, 0, len(docs))
	for _, doc := range docs {
		cp, err := clone(doc)
		if err != nil {
			return err
		}
		copies = append(copies, cp)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int64]struct{}, len(copies))
	for _, doc := range copies {
		id := doc.DocumentID()
		if _, exists := c.ids.Get(id); exists {
			return errors.Wrapf(storage.ErrDuplicateID, "id %d", id)
		}
		if _, dup := seen[id]; dup {
			return errors.Wrapf(storage.ErrDuplicateID, "id %d repeated in batch", id)
		}
		seen[id] = struct{}{}
	}
	for _, doc := range copies {
		c.putLocked(doc)
	}
	return nil
}

func (c *Collection[T]) putLocked(doc T) {
	c.seq++
	c.docs.Set(c.seq, doc)
	c.ids.Set(doc.DocumentID(), c.seq)
}

func (c *Collection[T]) DeleteOne(_ context.Context, id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq, ok := c.ids.Delete(id)
	if !ok {
		return false, nil
	}
	c.docs.Delete(seq)
	return true, nil
}

func (c *Collection[T]) DeleteAll(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(c.docs.Len())
	c.docs = btree.Map[uint64, T]{}
	c.ids = btree.Map[int64, uint64]{}
	return n, nil
}

func (c *Collection[T]) Count(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(c.docs.Len()), nil
}

func (c *Collection[T]) MaxID(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, _, ok := c.ids.Max()
	if !ok {
		return 0, nil
	}
	return id, nil
}

func clone[T any](src T) (T, error) {
	var dst T
	if err := copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true}); err != nil {
		return dst, errors.Wrap(err, "copy document")
	}
	return dst, nil
}
