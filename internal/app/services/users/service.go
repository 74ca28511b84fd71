package users

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
	apperrors "github.com/R3E-Network/data_harmony/internal/errors"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// ErrAlreadyExists is returned by Create when the id is taken.
var ErrAlreadyExists = apperrors.Conflict("User already exists")

// Service exposes CRUD over the users collection.
type Service struct {
	store storage.UserStore
	log   *logger.Logger

	// createMu serializes id assignment with the insert that follows it.
	createMu sync.Mutex
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// List returns every user in insertion order.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	out, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("list users", err)
	}
	for i := range out {
		normalize(&out[i])
	}
	return out, nil
}

// Get returns the user with id. A missing user is reported with false.
func (s *Service) Get(ctx context.Context, id int64) (user.User, bool, error) {
	u, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return user.User{}, false, apperrors.StorageFailure("get user", err)
	}
	if ok {
		normalize(&u)
	}
	return u, ok, nil
}

// Create stores u and returns its id. A zero id is replaced by one more than
// the highest stored id, or 1 for an empty collection.
func (s *Service) Create(ctx context.Context, u user.User) (int64, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if u.ID != 0 {
		_, exists, err := s.store.FindByID(ctx, u.ID)
		if err != nil {
			return 0, apperrors.StorageFailure("check user id", err)
		}
		if exists {
			return 0, ErrAlreadyExists
		}
	} else {
		max, err := s.store.MaxID(ctx)
		if err != nil {
			return 0, apperrors.StorageFailure("scan user ids", err)
		}
		u.ID = max + 1
	}
	normalize(&u)

	if err := s.store.InsertOne(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			return 0, ErrAlreadyExists
		}
		return 0, apperrors.StorageFailure("insert user", err)
	}

	s.log.WithContext(ctx).WithField("user_id", u.ID).Debug("user created")
	return u.ID, nil
}

// DeleteAll empties the collection.
func (s *Service) DeleteAll(ctx context.Context) error {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return apperrors.StorageFailure("delete users", err)
	}
	s.log.WithContext(ctx).WithField("removed", n).Info("all users deleted")
	return nil
}

// Delete removes the user with id and reports whether one was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.DeleteOne(ctx, id)
	if err != nil {
		return false, apperrors.StorageFailure("delete user", err)
	}
	return removed, nil
}

// normalize makes empty collections render as [] rather than null.
func normalize(u *user.User) {
	if u.Posts == nil {
		u.Posts = []user.Post{}
	}
	for i := range u.Posts {
		if u.Posts[i].Comments == nil {
			u.Posts[i].Comments = []user.Comment{}
		}
	}
}
