package enrichment

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/httputil"
)

// Source supplies the raw collections for a load.
type Source interface {
	Users(ctx context.Context) ([]user.User, error)
	Posts(ctx context.Context) ([]user.Post, error)
	Comments(ctx context.Context) ([]user.Comment, error)
}

// StaticSource serves fixed collections. Useful for tests and offline runs.
type StaticSource struct {
	UserList    []user.User
	PostList    []user.Post
	CommentList []user.Comment
	Err         error
}

func (s StaticSource) Users(context.Context) ([]user.User, error)       { return s.UserList, s.Err }
func (s StaticSource) Posts(context.Context) ([]user.Post, error)       { return s.PostList, s.Err }
func (s StaticSource) Comments(context.Context) ([]user.Comment, error) { return s.CommentList, s.Err }

// HTTPSource reads the collections from a JSONPlaceholder-style API exposing
// /users, /posts and /comments.
type HTTPSource struct {
	client *httputil.Client
}

// NewHTTPSource creates a source backed by client.
func NewHTTPSource(client *httputil.Client) *HTTPSource {
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Users(ctx context.Context) ([]user.User, error) {
	var out []user.User
	if err := s.fetch(ctx, "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPSource) Posts(ctx context.Context) ([]user.Post, error) {
	var out []user.Post
	if err := s.fetch(ctx, "/posts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPSource) Comments(ctx context.Context) ([]user.Comment, error) {
	var out []user.Comment
	if err := s.fetch(ctx, "/comments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPSource) fetch(ctx context.Context, path string, target interface{}) error {
	body, err := s.client.GetBytes(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "fetch %s", path)
	}
	if !gjson.ValidBytes(body) {
		return errors.Errorf("fetch %s: invalid JSON payload", path)
	}
	if !gjson.ParseBytes(body).IsArray() {
		return errors.Errorf("fetch %s: payload is not a JSON array", path)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
