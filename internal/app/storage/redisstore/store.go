// Package redisstore implements the storage port on Redis. Each collection
// uses four keys under harmony:<collection>:
//
//	docs   hash of id -> JSON document
//	order  sorted set of ids scored by insertion sequence
//	ids    sorted set of ids scored by id, for MaxID
//	seq    insertion sequence counter
package redisstore

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
)

// KeyPrefix namespaces every key written by the store.
const KeyPrefix = "harmony"

// insertScript writes ARGV pairs (id, doc) unless any id already exists.
var insertScript = redis.NewScript(`
for i = 1, #ARGV, 2 do
  if redis.call('HEXISTS', KEYS[1], ARGV[i]) == 1 then
    return 0
  end
end
for i = 1, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i+1])
  local seq = redis.call('INCR', KEYS[4])
  redis.call('ZADD', KEYS[2], seq, ARGV[i])
  redis.call('ZADD', KEYS[3], ARGV[i], ARGV[i])
end
return 1
`)

var deleteOneScript = redis.NewScript(`
local n = redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('ZREM', KEYS[3], ARGV[1])
return n
`)

var deleteAllScript = redis.NewScript(`
local n = redis.call('HLEN', KEYS[1])
redis.call('DEL', KEYS[1], KEYS[2], KEYS[3])
return n
`)

// Client owns the redis connection shared by the collections.
type Client struct {
	rdb *redis.Client
}

var _ storage.Closer = (*Client)(nil)

// Open parses a redis:// URL, connects and pings within pingTimeout.
func Open(ctx context.Context, url string, pingTimeout time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	rdb := redis.NewClient(opts)

	pingCtx := ctx
	if pingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Client{rdb: rdb}, nil
}

// NewClient wraps an existing go-redis client.
func NewClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Stores returns the users, posts and comments collections.
func (c *Client) Stores() storage.Stores {
	return storage.Stores{
		Users:    NewCollection[user.User](c, "users"),
		Posts:    NewCollection[user.Post](c, "posts"),
		Comments: NewCollection[user.Comment](c, "comments"),
	}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Collection is a redis-backed storage.Collection.
type Collection[T storage.Document] struct {
	rdb  *redis.Client
	name string
}

var _ storage.UserStore = (*Collection[user.User])(nil)
var _ storage.PostStore = (*Collection[user.Post])(nil)
var _ storage.CommentStore = (*Collection[user.Comment])(nil)

func NewCollection[T storage.Document](c *Client, name string) *Collection[T] {
	return &Collection[T]{rdb: c.rdb, name: name}
}

func (c *Collection[T]) key(suffix string) string {
	return KeyPrefix + ":" + c.name + ":" + suffix
}

func (c *Collection[T]) keys() []string {
	return []string{c.key("docs"), c.key("order"), c.key("ids"), c.key("seq")}
}

func (c *Collection[T]) FindAll(ctx context.Context) ([]T, error) {
	ids, err := c.rdb.ZRange(ctx, c.key("order"), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "range %s", c.name)
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	vals, err := c.rdb.HMGet(ctx, c.key("docs"), ids...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", c.name)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// removed between ZRANGE and HMGET
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s document", c.name)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	var doc T
	raw, err := c.rdb.HGet(ctx, c.key("docs"), strconv.FormatInt(id, 10)).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, errors.Wrapf(err, "get %s %d", c.name, id)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, false, errors.Wrapf(err, "decode %s document", c.name)
	}
	return doc, true, nil
}

func (c *Collection[T]) InsertOne(ctx context.Context, doc T) error {
	return c.InsertMany(ctx, []T{doc})
}

// InsertMany is atomic: the script rejects the whole batch when any id is
// already stored.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []T) error {
	if len(docs) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(docs))
	args := make([]interface{}, 0, 2*len(docs))
	for _, doc := range docs {
		id := doc.DocumentID()
		if _, dup := seen[id]; dup {
			return errors.Wrapf(storage.ErrDuplicateID, "%s id %d repeated in batch", c.name, id)
		}
		seen[id] = struct{}{}

		raw, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrapf(err, "encode %s document", c.name)
		}
		args = append(args, strconv.FormatInt(id, 10), string(raw))
	}

	ok, err := insertScript.Run(ctx, c.rdb, c.keys(), args...).Int()
	if err != nil {
		return errors.Wrapf(err, "insert %s", c.name)
	}
	if ok == 0 {
		return errors.Wrapf(storage.ErrDuplicateID, "%s", c.name)
	}
	return nil
}

func (c *Collection[T]) DeleteOne(ctx context.Context, id int64) (bool, error) {
	n, err := deleteOneScript.Run(ctx, c.rdb, c.keys(), strconv.FormatInt(id, 10)).Int()
	if err != nil {
		return false, errors.Wrapf(err, "delete %s %d", c.name, id)
	}
	return n > 0, nil
}

func (c *Collection[T]) DeleteAll(ctx context.Context) (int64, error) {
	n, err := deleteAllScript.Run(ctx, c.rdb, c.keys()).Int64()
	if err != nil {
		return 0, errors.Wrapf(err, "clear %s", c.name)
	}
	return n, nil
}

func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	n, err := c.rdb.HLen(ctx, c.key("docs")).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", c.name)
	}
	return n, nil
}

func (c *Collection[T]) MaxID(ctx context.Context) (int64, error) {
	top, err := c.rdb.ZRevRangeWithScores(ctx, c.key("ids"), 0, 0).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "max id %s", c.name)
	}
	if len(top) == 0 {
		return 0, nil
	}
	return int64(top[0].Score), nil
}
