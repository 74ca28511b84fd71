package redisstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
)

func TestKeys(t *testing.T) {
	c := &Collection[user.User]{name: "users"}
	assert.Equal(t, []string{
		"harmony:users:docs",
		"harmony:users:order",
		"harmony:users:ids",
		"harmony:users:seq",
	}, c.keys())
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url", time.Second)
	assert.Error(t, err)
}

func TestInsertManyRejectsBatchDuplicatesLocally(t *testing.T) {
	// Rejected before any command is sent, so no server is needed.
	c := &Collection[user.Post]{name: "posts"}
	err := c.InsertMany(context.Background(), []user.Post{{ID: 4}, {ID: 4}})
	assert.True(t, errors.Is(err, storage.ErrDuplicateID))
}

func TestRedisCollection(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := Open(ctx, url, 5*time.Second)
	require.NoError(t, err)
	defer client.Close()

	name := fmt.Sprintf("test_%d", time.Now().UnixNano())
	users := NewCollection[user.User](client, name)
	defer users.DeleteAll(ctx)

	require.NoError(t, users.InsertMany(ctx, []user.User{{ID: 7, Name: "a"}, {ID: 3, Name: "b"}}))
	err = users.InsertMany(ctx, []user.User{{ID: 8}, {ID: 3}})
	assert.True(t, errors.Is(err, storage.ErrDuplicateID))

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(7), all[0].ID)
	assert.Equal(t, int64(3), all[1].ID)

	max, err := users.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), max)

	got, ok, err := users.FindByID(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", got.Name)

	removed, err := users.DeleteOne(ctx, 7)
	require.NoError(t, err)
	assert.True(t, removed)

	max, err = users.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), max)

	n, err := users.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = users.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
