package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("load: %w", UpstreamFetchFailure("fetch users", cause))

	assert.Equal(t, KindUpstreamFetchFailure, KindOf(err))
	assert.True(t, IsKind(err, KindUpstreamFetchFailure))
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, &ServiceError{Kind: KindUpstreamFetchFailure}))
	assert.False(t, stderrors.Is(err, &ServiceError{Kind: KindConflict}))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestStatuses(t *testing.T) {
	cases := map[*ServiceError]int{
		NotFound("User not found"):       http.StatusNotFound,
		Conflict("User already exists"):  http.StatusConflict,
		StorageFailure("insert", nil):    http.StatusInternalServerError,
		MalformedRequestBody(nil):        http.StatusInternalServerError,
		RateLimitExceeded(5, "1s"):       http.StatusTooManyRequests,
		Internal("unexpected", nil):      http.StatusInternalServerError,
		UpstreamFetchFailure("get", nil): http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.HTTPStatus, err.Error())
	}
}
