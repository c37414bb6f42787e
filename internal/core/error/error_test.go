package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.ErrorIs(t, err, redis.Nil)

	err = WrapRedis(errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), RedisErrorMessage)
}

func TestAppErrorAs(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("route prompt: %w", WrapRouting(base))

	var ae *AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, RoutingErrorMessage, ae.Message)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "routing service unavailable: connection reset", ae.Error())
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(WrapEngine(errors.New("x"))))
}
