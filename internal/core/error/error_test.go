package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	base := errors.New("connection refused")
	e := New(base, http.StatusBadGateway, RedisErrorMessage)

	assert.Equal(t, "redis operation failed: connection refused", e.Error())
	assert.ErrorIs(t, e, base)

	var app *AppError
	require.ErrorAs(t, error(e), &app)
	assert.Equal(t, http.StatusBadGateway, app.Status)
}

func TestAppErrorWithoutCause(t *testing.T) {
	e := New(nil, http.StatusInternalServerError, SystemErrorMessage)
	assert.Equal(t, SystemErrorMessage, e.Error())
}

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	e := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, RedisNotFoundMessage, e.Message)

	e = WrapRedis(errors.New("broken pipe"))
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, RedisErrorMessage, e.Message)
}

func TestWrapPostgres(t *testing.T) {
	assert.Nil(t, WrapPostgres(nil))

	e := WrapPostgres(pgx.ErrNoRows)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, PostgresNotFoundMessage, e.Message)

	e = WrapPostgres(errors.New("deadlock detected"))
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, PostgresErrorMessage, e.Message)
}
