package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{RateLimited("slow"), http.StatusTooManyRequests},
		{Storage("insert", errors.New("socket closed")), http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Conflict("dup")), http.StatusConflict},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Status(c.err), c.err.Error())
	}
}

func TestStorageDetailIsHidden(t *testing.T) {
	cause := errors.New("E11000 duplicate key on db.users")
	err := Storage("users.insert", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "E11000")
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.True(t, Internal(err))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "message is required", PublicMessage(Validation("message is required")))
	assert.Equal(t, "not found", PublicMessage(&Error{Kind: ErrNotFound}))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("boom")))
	assert.False(t, Internal(Conflict("x")))
}
