package validation

import (
	"testing"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=investor entrepreneur"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(signup{Email: "a@b.io", Password: "secret", Role: "investor"}))

	err := Struct(signup{Email: "nope", Password: "secret", Role: "investor"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "email must be a valid email address", apperr.PublicMessage(err))

	err = Struct(signup{Email: "a@b.io", Password: "123", Role: "investor"})
	assert.Equal(t, "password must be at least 6 characters long", apperr.PublicMessage(err))

	err = Struct(signup{Email: "a@b.io", Password: "123456", Role: "banker"})
	assert.Equal(t, "role must be one of: investor entrepreneur", apperr.PublicMessage(err))
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Fields(assert.AnError))
}
