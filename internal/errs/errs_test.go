package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("user", "id", int64(7))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "user not found with id: 7", err.Error())

	wrapped := fmt.Errorf("services.auth.FindUser: %w", err)
	assert.True(t, IsNotFound(wrapped))

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsInvalidState(err))
}

func TestInvalidState(t *testing.T) {
	err := InvalidState("user cannot subscribe to more than 2 plans")
	assert.True(t, IsInvalidState(err))
	assert.Equal(t, "user cannot subscribe to more than 2 plans", err.Error())
	assert.False(t, IsNotFound(err))
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("auth-service", cause)

	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "auth-service")

	wrapped := fmt.Errorf("clients.identity.ValidateUser: %w", err)
	assert.True(t, IsUnavailable(wrapped))
}
