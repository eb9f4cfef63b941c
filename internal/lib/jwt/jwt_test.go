package jwt

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour, newNoopLogger())

	token, err := maker.GenerateToken(42, "user@example.com", []string{"USER"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, []string{"USER"}, claims.Roles)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour, newNoopLogger())
	other := NewJWTMaker("another-secret", time.Hour, newNoopLogger())

	token, err := maker.GenerateToken(1, "user@example.com", []string{"USER"})
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute, newNoopLogger())

	token, err := maker.GenerateToken(1, "user@example.com", []string{"USER"})
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestValidate_SwallowsErrors(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour, newNoopLogger())

	token, err := maker.GenerateToken(7, "user@example.com", []string{"ADMIN"})
	require.NoError(t, err)

	assert.True(t, maker.Validate(token))
	assert.False(t, maker.Validate("not-a-token"))
	assert.False(t, maker.Validate(""))

	// Подменённая полезная нагрузка ломает подпись.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + ".eyJlbWFpbCI6ImhhY2tlckBleGFtcGxlLmNvbSJ9." + parts[2]
	assert.False(t, maker.Validate(tampered))
}

func TestDecodeClaims_NilOnGarbage(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour, newNoopLogger())

	assert.Nil(t, maker.DecodeClaims("garbage"))

	token, err := maker.GenerateToken(3, "a@b.c", []string{"EMPLOYEE"})
	require.NoError(t, err)
	claims := maker.DecodeClaims(token)
	require.NotNil(t, claims)
	assert.Equal(t, []string{"EMPLOYEE"}, claims.Roles)
}
