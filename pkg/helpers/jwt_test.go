package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_IssueVerify(t *testing.T) {
	m := NewJWTManager("secret", 7*24*time.Hour)

	tok, exp, err := m.Issue("acc-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestJWTManager_IssueRequiresAccount(t *testing.T) {
	_, _, err := NewJWTManager("secret", time.Hour).Issue("")
	assert.Error(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := issuedAt
	m := NewJWTManager("secret", 7*24*time.Hour).WithClock(func() time.Time { return clock })

	tok, _, err := m.Issue("acc-1")
	require.NoError(t, err)

	clock = issuedAt.Add(7*24*time.Hour - time.Minute)
	_, err = m.Verify(tok)
	require.NoError(t, err)

	clock = issuedAt.Add(7*24*time.Hour + time.Minute)
	_, err = m.Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTManager_WrongSecret(t *testing.T) {
	tok, _, err := NewJWTManager("secret-a", time.Hour).Issue("acc-1")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", time.Hour).Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		UserID: "acc-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTManager_Garbage(t *testing.T) {
	_, err := NewJWTManager("secret", time.Hour).Verify("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
