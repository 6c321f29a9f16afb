package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyrop/restaurant-backend/apperr"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret-key", time.Hour)

	token, err := issuer.Issue(42, "ana", true)
	require.NoError(t, err)

	p, err := issuer.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Username: "ana", Admin: true}, p)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-secret-key", time.Hour).WithClock(func() time.Time { return issued })
	token, err := issuer.Issue(1, "ana", false)
	require.NoError(t, err)

	issuer.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
	_, err = issuer.Verify(context.Background(), token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	token, err := NewIssuer("other-secret-key", time.Hour).Issue(1, "ana", true)
	require.NoError(t, err)

	_, err = NewIssuer("test-secret-key", time.Hour).Verify(context.Background(), token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := &Claims{IsAdmin: true, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("test-secret-key", time.Hour).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	issuer := NewIssuer("test-secret-key", time.Hour)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
