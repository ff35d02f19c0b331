package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() Identity {
	return Identity{AccountID: "acc-1", Email: "ana@motomar.com", FirstName: "Ana", LastName: "Ruiz", Verified: true, Role: "user"}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", "motomar-api", time.Hour)

	token, expiresAt, err := svc.Issue(testIdentity())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity(), claims.Identity)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "motomar-api", claims.Issuer)
}

func TestTokenService_VerifyFailures(t *testing.T) {
	svc := NewTokenService("secret", "motomar-api", time.Hour)
	valid, _, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	otherSecret, _, err := NewTokenService("other", "motomar-api", time.Hour).Issue(testIdentity())
	require.NoError(t, err)

	otherIssuer, _, err := NewTokenService("secret", "someone-else", time.Hour).Issue(testIdentity())
	require.NoError(t, err)

	noSubject, _, err := svc.Issue(Identity{Email: "x@y.com"})
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Identity: testIdentity()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
		{"tampered payload", tampered},
		{"alg none", unsigned},
		{"missing account id", noSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("secret", "motomar-api", time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.Issue(testIdentity())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
