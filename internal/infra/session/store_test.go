package session

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domsession "example.com/storefront/internal/domain/session"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	require.Equal(t, domsession.Session{}, s.Get())
	require.False(t, s.Get().LoggedIn())

	s.Set(domsession.Session{Token: "tok", Username: "ada"})
	got := s.Get()
	require.True(t, got.LoggedIn())
	require.Equal(t, "ada", got.Username)

	s.Clear()
	require.Equal(t, domsession.Session{}, s.Get())
}

func TestGetFillsUsernameFromTokenClaims(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "adalovelace",
	})
	signed, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	s := NewMemoryStore()
	s.Set(domsession.Session{Token: signed})

	require.Equal(t, "adalovelace", s.Get().Username)
}

func TestGetPrefersStoredUsername(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "claims-name",
	})
	signed, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	s := NewMemoryStore()
	s.Set(domsession.Session{Token: signed, Username: "stored-name"})

	require.Equal(t, "stored-name", s.Get().Username)
}

func TestGetOpaqueTokenYieldsNoUsername(t *testing.T) {
	s := NewMemoryStore()
	s.Set(domsession.Session{Token: "not-a-jwt"})

	got := s.Get()
	require.True(t, got.LoggedIn())
	require.Empty(t, got.Username)
}
