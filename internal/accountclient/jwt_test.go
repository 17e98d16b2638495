package accountclient_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transaction-service/internal/accountclient"
)

func TestServiceTokenIssuer_IssuesValidHS256Token(t *testing.T) {
	issuer := accountclient.NewServiceTokenIssuer("shared-secret", time.Minute)

	raw, err := issuer.Issue()
	require.NoError(t, err)

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte("shared-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("account-service"))
	require.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "transaction-service", claims["sub"])
	roles, ok := claims["roles"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, roles, "ROLE_INTERNAL_SERVICE")
}

func TestServiceTokenIssuer_DefaultsTTLWhenNonPositive(t *testing.T) {
	issuer := accountclient.NewServiceTokenIssuer("shared-secret", 0)

	raw, err := issuer.Issue()
	require.NoError(t, err)

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte("shared-secret"), nil
	})
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	iat, err := claims.GetIssuedAt()
	require.NoError(t, err)
	assert.InDelta(t, 60, exp.Sub(iat.Time).Seconds(), 1)
}
