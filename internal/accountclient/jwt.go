package accountclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// serviceClaims is the service-signed token this service mints for
// internal calls to the Accounts service (spec §4.3): subject
// "transaction-service", audience "account-service", role
// ROLE_INTERNAL_SERVICE, 60s lifetime, HMAC-signed with a shared secret.
type serviceClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// ServiceTokenIssuer mints short-lived internal-service tokens.
type ServiceTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewServiceTokenIssuer(secret string, ttl time.Duration) *ServiceTokenIssuer {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ServiceTokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a fresh service-signed token. Called per-request rather than
// cached, matching the 60s lifetime spec §4.3 specifies.
func (i *ServiceTokenIssuer) Issue() (string, error) {
	now := time.Now()
	claims := serviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "transaction-service",
			Audience:  jwt.ClaimStrings{"account-service"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Roles: []string{"ROLE_INTERNAL_SERVICE"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
