package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT and its expiry. Clients send it as a Bearer
// token; the middleware turns its claims into a booking session.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 JWT carrying the account id as sub and its
// role. Customers additionally carry their subscriber flag so clients can
// show the discount before checkout.
func NewAccessToken(secret string, userID uint64, role string, subscriber bool, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":        userID,
		"role":       role,
		"subscriber": subscriber,
		"exp":        exp.Unix(),
		"iat":        now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
