package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	tdb "github.com/starwatch/tom/pkg/db"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what an API token asserts about its bearer.
type Identity struct {
	UserId    int
	Username  string
	Superuser bool
}

type claims struct {
	jwt.RegisteredClaims
	UserId    int  `json:"uid"`
	Superuser bool `json:"su"`
}

// TokenIssuer signs and verifies API tokens with an HS256 key.
type TokenIssuer struct {
	key      []byte
	lifetime time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
//
// lifetime == 0 means issued tokens do not expire.
func NewTokenIssuer(key string, lifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(key), lifetime: lifetime}
}

func (i *TokenIssuer) Issue(user tdb.User) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.Username,
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserId:    user.Id,
		Superuser: user.Superuser,
	}
	if 0 < i.lifetime {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(i.lifetime))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.key)
}

func (i *TokenIssuer) Verify(token string) (Identity, error) {
	c := claims{}
	parsed, err := jwt.ParseWithClaims(
		token, &c,
		func(t *jwt.Token) (interface{}, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserId:    c.UserId,
		Username:  c.Subject,
		Superuser: c.Superuser,
	}, nil
}
