package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by an issued token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec issues and decodes signed tokens.
type Codec interface {
	// Issue signs a token for the given subject and user ID. The token
	// embeds an expiry derived from the codec's configured TTL.
	Issue(subject, userID string, now time.Time) (string, error)

	// Decode verifies the token's signature and embedded expiry and
	// returns its claims.
	Decode(token string) (*Claims, error)

	// TTL reports the lifetime embedded into issued tokens.
	TTL() time.Duration
}

type hmacCodec struct {
	secret []byte
	ttl    time.Duration
}

var _ Codec = (*hmacCodec)(nil)

// NewHMACCodec returns a Codec signing tokens with HMAC-SHA256.
func NewHMACCodec(secret []byte, ttl time.Duration) (Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &hmacCodec{secret: secret, ttl: ttl}, nil
}

func (c *hmacCodec) Issue(subject, userID string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (c *hmacCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *hmacCodec) TTL() time.Duration {
	return c.ttl
}
