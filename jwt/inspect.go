package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned when a token is not a decodable compact JWS.
var ErrNotJWT = errors.New("token is not a jwt")

// Inspector decodes access tokens without verifying them. Opaque tokens are reported
// as having no expiry.
type Inspector struct {
	parser *jwt.Parser
}

// NewInspector returns an Inspector.
func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

// Claims decodes the registered claims of token.
func (i *Inspector) Claims(token string) (*jwt.RegisteredClaims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of token. ok is false for opaque tokens and for
// tokens without exp.
func (i *Inspector) ExpiresAt(token string) (time.Time, bool) {
	claims, err := i.Claims(token)
	if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Time.IsZero() {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
