package session

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds. Any value
// above it is read as milliseconds (year 2286 in seconds).
const epochMillisThreshold = 1e10

// Expiry is an absolute expiry instant decoded from RFC 3339 strings, epoch seconds
// or epoch milliseconds. Unparseable values decode to the zero time (non-expiring).
type Expiry struct {
	Time time.Time
}

// At returns an Expiry for t.
func At(t time.Time) *Expiry {
	return &Expiry{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expiry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	e.Time = time.Time{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.Time = parseExpiryString(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	e.Time = fromEpoch(n)
	return nil
}

// MarshalJSON renders the expiry as RFC 3339, or null when zero.
func (e Expiry) MarshalJSON() ([]byte, error) {
	if e.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(e.Time.UTC().Format(time.RFC3339Nano))
}

func parseExpiryString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n)
	}
	return time.Time{}
}

func fromEpoch(n float64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > epochMillisThreshold {
		return time.UnixMilli(int64(n))
	}
	return time.Unix(int64(n), 0)
}

// Payload is the session-bearing body of login, renewal and identity responses.
// Nil pointer fields were absent from the response.
type Payload struct {
	AccessToken     *string        `json:"accessToken,omitempty"`
	TokenType       string         `json:"tokenType,omitempty"`
	ExpiresAt       *Expiry        `json:"expiresAt,omitempty"`
	ExpiresIn       int64          `json:"expiresIn,omitempty"`
	User            *IdentityPatch `json:"user,omitempty"`
	Menus           *[]*MenuNode   `json:"menus,omitempty"`
	AccessibleMenus *[]string      `json:"accessibleMenus,omitempty"`
	LoginID         string         `json:"loginId,omitempty"`
	UserID          FlexID         `json:"userId,omitempty"`
}

// Token returns a pointer to s, for building payloads in code.
func Token(s string) *string {
	return &s
}

// Menus returns a pointer to nodes, for building payloads in code.
func Menus(nodes ...*MenuNode) *[]*MenuNode {
	if nodes == nil {
		nodes = []*MenuNode{}
	}
	return &nodes
}

// Accessible returns a pointer to names, for building payloads in code.
func Accessible(names ...string) *[]string {
	if names == nil {
		names = []string{}
	}
	return &names
}

// DecodePayload parses a response body. An empty body yields an empty payload.
func DecodePayload(body []byte) (Payload, error) {
	var p Payload
	if len(bytes.TrimSpace(body)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// ApplyOptions controls how [Store.ApplySession] merges a payload.
type ApplyOptions struct {
	// PreserveExisting leaves state untouched for fields the payload omits. When
	// false, omitted fields are reset to empty defaults.
	PreserveExisting bool

	// FallbackLoginID and FallbackUserID fill an identity that is still empty after
	// the payload is applied (for example from the login form).
	FallbackLoginID string
	FallbackUserID  string

	// User is applied when the payload carries no user object.
	User *IdentityPatch
}
