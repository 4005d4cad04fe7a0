package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(t *testing.T, now func() time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(IssuerConfig{
		AccessTTL: 15 * time.Minute,
		Secret:    []byte("dev-secret-dev-secret"),
		Issuer:    "portal-dev",
		Audience:  "portal",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss
}

func TestNewIssuerRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  IssuerConfig
	}{
		{name: "zero ttl", cfg: IssuerConfig{Secret: []byte("dev-secret-dev-secret")}},
		{name: "short secret", cfg: IssuerConfig{AccessTTL: time.Minute, Secret: []byte("short")}},
		{name: "bad leeway", cfg: IssuerConfig{AccessTTL: time.Minute, Secret: []byte("dev-secret-dev-secret"), Leeway: time.Hour}},
		{name: "bad ed key", cfg: IssuerConfig{AccessTTL: time.Minute, SigningMethod: MethodEd25519}},
		{name: "unknown method", cfg: IssuerConfig{AccessTTL: time.Minute, SigningMethod: "rs512"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewIssuer(tc.cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	iss := newTestIssuer(t, time.Now)

	token, exp, err := iss.Issue("bob", "17", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.LoginID != "bob" || claims.UserID != "17" || claims.SessionID != "sid-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(exp) {
		t.Fatalf("expiry mismatch %v vs %v", claims.ExpiresAt.Time, exp)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	old := newTestIssuer(t, func() time.Time { return issuedAt })
	token, _, err := old.Issue("bob", "", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	current := newTestIssuer(t, time.Now)
	if _, err := current.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	iss := newTestIssuer(t, time.Now)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	claims := AccessClaims{SessionID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "portal-dev",
		Audience:  gjwt.ClaimStrings{"portal"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.Verify(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestEd25519Issuer(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	iss, err := NewIssuer(IssuerConfig{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, _, err := iss.Issue("alice", "", "sid-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Verify(token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
