package devbackend

import (
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// DemoSecret signs tokens of the demo backend. It is not a secret.
const DemoSecret = "portal-dev-secret-0123456789"

// DemoUsers returns the accounts of the demo backend: "admin" sees every menu,
// "clerk" sees the daily report and reaches the audit page only through the
// menu-auth endpoint.
func DemoUsers() []User {
	return []User{
		{
			LoginID:  "admin",
			Password: "admin1234",
			UserID:   1,
			UserName: "Administrator",
			Email:    "admin@example.com",
			OrgName:  "Head Office",
			Menus: []Menu{
				{ID: 10, Name: "main", Path: "/main", Sort: 1, Active: "Y"},
				{ID: 20, Name: "system", Sort: 2, Active: "Y"},
				{ID: 21, ParentID: 20, Name: "users", Path: "/system/users", Sort: 2, Active: "Y"},
				{ID: 22, ParentID: 20, Name: "codes", Path: "/system/codes", Sort: 1, Active: "Y"},
				{ID: 30, Name: "reports", Sort: 3, Active: "Y"},
				{ID: 31, ParentID: 30, Name: "daily", Path: "/reports/daily", Sort: 1, Active: "Y"},
			},
		},
		{
			LoginID:  "clerk",
			Password: "clerk1234",
			UserID:   2,
			UserName: "Clerk",
			OrgName:  "Branch",
			Menus: []Menu{
				{ID: 30, Name: "reports", Sort: 1, Active: "Y"},
				{ID: 31, ParentID: 30, Name: "daily", Path: "/reports/daily", Sort: 1, Active: "Y"},
				{ID: 21, ParentID: 30, Name: "users", Path: "/system/users", Sort: 2, Active: "N"},
			},
			LegacyRoutes: []string{"audit"},
		},
	}
}

// NewDemo returns a Server with [DemoUsers] issuing HS256 tokens valid for ttl.
func NewDemo(ttl time.Duration, now func() time.Time) (*Server, error) {
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{
		AccessTTL: ttl,
		Secret:    []byte(DemoSecret),
		Issuer:    "portal-devbackend",
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	return New(Config{Issuer: issuer, Users: DemoUsers()})
}
