package session

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenType is the scheme used when the server does not send one.
const DefaultTokenType = "Bearer"

// FlexID is an identifier that the server may send either as a JSON number or as a
// JSON string. It is always kept in string form.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// FlexBool accepts JSON booleans as well as the "Y"/"N" flags used by the backend.
type FlexBool bool

// UnmarshalJSON accepts true/false, "Y"/"N", "true"/"false", 1/0 and null.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*b = false
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "Y", "YES", "TRUE", "1":
			*b = true
		default:
			*b = false
		}
		return nil
	default:
		if v, err := strconv.ParseBool(string(data)); err == nil {
			*b = FlexBool(v)
			return nil
		}
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*b = n != 0
		return nil
	}
}

// Identity is the profile of the signed-in user.
type Identity struct {
	UserID         FlexID   `json:"userId,omitempty"`
	LoginID        string   `json:"loginId,omitempty"`
	Email          string   `json:"email,omitempty"`
	UserName       string   `json:"userName,omitempty"`
	OrgID          FlexID   `json:"orgId,omitempty"`
	OrgName        string   `json:"orgName,omitempty"`
	EmpNo          string   `json:"empNo,omitempty"`
	PositionName   string   `json:"pstnName,omitempty"`
	Tel            string   `json:"tel,omitempty"`
	UserStatusID   FlexID   `json:"userStatusId,omitempty"`
	UserStatusName string   `json:"userStatusName,omitempty"`
	UseYN          FlexBool `json:"useYn,omitempty"`
}

// Present reports whether the identity names a user.
func (i Identity) Present() bool {
	return i.LoginID != "" || i.UserID != ""
}

// IdentityPatch carries the identity fields present in a server payload. Nil fields
// were absent and leave the current value untouched.
type IdentityPatch struct {
	UserID         *FlexID   `json:"userId,omitempty"`
	LoginID        *string   `json:"loginId,omitempty"`
	Email          *string   `json:"email,omitempty"`
	UserName       *string   `json:"userName,omitempty"`
	OrgID          *FlexID   `json:"orgId,omitempty"`
	OrgName        *string   `json:"orgName,omitempty"`
	EmpNo          *string   `json:"empNo,omitempty"`
	PositionName   *string   `json:"pstnName,omitempty"`
	Tel            *string   `json:"tel,omitempty"`
	UserStatusID   *FlexID   `json:"userStatusId,omitempty"`
	UserStatusName *string   `json:"userStatusName,omitempty"`
	UseYN          *FlexBool `json:"useYn,omitempty"`
}

func (p *IdentityPatch) applyTo(dst *Identity) {
	if p == nil {
		return
	}
	setID(&dst.UserID, p.UserID)
	setString(&dst.LoginID, p.LoginID)
	setString(&dst.Email, p.Email)
	setString(&dst.UserName, p.UserName)
	setID(&dst.OrgID, p.OrgID)
	setString(&dst.OrgName, p.OrgName)
	setString(&dst.EmpNo, p.EmpNo)
	setString(&dst.PositionName, p.PositionName)
	setString(&dst.Tel, p.Tel)
	setID(&dst.UserStatusID, p.UserStatusID)
	setString(&dst.UserStatusName, p.UserStatusName)
	if p.UseYN != nil {
		dst.UseYN = *p.UseYN
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setID(dst *FlexID, v *FlexID) {
	if v != nil {
		*dst = *v
	}
}

// PatchFrom builds a patch that sets every field of id.
func PatchFrom(id Identity) *IdentityPatch {
	return &IdentityPatch{
		UserID:         &id.UserID,
		LoginID:        &id.LoginID,
		Email:          &id.Email,
		UserName:       &id.UserName,
		OrgID:          &id.OrgID,
		OrgName:        &id.OrgName,
		EmpNo:          &id.EmpNo,
		PositionName:   &id.PositionName,
		Tel:            &id.Tel,
		UserStatusID:   &id.UserStatusID,
		UserStatusName: &id.UserStatusName,
		UseYN:          &id.UseYN,
	}
}

// Credential is the access credential attached to outbound calls.
type Credential struct {
	Token     string    `json:"token,omitempty"`
	Type      string    `json:"type,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Present reports whether a token is held.
func (c Credential) Present() bool {
	return c.Token != ""
}

// HeaderValue renders the Authorization header value, or "" without a token.
func (c Credential) HeaderValue() string {
	if c.Token == "" {
		return ""
	}
	scheme := c.Type
	if scheme == "" {
		scheme = DefaultTokenType
	}
	return scheme + " " + c.Token
}

// MenuNode is one entry of the authorization-gated menu tree.
type MenuNode struct {
	ID       FlexID      `json:"id"`
	ParentID FlexID      `json:"parentId,omitempty"`
	Code     string      `json:"code,omitempty"`
	Name     string      `json:"name,omitempty"`
	Path     string      `json:"path,omitempty"`
	Sort     int         `json:"sort"`
	Active   FlexBool    `json:"active"`
	Children []*MenuNode `json:"children,omitempty"`
}

// UnmarshalJSON defaults Active to true when the field is absent.
func (n *MenuNode) UnmarshalJSON(data []byte) error {
	type alias MenuNode
	a := alias{Active: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = MenuNode(a)
	return nil
}

// IsLeaf reports whether the node has no children.
func (n *MenuNode) IsLeaf() bool {
	return n != nil && len(n.Children) == 0
}

// Snapshot is the complete persisted session of one tab.
type Snapshot struct {
	Identity        Identity    `json:"identity"`
	Credential      Credential  `json:"credential"`
	MenuTree        []*MenuNode `json:"menuTree,omitempty"`
	AccessibleMenus []string    `json:"accessibleMenus,omitempty"`
	SessionChecked  bool        `json:"sessionChecked"`
}

// Authenticated reports whether both identity and credential are present.
func (s Snapshot) Authenticated() bool {
	return s.Credential.Present() && s.Identity.Present()
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.MenuTree = cloneTree(s.MenuTree)
	if s.AccessibleMenus != nil {
		out.AccessibleMenus = append([]string(nil), s.AccessibleMenus...)
	}
	return out
}
