package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultLeadTime is how long before expiry a credential counts as due for renewal.
const DefaultLeadTime = 60 * time.Second

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "user"

// Config controls a [Store].
type Config struct {
	// Key names the persisted snapshot inside the tab storage.
	Key string

	// LeadTime is the renewal window before expiry.
	LeadTime time.Duration

	// DefaultTokenType is used when a payload carries no tokenType.
	DefaultTokenType string

	// Now overrides the clock; tests use it to advance simulated time.
	Now func() time.Time

	// ExpiryFromToken infers an expiry from the token itself when a payload sets a
	// new token without expiresAt or expiresIn.
	ExpiryFromToken func(token string) (time.Time, bool)
}

// Store is the credential store of one tab. It is safe for concurrent use.
type Store struct {
	cfg     Config
	storage Storage

	// writeMu serializes mutations together with their persistence so snapshots
	// reach storage in mutation order. Readers only take mu.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   Snapshot
}

// NewStore builds an empty store. A nil storage keeps the session in memory only.
func NewStore(cfg Config, storage Storage) *Store {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = DefaultLeadTime
	}
	if cfg.DefaultTokenType == "" {
		cfg.DefaultTokenType = DefaultTokenType
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		cfg:     cfg,
		storage: storage,
		state: Snapshot{
			Credential: Credential{Type: cfg.DefaultTokenType},
		},
	}
}

// Restore rehydrates the store from tab storage. A missing snapshot is not an error.
func (s *Store) Restore(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := s.storage.Load(ctx, s.cfg.Key)
	if err != nil {
		if errors.Is(err, ErrStorageMiss) {
			return nil
		}
		return fmt.Errorf("load session snapshot: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return err
	}
	if snap.Credential.Type == "" {
		snap.Credential.Type = s.cfg.DefaultTokenType
	}

	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
	return nil
}

// ApplySession merges a server payload into the store and marks hydration as
// completed. The in-memory state is updated even when persistence fails; the
// persistence error is returned.
func (s *Store) ApplySession(ctx context.Context, p Payload, opts ApplyOptions) error {
	return s.mutate(ctx, func(st *Snapshot) {
		preserve := opts.PreserveExisting
		now := s.cfg.Now()

		tokenChanged := false
		if p.AccessToken != nil {
			st.Credential.Token = *p.AccessToken
			tokenChanged = true
		} else if !preserve {
			st.Credential.Token = ""
		}

		if p.TokenType != "" {
			st.Credential.Type = p.TokenType
		} else if !preserve || st.Credential.Type == "" {
			st.Credential.Type = s.cfg.DefaultTokenType
		}

		switch {
		case p.ExpiresAt != nil:
			st.Credential.ExpiresAt = p.ExpiresAt.Time
		case p.ExpiresIn > 0:
			st.Credential.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
		case tokenChanged:
			st.Credential.ExpiresAt = s.inferExpiry(st.Credential.Token)
		case !preserve:
			st.Credential.ExpiresAt = time.Time{}
		}

		user := p.User
		if user == nil {
			user = opts.User
		}
		if !preserve {
			st.Identity = Identity{}
		}
		user.applyTo(&st.Identity)

		if p.Menus != nil || p.AccessibleMenus != nil {
			var tree []*MenuNode
			if p.Menus != nil {
				tree = NormalizeMenus(*p.Menus)
			}
			st.MenuTree = tree
			if p.AccessibleMenus != nil {
				st.AccessibleMenus = append([]string{}, (*p.AccessibleMenus)...)
			} else {
				st.AccessibleMenus = DeriveAccessible(tree)
			}
		} else if !preserve {
			st.MenuTree = nil
			st.AccessibleMenus = nil
		}

		if st.Identity.LoginID == "" {
			if p.LoginID != "" {
				st.Identity.LoginID = p.LoginID
			} else if opts.FallbackLoginID != "" {
				st.Identity.LoginID = opts.FallbackLoginID
			}
		}
		if st.Identity.UserID == "" {
			if p.UserID != "" {
				st.Identity.UserID = p.UserID
			} else if opts.FallbackUserID != "" {
				st.Identity.UserID = FlexID(opts.FallbackUserID)
			}
		}

		st.SessionChecked = true
	})
}

func (s *Store) inferExpiry(token string) time.Time {
	if token == "" || s.cfg.ExpiryFromToken == nil {
		return time.Time{}
	}
	if t, ok := s.cfg.ExpiryFromToken(token); ok {
		return t
	}
	return time.Time{}
}

// Logout clears identity, credential and menus. SessionChecked stays true so the
// next navigation does not immediately re-probe the server.
func (s *Store) Logout(ctx context.Context) error {
	return s.mutate(ctx, func(st *Snapshot) {
		*st = Snapshot{
			Credential:     Credential{Type: s.cfg.DefaultTokenType},
			SessionChecked: true,
		}
	})
}

// Reset clears everything including SessionChecked and removes the persisted
// snapshot, so a fresh hydration cycle runs.
func (s *Store) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.state = Snapshot{Credential: Credential{Type: s.cfg.DefaultTokenType}}
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	if err := s.storage.Delete(ctx, s.cfg.Key); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}

// MarkSessionChecked records that the hydration probe has run.
func (s *Store) MarkSessionChecked(ctx context.Context) error {
	s.mu.RLock()
	checked := s.state.SessionChecked
	s.mu.RUnlock()
	if checked {
		return nil
	}
	return s.mutate(ctx, func(st *Snapshot) {
		st.SessionChecked = true
	})
}

func (s *Store) mutate(ctx context.Context, fn func(*Snapshot)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()

	if s.storage == nil {
		return nil
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, s.cfg.Key, data); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Identity returns the current identity.
func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Identity
}

// Credential returns the current credential.
func (s *Store) Credential() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Credential
}

// SessionChecked reports whether the hydration probe has completed in this tab.
func (s *Store) SessionChecked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SessionChecked
}

// IsAuthenticated reports whether both an identity and a credential are held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated()
}

// IsExpired reports whether the credential's expiry has passed. A credential without
// expiry never expires.
func (s *Store) IsExpired() bool {
	s.mu.RLock()
	exp := s.state.Credential.ExpiresAt
	s.mu.RUnlock()
	if exp.IsZero() {
		return false
	}
	return !s.cfg.Now().Before(exp)
}

// ShouldRenewSoon reports whether the credential expires within the lead time.
func (s *Store) ShouldRenewSoon() bool {
	s.mu.RLock()
	exp := s.state.Credential.ExpiresAt
	s.mu.RUnlock()
	if exp.IsZero() {
		return false
	}
	return exp.Sub(s.cfg.Now()) <= s.cfg.LeadTime
}

// SecondsUntilExpiry returns the whole seconds left, floored at zero. ok is false
// when the credential has no expiry.
func (s *Store) SecondsUntilExpiry() (seconds int64, ok bool) {
	s.mu.RLock()
	exp := s.state.Credential.ExpiresAt
	s.mu.RUnlock()
	if exp.IsZero() {
		return 0, false
	}
	left := int64(exp.Sub(s.cfg.Now()) / time.Second)
	if left < 0 {
		left = 0
	}
	return left, true
}

// MenuTree returns a deep copy of the menu forest.
func (s *Store) MenuTree() []*MenuNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTree(s.state.MenuTree)
}

// AccessibleMenus returns the flattened authorization set.
func (s *Store) AccessibleMenus() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.AccessibleMenus...)
}

// LeafMenus returns copies of the nodes without children, depth-first in tree order.
func (s *Store) LeafMenus() []*MenuNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return leafMenus(s.state.MenuTree)
}

// HasAccess reports whether target, a path or a route name, is in the accessible
// set or names an active node of the menu tree.
func (s *Store) HasAccess(target string) bool {
	if target == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.state.AccessibleMenus {
		if v == target {
			return true
		}
	}
	return treeContains(s.state.MenuTree, target)
}

// LeadTime returns the configured renewal window.
func (s *Store) LeadTime() time.Duration {
	return s.cfg.LeadTime
}
