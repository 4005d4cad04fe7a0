package session

import (
	"testing"
	"time"
)

// FuzzSessionDecode exercises the snapshot decoder with arbitrary inputs.
// Goal: no panics, graceful error handling, and re-encodable results.
func FuzzSessionDecode(f *testing.F) {
	snap := Snapshot{
		Identity:   Identity{LoginID: "bob", UserID: "7"},
		Credential: Credential{Token: "T1", Type: "Bearer", ExpiresAt: time.Unix(1700003600, 0).UTC()},
		MenuTree: []*MenuNode{
			{ID: "1", Name: "root", Sort: 1, Active: true, Children: []*MenuNode{
				{ID: "2", ParentID: "1", Name: "orders", Path: "/orders", Sort: 1, Active: true},
			}},
		},
		AccessibleMenus: []string{"/orders", "orders"},
		SessionChecked:  true,
	}
	encoded, err := Encode(snap)
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte("{}"))
	f.Add([]byte(`{"v":1}`))
	f.Add([]byte(`{"v":99,"session":{}}`))
	f.Add([]byte(`{"v":1,"session":{"menuTree":[{"children":[{}]}]}}`))

	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
	})
}
