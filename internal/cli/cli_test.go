package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/internal/devbackend"
)

type fixture struct {
	backend *devbackend.Server
	baseURL string
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := devbackend.NewDemo(5*time.Minute, time.Now)
	if err != nil {
		t.Fatalf("NewDemo failed: %v", err)
	}
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)
	return &fixture{backend: backend, baseURL: ts.URL, dir: t.TempDir()}
}

// run executes one portalctl invocation against the fixture and returns stdout.
func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--base-url", f.baseURL, "--data-dir", f.dir}, args...)
	err := Execute(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (f *fixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := f.run(t, "", args...)
	if err != nil {
		t.Fatalf("portalctl %v failed: %v", args, err)
	}
	return out
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	f := newFixture(t)

	out := f.mustRun(t, "login", "admin", "-w", "admin1234")
	if !strings.Contains(out, "signed in as Administrator (admin)") {
		t.Fatalf("unexpected login output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "default.db")); err != nil {
		t.Fatalf("expected profile file: %v", err)
	}

	out = f.mustRun(t, "whoami")
	if !strings.Contains(out, "login:  admin") || !strings.Contains(out, "org:    Head Office") {
		t.Fatalf("unexpected whoami output: %q", out)
	}

	out = f.mustRun(t, "menus")
	for _, want := range []string{"system", "  codes /system/codes", "  daily /reports/daily"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in menus output: %q", want, out)
		}
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "clerk1234\n", "login", "clerk")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "(clerk)") {
		t.Fatalf("unexpected login output: %q", out)
	}
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t)

	if _, err := f.run(t, "", "login", "admin", "-w", "wrong"); err == nil {
		t.Fatal("expected rejected login to fail")
	}
	if out := f.mustRun(t, "whoami"); !strings.Contains(out, "not signed in") {
		t.Fatalf("unexpected whoami output: %q", out)
	}
}

func TestCallRenewsWithPersistedCookie(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "login", "admin", "-w", "admin1234")

	f.backend.RevokeAccessTokens()
	out := f.mustRun(t, "call", "/api/data/orders", "page=2")

	if got := f.backend.Calls(devbackend.CallRefresh); got != 1 {
		t.Fatalf("expected one renewal from the stored cookie, got %d", got)
	}
	if !strings.Contains(out, `"query": "page=2"`) || !strings.Contains(out, "orders-1") {
		t.Fatalf("unexpected call output: %q", out)
	}
}

func TestCallRejectsMalformedParams(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "login", "admin", "-w", "admin1234")

	if _, err := f.run(t, "", "call", "/api/data/orders", "page"); err == nil {
		t.Fatal("expected malformed parameter to fail")
	}
	if _, err := f.run(t, "", "call", "/api/data/orders", "-d", "{"); err == nil {
		t.Fatal("expected malformed body to fail")
	}
}

func TestNavSettlesOnFirstAccessibleMenu(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "login", "clerk", "-w", "clerk1234")

	out := f.mustRun(t, "nav", "/system/users", "--from", "/reports/daily")
	if strings.TrimSpace(out) != "proceed /reports/daily" {
		t.Fatalf("unexpected nav output: %q", out)
	}
}

func TestLogoutClearsProfile(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "login", "admin", "-w", "admin1234")

	if out := f.mustRun(t, "logout"); !strings.Contains(out, "signed out") {
		t.Fatalf("unexpected logout output: %q", out)
	}
	if out := f.mustRun(t, "whoami"); !strings.Contains(out, "not signed in") {
		t.Fatalf("expected signed out profile, got %q", out)
	}
	if got := f.backend.Calls(devbackend.CallLogout); got != 1 {
		t.Fatalf("expected one server logout, got %d", got)
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "--profile", "ops", "login", "admin", "-w", "admin1234")

	if out := f.mustRun(t, "whoami"); !strings.Contains(out, "not signed in") {
		t.Fatalf("expected default profile to stay empty, got %q", out)
	}
	if out := f.mustRun(t, "-p", "ops", "whoami"); !strings.Contains(out, "login:  admin") {
		t.Fatalf("expected ops profile session, got %q", out)
	}
}

func TestShellSharesOneSession(t *testing.T) {
	f := newFixture(t)

	script := strings.Join([]string{
		"login clerk",
		"login clerk -w clerk1234",
		"call /api/data/orders",
		"nav /reports/daily",
		"exit",
	}, "\n")
	out, err := f.run(t, script, "shell")
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	if !strings.Contains(out, "signed in as Clerk (clerk)") || !strings.Contains(out, "proceed /reports/daily") {
		t.Fatalf("unexpected shell output: %q", out)
	}
	if got := f.backend.Calls(devbackend.CallLogin); got != 1 {
		t.Fatalf("expected the passwordless line to be refused, got %d logins", got)
	}
}

func TestConfigFileSetsBaseURL(t *testing.T) {
	f := newFixture(t)
	cfgPath := filepath.Join(f.dir, "portalctl.yaml")
	content := "base_url: " + f.baseURL + "\ndata_dir: " + f.dir + "\nprofile: fromfile\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	err := Execute(context.Background(), []string{"--config", cfgPath, "login", "admin", "-w", "admin1234"}, nil, &out, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("login with config file failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "fromfile.db")); err != nil {
		t.Fatalf("expected profile named in the config file: %v", err)
	}
}

func TestMissingBaseURL(t *testing.T) {
	t.Setenv("PORTAL_API_BASE_URL", "")
	err := Execute(context.Background(), []string{"--data-dir", t.TempDir(), "whoami"}, nil, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "base url is required") {
		t.Fatalf("expected missing base url error, got %v", err)
	}
}

func TestServeMetricsExposesSessionCounters(t *testing.T) {
	f := newFixture(t)
	v := newViper()
	v.Set("base_url", f.baseURL)
	v.Set("data_dir", f.dir)
	a := &app{v: v, io: stdio{out: &bytes.Buffer{}, err: &bytes.Buffer{}}}
	t.Cleanup(func() { _ = a.close(context.Background()) })

	env, err := a.session(context.Background())
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if _, err := env.engine.Login(context.Background(), "admin", "admin1234"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	addr, stop, err := serveMetrics(env, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("serveMetrics failed: %v", err)
	}
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read scrape: %v", err)
	}
	if !strings.Contains(string(body), "gosession_login_success_total 1") {
		t.Fatalf("expected login counter in scrape:\n%s", body)
	}
}
