package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/logger"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// cookieKey stores the renewal cookies next to the session snapshot so that a later
// invocation can still renew.
const cookieKey = "cookies"

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sessionEnv is one open profile: the engine, its bolt file and the cookie jar.
type sessionEnv struct {
	engine  *goSession.Engine
	storage *session.BoltStorage
	jar     http.CookieJar
	base    *url.URL
	log     *zap.Logger
}

func defaultRoutes() map[string]string {
	return map[string]string{
		"/":              "",
		"/login":         "login",
		"/main":          "main",
		"/system/users":  "users",
		"/system/codes":  "codes",
		"/reports/daily": "daily",
		"/audit":         "audit",
	}
}

func routesFrom(v *viper.Viper) []navigation.Route {
	table := v.GetStringMapString("routes")
	if len(table) == 0 {
		table = defaultRoutes()
	}
	paths := make([]string, 0, len(table))
	for p := range table {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	routes := make([]navigation.Route, 0, len(paths))
	for _, p := range paths {
		routes = append(routes, navigation.Route{Path: p, Name: table[p]})
	}
	return routes
}

func dataDir(v *viper.Viper) (string, error) {
	if dir := v.GetString("data_dir"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "portalctl"), nil
}

func openSession(ctx context.Context, v *viper.Viper, s stdio) (*sessionEnv, error) {
	cfg, err := goSession.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if baseURL := v.GetString("base_url"); baseURL != "" {
		cfg.Transport.BaseURL = baseURL
	}
	if cfg.Transport.BaseURL == "" {
		return nil, errors.New("base url is required (--base-url or PORTALCTL_BASE_URL)")
	}
	if lead := v.GetDuration("lead_time"); lead > 0 {
		cfg.Session.LeadTime = lead
	}
	if v.IsSet("legacy_menu_auth") {
		cfg.Navigation.LegacyMenuAuth = v.GetBool("legacy_menu_auth")
	}

	base, err := url.Parse(cfg.Transport.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	dir, err := dataDir(v)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:    v.GetString("log_level"),
		Encoding: "console",
		Output:   s.err,
	})
	if err != nil {
		return nil, err
	}

	storage, err := session.OpenBoltStorage(filepath.Join(dir, v.GetString("profile")+".db"), cfg.Session.BoltBucket)
	if err != nil {
		return nil, err
	}

	jar, _ := cookiejar.New(nil)
	env := &sessionEnv{storage: storage, jar: jar, base: base, log: log}
	env.loadCookies(ctx)

	client := transport.NewHTTPClient(cfg.Transport.BaseURL, transport.WithHTTPClient(&http.Client{
		Jar:     jar,
		Timeout: cfg.Transport.Timeout,
	}))

	engine, err := goSession.New().
		WithConfig(cfg).
		WithStorage(storage).
		WithTransport(client).
		WithLogger(log).
		WithNotifier(notify.NewWriterNotifier(s.err, s.in)).
		WithRedirector(navigation.RedirectorFunc(func(_ context.Context, path string) error {
			_, err := fmt.Fprintf(s.out, "redirect %s\n", path)
			return err
		})).
		WithRoutes(routesFrom(v)...).
		Build()
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	env.engine = engine

	if err := engine.Restore(ctx); err != nil {
		_ = env.close(ctx)
		return nil, err
	}
	return env, nil
}

func (e *sessionEnv) loadCookies(ctx context.Context) {
	data, err := e.storage.Load(ctx, cookieKey)
	if err != nil {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		e.log.Warn("discarding unreadable cookies", zap.Error(err))
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	e.jar.SetCookies(e.base, cookies)
}

func (e *sessionEnv) saveCookies(ctx context.Context) error {
	cookies := e.jar.Cookies(e.base)
	if len(cookies) == 0 {
		return e.storage.Delete(ctx, cookieKey)
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return e.storage.Save(ctx, cookieKey, data)
}

func (e *sessionEnv) close(ctx context.Context) error {
	var errs []error
	if err := e.saveCookies(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save cookies: %w", err))
	}
	if e.engine != nil {
		errs = append(errs, e.engine.Close())
	}
	errs = append(errs, e.storage.Close())
	_ = e.log.Sync()
	return errors.Join(errs...)
}
