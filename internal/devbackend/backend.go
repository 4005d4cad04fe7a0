package devbackend

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/logger"
)

// Endpoint paths served by the backend.
const (
	PathLogin    = "/api/auth/login"
	PathLogout   = "/api/auth/logout"
	PathRefresh  = "/api/auth/refresh"
	PathMe       = "/api/auth/me"
	PathMenuAuth = "/main/main/isMenuAuthExists.do"
	PathData     = "/api/data/{name}"
)

// RefreshCookie carries the renewal handle.
const RefreshCookie = "portal_refresh"

// Endpoint names used by [Server.Calls].
const (
	CallLogin    = "login"
	CallLogout   = "logout"
	CallRefresh  = "refresh"
	CallMe       = "me"
	CallMenuAuth = "menuAuth"
	CallData     = "data"
)

// Menu is one row of a user's flat menu list.
type Menu struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parentId,omitempty"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Sort     int    `json:"sort"`
	Active   string `json:"active"`
}

// User is an account known to the backend.
type User struct {
	LoginID  string
	Password string
	UserID   int
	UserName string
	Email    string
	OrgName  string
	Menus    []Menu

	// LegacyRoutes are route names granted only through the menu-auth endpoint.
	LegacyRoutes []string
}

// Config configures a [Server].
type Config struct {
	Issuer *jwt.Issuer
	Users  []User
	Logger *zap.Logger
}

type refreshSession struct {
	loginID   string
	sessionID string
}

// Server is an in-process portal backend with login, renewal, identity, menu-auth and
// sample data endpoints. Failure knobs let tests drive every renewal outcome.
type Server struct {
	issuer *jwt.Issuer
	log    *zap.Logger
	router *mux.Router

	mu       sync.Mutex
	users    map[string]User
	sessions map[string]refreshSession // refresh handle -> session
	issued   []string                  // jti of every access token
	revoked  map[string]bool

	refreshStatus atomic.Int64
	refreshDelay  atomic.Int64
	refreshEmpty  atomic.Bool

	callsMu sync.Mutex
	calls   map[string]int
}

// New builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Issuer == nil {
		return nil, errors.New("devbackend: issuer is required")
	}
	s := &Server{
		issuer:   cfg.Issuer,
		log:      logger.OrNop(cfg.Logger).Named("devbackend"),
		users:    make(map[string]User, len(cfg.Users)),
		sessions: make(map[string]refreshSession),
		revoked:  make(map[string]bool),
		calls:    make(map[string]int),
	}
	for _, u := range cfg.Users {
		s.users[u.LoginID] = u
	}

	r := mux.NewRouter()
	r.HandleFunc(PathLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(PathLogout, s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc(PathRefresh, s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc(PathMe, s.handleMe).Methods(http.MethodGet)
	r.HandleFunc(PathMenuAuth, s.handleMenuAuth).Methods(http.MethodGet)
	r.HandleFunc(PathData, s.handleData).Methods(http.MethodGet, http.MethodPost)
	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Calls returns how often the named endpoint was hit.
func (s *Server) Calls(name string) int {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return s.calls[name]
}

// ResetCalls zeroes every counter.
func (s *Server) ResetCalls() {
	s.callsMu.Lock()
	s.calls = make(map[string]int)
	s.callsMu.Unlock()
}

// FailRefresh makes the renewal endpoint answer with status. Zero restores normal
// behavior.
func (s *Server) FailRefresh(status int) {
	s.refreshStatus.Store(int64(status))
}

// OmitRefreshToken makes successful renewals return a body without a token.
func (s *Server) OmitRefreshToken(omit bool) {
	s.refreshEmpty.Store(omit)
}

// DelayRefresh holds every renewal for d before answering.
func (s *Server) DelayRefresh(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

// RevokeAccessTokens rejects every access token issued so far. Renewal handles stay
// valid, so clients recover by renewing.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.issued {
		s.revoked[id] = true
	}
}

// EndSessions drops every renewal handle, as a server-side logout would.
func (s *Server) EndSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]refreshSession)
	for _, id := range s.issued {
		s.revoked[id] = true
	}
}

func (s *Server) count(name string) {
	s.callsMu.Lock()
	s.calls[name]++
	s.callsMu.Unlock()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count(CallLogin)

	var req struct {
		LoginID  string `json:"loginId"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request.invalid")
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.LoginID]
	s.mu.Unlock()
	if !ok || subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		writeError(w, http.StatusUnauthorized, "login.invalid")
		return
	}

	handle := uuid.NewString()
	sess := refreshSession{loginID: user.LoginID, sessionID: uuid.NewString()}
	token, _, err := s.issue(sess)
	if err != nil {
		s.log.Error("issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error")
		return
	}
	s.mu.Lock()
	s.sessions[handle] = sess
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    handle,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("login", zap.String("login_id", user.LoginID), zap.String("session_id", sess.sessionID))

	body := userPayload(user)
	body["accessToken"] = token
	body["tokenType"] = "Bearer"
	body["expiresIn"] = int64(s.issuer.TTL() / time.Second)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.count(CallLogout)
	if c, err := r.Cookie(RefreshCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.count(CallRefresh)

	if d := time.Duration(s.refreshDelay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}
	if status := int(s.refreshStatus.Load()); status != 0 {
		writeError(w, status, "session.expired")
		return
	}

	sess, ok := s.sessionOf(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session.expired")
		return
	}
	if s.refreshEmpty.Load() {
		writeJSON(w, http.StatusOK, map[string]any{"tokenType": "Bearer"})
		return
	}
	token, exp, err := s.issue(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresAt":   exp.Unix(),
	})
}

// handleMe answers the hydration probe. The token is returned without expiry so
// clients read it from the token itself.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.count(CallMe)
	sess, ok := s.sessionOf(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session.expired")
		return
	}
	s.mu.Lock()
	user := s.users[sess.loginID]
	s.mu.Unlock()

	token, _, err := s.issue(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error")
		return
	}
	body := userPayload(user)
	body["accessToken"] = token
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleMenuAuth(w http.ResponseWriter, r *http.Request) {
	s.count(CallMenuAuth)
	user, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session.expired")
		return
	}
	name := r.URL.Query().Get("url")
	allowed := "N"
	for _, n := range user.LegacyRoutes {
		if n == name {
			allowed = "Y"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": allowed})
}

// handleData serves sample rows. The names "broken" and "boom" produce an
// application error and a server error.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	s.count(CallData)
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "session.expired")
		return
	}
	name := mux.Vars(r)["name"]
	switch name {
	case "broken":
		writeJSON(w, http.StatusOK, map[string]any{"__errmsg__": "data.broken", "msgargs": []string{name}})
	case "boom":
		writeError(w, http.StatusInternalServerError, "server.error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"name":  name,
			"query": r.URL.RawQuery,
			"rows": []map[string]any{
				{"code": "A", "label": name + "-1"},
				{"code": "B", "label": name + "-2"},
			},
		})
	}
}

func (s *Server) issue(sess refreshSession) (string, time.Time, error) {
	s.mu.Lock()
	user := s.users[sess.loginID]
	s.mu.Unlock()

	token, exp, err := s.issuer.Issue(sess.loginID, itoa(user.UserID), sess.sessionID)
	if err != nil {
		return "", time.Time{}, err
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return "", time.Time{}, err
	}
	s.mu.Lock()
	s.issued = append(s.issued, claims.ID)
	s.mu.Unlock()
	return token, exp, nil
}

func (s *Server) sessionOf(r *http.Request) (refreshSession, bool) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		return refreshSession{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.Value]
	return sess, ok
}

func (s *Server) authenticate(r *http.Request) (User, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return User{}, false
	}
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		return User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[claims.ID] {
		return User{}, false
	}
	user, ok := s.users[claims.LoginID]
	return user, ok
}

func userPayload(u User) map[string]any {
	menus := u.Menus
	if menus == nil {
		menus = []Menu{}
	}
	return map[string]any{
		"user": map[string]any{
			"userId":   u.UserID,
			"loginId":  u.LoginID,
			"userName": u.UserName,
			"email":    u.Email,
			"orgName":  u.OrgName,
			"useYn":    "Y",
		},
		"menus": menus,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, key string) {
	writeJSON(w, status, map[string]any{"__errmsg__": key})
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
