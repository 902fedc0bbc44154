package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/zenjispace/zenjid/internal/auth"
)

// oauthStateCookie carries the CSRF state between the login redirect and the
// callback. Short-lived: the whole dance takes seconds.
const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * time.Minute
)

// sessionCookie is the JWT the dashboard presents on every API call.
const sessionCookie = "token"

// AuthHandler owns the GitHub login dance and the session endpoints.
type AuthHandler struct {
	provider *auth.GitHubProvider
	sessions *auth.Store
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthHandler creates the handler.
func NewAuthHandler(provider *auth.GitHubProvider, sessions *auth.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// HandleLogin starts the GitHub OAuth dance: sets the CSRF state cookie and
// redirects to the consent screen.
//
// GET /auth/github/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback finishes the dance: verifies the CSRF state, exchanges the
// code, installs the session, and hands the dashboard its JWT cookie.
//
// GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_state",
			Message: "OAuth state mismatch; restart the login",
		})
		return
	}
	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing_code",
			Message: "no authorization code in callback",
		})
		return
	}

	oauthToken, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github code exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "exchange_failed",
			Message: "GitHub did not accept the authorization code",
		})
		return
	}

	session, err := h.sessions.CompleteLogin(r.Context(), oauthToken)
	if err != nil {
		writeError(w, err)
		return
	}

	// The JWT authenticates the dashboard to this daemon; it is not the sync
	// identity. An unresolved login (GitHub /user flaked) still gets a token —
	// the id lookup is retried when sync needs it.
	subject := "unresolved"
	login := ""
	if session.User != nil {
		subject = session.User.Login
		login = session.User.Login
	}
	signed, err := h.tokens.Generate(subject)
	if err != nil {
		h.logger.Error("issuing session token failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("github login complete", slog.String("login", login))
	writeReply(w, "loginComplete", map[string]any{
		"authenticated": true,
		"login":         login,
	})
}

// HandleLogout drops the in-memory session and expires the JWT cookie. Local
// data (and the cached github user id) stay — only an explicit data clear
// removes those.
//
// POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	h.logger.Info("logged out")
	writeReply(w, "logoutComplete", map[string]any{"authenticated": false})
}

// HandleSession is the public session probe the dashboard polls on startup.
//
// GET /api/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetSession()
	if session == nil {
		writeReply(w, "sessionStatus", map[string]any{"authenticated": false})
		return
	}

	payload := map[string]any{
		"authenticated": true,
		"since":         session.CreatedAt.Format(time.RFC3339),
	}
	if session.User != nil {
		payload["login"] = session.User.Login
		payload["avatarUrl"] = session.User.AvatarURL
	}
	writeReply(w, "sessionStatus", payload)
}
