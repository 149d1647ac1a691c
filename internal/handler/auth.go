package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/service"
)

// sessionLifetime is how long a login lasts. The JWT and the cookie expire
// together.
const sessionLifetime = 7 * 24 * time.Hour

// AuthHandler manages registration, login, logout, and the GitHub OAuth
// flow. It is the only handler that writes cookies.
type AuthHandler struct {
	authService *service.AuthService
	tokens      *auth.TokenService
	github      *auth.GitHubProvider // nil when OAuth is not configured
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. github may be nil; the OAuth
// endpoints then report that the flow is not configured.
func NewAuthHandler(
	authService *service.AuthService,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		github:      github,
		logger:      logger,
	}
}

// setSessionCookie issues the JWT and attaches it as an HttpOnly cookie.
// SameSite=Lax lets the cookie ride on top-level navigations (the OAuth
// callback redirect) while still blocking cross-site POSTs.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, userID string) error {
	token, err := h.tokens.GenerateWithDuration(userID, sessionLifetime)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearCookie expires a cookie. The path must match the one it was set
// with, or the browser keeps the original.
func clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and issues a session cookie.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleLogout clears the session cookie. The JWT itself stays valid until
// expiry; there is no server-side revocation list.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, auth.SessionCookie, "/")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the account behind the current session.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// stateCookie carries the OAuth CSRF state between the login redirect and
// the callback.
const stateCookie = "oauth_state"

// HandleGitHubLogin starts the GitHub Authorization Code flow.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "GitHub login is not configured"})
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		writeError(w, err)
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow: it checks the CSRF state,
// trades the code for a GitHub profile, upserts the account, and issues the
// session cookie.
//
// HTTP: GET /auth/github/callback
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "GitHub login is not configured"})
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid OAuth state"})
		return
	}
	clearCookie(w, stateCookie, "/auth/github")

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github code exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "GitHub login failed"})
		return
	}

	user, err := h.authService.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.setSessionCookie(w, user.ID); err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
