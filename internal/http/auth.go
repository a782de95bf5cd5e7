package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/djval79/caresync1/internal/service"

	"go.uber.org/zap"
)

type sessionKey struct{}

func withSession(ctx context.Context, s service.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom the caller attached by Authenticator.Require.
func SessionFrom(ctx context.Context) (service.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(service.Session)
	return s, ok
}

// Authenticator checks bearer tokens issued at login.
type Authenticator struct {
	tokens *service.TokenIssuer
	logger *zap.Logger
}

func NewAuthenticator(tokens *service.TokenIssuer, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Require rejects requests without a valid token with 401 / code 60401.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, TokenExpired("missing bearer token"))
			return
		}
		sess, err := a.tokens.Verify(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				msg = "token expired"
			}
			a.logger.Debug("rejected bearer token", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, TokenExpired(msg))
			return
		}
		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}

// requireAdmin writes 403 and returns false unless the caller is a manager or
// super admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	s, ok := SessionFrom(r.Context())
	if !ok || !s.Role.IsAdmin() {
		writeJSON(w, http.StatusForbidden, Fail("manager role required"))
		return false
	}
	return true
}

// AuthHandler login and sign-up against the identity service.
type AuthHandler struct {
	identity service.Authenticator
	tokens   *service.TokenIssuer
	logger   *zap.Logger
}

func NewAuthHandler(identity service.Authenticator, tokens *service.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, logger: logger}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.identity == nil {
		writeJSON(w, http.StatusOK, Fail("identity service not configured"))
		return
	}
	switch r.URL.Path {
	case "/auth/api/v1/login":
		h.Login(w, r)
	case "/auth/api/v1/signup":
		h.SignUp(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult issued session
type LoginResult struct {
	AccessToken string          `json:"accessToken"`
	ExpiresAt   int64           `json:"expiresAt"`
	User        service.Session `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusOK, Fail("email and password are required"))
		return
	}
	sess, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeIdentityError(w, err)
		return
	}
	h.issue(w, sess)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := readBodyJSON(r, maxBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	sess, err := h.identity.SignUp(r.Context(), req)
	if err != nil {
		h.writeIdentityError(w, err)
		return
	}
	h.issue(w, sess)
}

func (h *AuthHandler) issue(w http.ResponseWriter, sess service.Session) {
	token, exp, err := h.tokens.Issue(sess)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("internal error"))
		return
	}
	h.logger.Info("session issued", zap.String("user_id", sess.UserID), zap.String("role", string(sess.Role)))
	writeJSON(w, http.StatusOK, Ok(LoginResult{AccessToken: token, ExpiresAt: exp.Unix(), User: sess}))
}

func (h *AuthHandler) writeIdentityError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, Fail(err.Error()))
		return
	}
	if errors.Is(err, service.ErrInvalidInput) {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	h.logger.Warn("identity service call failed", zap.Error(err))
	writeJSON(w, http.StatusOK, Fail("identity service unavailable"))
}
