package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Role session role claim
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleStaff      Role = "STAFF"
)

func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleManager || r == RoleStaff
}

// IsAdmin managers and super admins may change the roster.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleManager
}

// roleFromClaim missing or unknown roles default to MANAGER.
func roleFromClaim(v string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	if !r.Valid() {
		return RoleManager
	}
	return r
}

// Session an authenticated identity
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	FullName     string `json:"fullName,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         Role   `json:"role"`
}

// SignUpRequest account registration
type SignUpRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	Organization string `json:"organization"`
	Role         Role   `json:"role"`
}

// Authenticator verifies credentials against the identity service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, req SignUpRequest) (Session, error)
}

type identityUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type identityTokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        identityUser `json:"user"`
}

type identityError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (e identityError) message() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return "identity service error"
}

// IdentityClient talks to a Supabase-compatible auth API
// (/auth/v1/token?grant_type=password and /auth/v1/signup).
type IdentityClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewIdentityClient(baseURL, anonKey string, timeout time.Duration, logger *zap.Logger) *IdentityClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if anonKey != "" {
		client.SetHeader("apikey", anonKey)
	}
	return &IdentityClient{httpClient: client, logger: logger}
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	var out identityTokenResponse
	var fail identityError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&fail).
		Post("/auth/v1/token")
	if err != nil {
		return Session{}, fmt.Errorf("identity request failed: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusBadRequest, resp.StatusCode() == http.StatusUnauthorized:
		c.logger.Info("sign-in rejected", zap.String("email", email), zap.String("reason", fail.message()))
		return Session{}, ErrInvalidCredentials
	case resp.IsError():
		return Session{}, fmt.Errorf("identity service returned %d: %s", resp.StatusCode(), fail.message())
	}
	return sessionFromUser(out.User), nil
}

func (c *IdentityClient) SignUp(ctx context.Context, req SignUpRequest) (Session, error) {
	if req.Email == "" || len(req.Password) < 6 || strings.TrimSpace(req.FullName) == "" {
		return Session{}, fmt.Errorf("%w: email, full name and a password of at least 6 characters are required", ErrInvalidInput)
	}
	if req.Role != RoleManager && req.Role != RoleStaff {
		return Session{}, fmt.Errorf("%w: role must be MANAGER or STAFF", ErrInvalidInput)
	}
	var out identityUser
	var fail identityError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"email":    req.Email,
			"password": req.Password,
			"data": map[string]string{
				"full_name":    req.FullName,
				"organization": req.Organization,
				"role":         string(req.Role),
			},
		}).
		SetResult(&out).
		SetError(&fail).
		Post("/auth/v1/signup")
	if err != nil {
		return Session{}, fmt.Errorf("identity request failed: %w", err)
	}
	if resp.IsError() {
		if resp.StatusCode() < 500 {
			return Session{}, fmt.Errorf("%w: %s", ErrInvalidInput, fail.message())
		}
		return Session{}, fmt.Errorf("identity service returned %d: %s", resp.StatusCode(), fail.message())
	}
	return sessionFromUser(out), nil
}

func sessionFromUser(u identityUser) Session {
	meta := func(k string) string {
		if v, ok := u.UserMetadata[k].(string); ok {
			return v
		}
		return ""
	}
	return Session{
		UserID:       u.ID,
		Email:        u.Email,
		FullName:     meta("full_name"),
		Organization: meta("organization"),
		Role:         roleFromClaim(meta("role")),
	}
}
