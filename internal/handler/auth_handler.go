package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/service"
)

// AuthHandler serves registration, login and the password lifecycle.
type AuthHandler struct {
	auth         *service.AuthService
	cookieTTL    time.Duration
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. cookieTTL should match the token
// lifetime so the cookie and the JWT expire together.
func NewAuthHandler(svc *service.AuthService, cookieTTL time.Duration, cookieSecure bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         svc,
		cookieTTL:    cookieTTL,
		cookieSecure: cookieSecure,
		logger:       logger.With().Str("handler", "auth").Logger(),
	}
}

type registerRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	session, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.sendSession(w, http.StatusCreated, session)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.sendSession(w, http.StatusOK, session)
}

// Logout handles GET /api/v1/auth/logout. It expires the session cookie;
// tokens held elsewhere simply age out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	respond(w, http.StatusOK, struct{}{})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, actor)
}

// UpdateDetails handles PUT /api/v1/auth/updatedetails.
func (h *AuthHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req updateDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	user, err := h.auth.UpdateDetails(r.Context(), actor, req.Name, req.Email)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// UpdatePassword handles PUT /api/v1/auth/updatepassword.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	session, err := h.auth.UpdatePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.sendSession(w, http.StatusOK, session)
}

// ForgotPassword handles POST /api/v1/auth/forgotpassword. The emailed reset
// link points back at this API's reset route.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/auth/resetpassword", requestScheme(r), r.Host)
	if err := h.auth.ForgotPassword(r.Context(), req.Email, resetURL); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Email sent")
}

// ResetPassword handles PUT /api/v1/auth/resetpassword/{resettoken}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	session, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "resettoken"), req.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.sendSession(w, http.StatusOK, session)
}

// sendSession writes the token into the response body and the session
// cookie.
func (h *AuthHandler) sendSession(w http.ResponseWriter, status int, session *service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	writeJSON(w, status, map[string]any{
		"success": true,
		"token":   session.Token,
	})
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
