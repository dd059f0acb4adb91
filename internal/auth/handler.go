package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/frahmantamala/report-hub/pkg/logger"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*coreuser.User, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ResolveCaller(ctx context.Context, accessToken string) (*coreuser.User, error)
	GetUser(ctx context.Context, id int64) (*coreuser.User, error)
	AccessTokenTTL() time.Duration
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	CookieSecure bool
}

func NewHandler(svc ServiceAPI, cookieSecure bool) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		CookieSecure: cookieSecure,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("Register: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Register: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusCreated, transport.Envelope{
		"message": "User registered successfully. Please login.",
		"user":    u.Profile(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("Login: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Login: authentication failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Tokens.AccessToken, h.Service.AccessTokenTTL())
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"token":        result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
		"user":         result.User.Profile(),
	})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Error("RefreshToken: token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, tokens.AccessToken, h.Service.AccessTokenTTL())
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "Me")
	if !ok {
		return
	}

	u, err := h.Service.GetUser(r.Context(), caller.ID)
	if err != nil {
		h.Logger.Error("Me: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"user": u.Profile()})
}

// AuthMiddleware rejects the request unless it carries a token that resolves
// to an active account. The Authorization header wins over the cookie.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			if c, err := r.Cookie(CookieName); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			h.Logger.Warn("auth middleware: missing token", "path", r.URL.Path)
			h.WriteAppError(w, internal.ErrMissingToken)
			return
		}

		u, err := h.Service.ResolveCaller(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithCaller(r.Context(), u.Caller())
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// setSessionCookie writes the session cookie; a negative ttl clears it.
func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
