package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/api/transport"
	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/pkg/httpcontext"
	authUC "github.com/hybridui/suite/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// Login authenticates a username/password pair and mints a session.
// POST /auth/login
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Error: "invalid payload"})
		return
	}
	if req.Username == "" || req.Password == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Error: "username and password are required"})
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.respondJSON(ctx, http.StatusUnauthorized, transport.ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		h.respondError(ctx, err)
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.LoginResponse{
		SessionToken: session.Token,
		User:         session.User,
		ExpiresAt:    session.ExpiresAt,
	})
}

// Validate checks a session token, sliding its expiry window on success.
// The response never carries a transport-level failure the client has to
// special-case: anything that is not a confirmed session is valid:false.
// POST /auth/validate
func (h *AuthHandler) Validate(ctx *fasthttp.RequestCtx) {
	var req transport.TokenRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.SessionToken == "" {
		h.respondJSON(ctx, http.StatusOK, transport.NewValidateFailure())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Validate(stdCtx, req.SessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			h.respondJSON(ctx, http.StatusOK, transport.NewValidateFailure())
			return
		}
		h.logger.Error("validate failed", zap.Error(err))
		h.respondJSON(ctx, http.StatusInternalServerError, transport.ValidateResponse{Valid: false, Error: "internal server error"})
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.NewValidateSuccess(session.User, session.ExpiresAt))
}

// Logout invalidates a session token. Always reports success, including for
// unknown tokens and store failures.
// POST /auth/logout
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	var req transport.TokenRequest
	_ = json.Unmarshal(ctx.PostBody(), &req)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.uc.Logout(stdCtx, req.SessionToken)
	h.respondJSON(ctx, http.StatusOK, transport.LogoutResponse{Success: true})
}

// Refresh explicitly extends a session's TTL.
// POST /auth/refresh
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.TokenRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.SessionToken == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewValidateFailure())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Refresh(stdCtx, req.SessionToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			h.respondJSON(ctx, http.StatusUnauthorized, transport.NewValidateFailure())
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		h.respondJSON(ctx, http.StatusInternalServerError, transport.ValidateResponse{Valid: false, Error: "internal server error"})
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.RefreshResponse{
		SessionToken: session.Token,
		ExpiresAt:    session.ExpiresAt,
	})
}
