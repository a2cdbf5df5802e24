package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/internal/idp"
	"github.com/hybridui/suite/pkg/httpcontext"
	"github.com/hybridui/suite/pkg/transfer"
	authUC "github.com/hybridui/suite/usecase/auth"
)

// AzureHandler drives the delegated Azure AD login. The browser lands on
// Login, round-trips through the provider, and comes back to Callback with an
// authorization code; the callback mints a regular session and hands it to
// the frontdoor with the usual transfer parameters.
type AzureHandler struct {
	baseHandler
	uc           *authUC.UseCase
	provider     *idp.Azure
	frontdoorURL string
}

func NewAzureHandler(uc *authUC.UseCase, provider *idp.Azure, frontdoorURL string, adapter *httpcontext.Adapter, logger *zap.Logger) *AzureHandler {
	return &AzureHandler{
		baseHandler:  newBaseHandler(adapter, logger),
		uc:           uc,
		provider:     provider,
		frontdoorURL: frontdoorURL,
	}
}

// Login redirects the browser to the provider's authorize endpoint. A
// returnTo parameter rides along in the OAuth state so the frontdoor can
// resume the interrupted navigation after the callback.
// GET /auth/azure/login
func (h *AzureHandler) Login(ctx *fasthttp.RequestCtx) {
	state := string(ctx.QueryArgs().Peek("returnTo"))
	if state == "" {
		state = uuid.NewString()
	}
	ctx.Redirect(h.provider.AuthorizeURL(state), http.StatusFound)
}

// Callback finishes the flow: code exchange, profile extraction, session
// mint, provider-token attach, redirect into the frontdoor.
// GET /auth/azure/callback
func (h *AzureHandler) Callback(ctx *fasthttp.RequestCtx) {
	if providerErr := string(ctx.QueryArgs().Peek("error")); providerErr != "" {
		h.logger.Warn("provider returned an error",
			zap.String("error", providerErr),
			zap.String("description", string(ctx.QueryArgs().Peek("error_description"))))
		ctx.Redirect(h.frontdoorURL+"/?loginError=provider", http.StatusFound)
		return
	}

	code := string(ctx.QueryArgs().Peek("code"))
	if code == "" {
		ctx.Redirect(h.frontdoorURL+"/?loginError=missing_code", http.StatusFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tokens, err := h.provider.Exchange(stdCtx, code)
	if err != nil {
		h.logger.Error("code exchange failed", zap.Error(err))
		ctx.Redirect(h.frontdoorURL+"/?loginError=exchange", http.StatusFound)
		return
	}

	profile, err := h.provider.Profile(stdCtx, tokens)
	if err != nil {
		h.logger.Error("profile resolution failed", zap.Error(err))
		ctx.Redirect(h.frontdoorURL+"/?loginError=profile", http.StatusFound)
		return
	}

	session, err := h.uc.Create(stdCtx, *profile)
	if err != nil {
		h.logger.Error("session mint failed after federated login", zap.Error(err))
		ctx.Redirect(h.frontdoorURL+"/?loginError=session", http.StatusFound)
		return
	}

	if err := h.uc.AttachProviderTokens(stdCtx, session.Token, tokens.ProviderTokens()); err != nil {
		// Session stands on its own; losing provider tokens only affects
		// later revocation.
		h.logger.Warn("provider token store failed", zap.Error(err))
	}

	target := h.frontdoorURL + "/"
	if state := string(ctx.QueryArgs().Peek("state")); strings.HasPrefix(state, "http") {
		target += "?returnTo=" + url.QueryEscape(state)
	}
	ctx.Redirect(transfer.BuildURL(target, session.Token, session.User), http.StatusFound)
}
