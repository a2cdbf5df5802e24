// Package webapp is the shared server core of the origin applications. Each
// app owns an isolated session cache, so session state moves between origins
// only through redirect URLs: the transfer parameters carry a session in, the
// logout parameters carry cascade progress through every participant.
package webapp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/pkg/authclient"
	"github.com/hybridui/suite/pkg/cascade"
	"github.com/hybridui/suite/pkg/sessioncache"
	"github.com/hybridui/suite/pkg/transfer"
)

// Query parameters owned by the frontdoor login flow.
const (
	ParamReturnTo       = "returnTo"
	ParamSessionExpired = "sessionExpired"
	ParamLoggedOut      = "loggedOut"
)

// optimisticTTL bounds a cache entry adopted while the session service was
// unreachable; the validation sweep corrects it as soon as the service is
// back.
const optimisticTTL = 30 * time.Minute

// App is one origin's server core. Frontdoor, CRM and revenue all embed the
// same pipeline and differ only in the pages and APIs they mount on top.
type App struct {
	cfg    *config.AppConfig
	cache  *sessioncache.Cache
	auth   *authclient.Client
	logger *zap.Logger
}

func New(cfg *config.AppConfig, cache *sessioncache.Cache, auth *authclient.Client, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, cache: cache, auth: auth, logger: logger}
}

func (a *App) Name() string { return a.cfg.Name }

// NavLink is one entry in the cross-origin navigation bar.
type NavLink struct {
	Name    string
	URL     string
	Current bool
}

// View is the per-request state handed to page handlers after the pipeline
// has run.
type View struct {
	LocalID string
	Session *sessioncache.Entry
	Nav     []NavLink
}

func (v *View) Authenticated() bool { return v.Session != nil }

func (v *View) User() domain.UserProfile {
	if v.Session == nil {
		return domain.UserProfile{}
	}
	return v.Session.User
}

// Page wraps a handler with the session pipeline. Order matters: a logout
// cascade hop must run before anything else touches local state, and transfer
// adoption must run before the session gate so an arriving handoff is not
// bounced back to the frontdoor.
func (a *App) Page(requireSession bool, next func(ctx *fasthttp.RequestCtx, view *View)) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		localID := a.ensureLocalID(ctx)
		query := queryValues(ctx)

		if query.Get(cascade.ParamLogout) == "true" {
			a.cascadeHop(ctx, localID, cascade.ParseFrom(query.Get(cascade.ParamFrom)))
			return
		}

		if token, user, ok := transfer.Decode(query); ok {
			a.adopt(ctx, localID, token, user)
			return
		}

		entry, err := a.cache.Load(localID)
		if err != nil {
			a.logger.Error("session cache read failed", zap.Error(err))
		}

		if requireSession && entry == nil {
			a.redirectToLogin(ctx, a.cache.ConsumeEviction(localID))
			return
		}

		next(ctx, &View{
			LocalID: localID,
			Session: entry,
			Nav:     a.navLinks(entry),
		})
	}
}

// API wraps a JSON handler with a local session gate. The local cache is an
// unverified signal; the periodic sweep reconciles it against the session
// service, so a stale positive lives at most one sweep interval.
func (a *App) API(next func(ctx *fasthttp.RequestCtx, view *View)) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		localID := a.ensureLocalID(ctx)
		entry, err := a.cache.Load(localID)
		if err != nil {
			a.logger.Error("session cache read failed", zap.Error(err))
		}
		if entry == nil {
			ctx.Response.Header.SetContentType("application/json")
			ctx.SetStatusCode(http.StatusUnauthorized)
			ctx.SetBodyString(`{"error":"authentication required"}`)
			return
		}
		next(ctx, &View{LocalID: localID, Session: entry})
	}
}

// Logout starts the cascade from this origin.
func (a *App) Logout(ctx *fasthttp.RequestCtx) {
	a.cascadeHop(ctx, a.ensureLocalID(ctx), cascade.State{})
}

// cascadeHop invalidates this origin's copy of the session, marks the origin
// visited and forwards the cascade. The server-side invalidate is idempotent,
// so every hop may attempt it; a failure never stalls the cascade since the
// server record ages out on its own TTL. Completion lands on the frontdoor
// login page.
func (a *App) cascadeHop(ctx *fasthttp.RequestCtx, localID string, state cascade.State) {
	if entry, err := a.cache.Load(localID); err == nil && entry != nil {
		probeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Watch.ProbeTimeout)
		defer cancel()
		if err := a.auth.Logout(probeCtx, entry.Token); err != nil {
			a.logger.Warn("server-side logout failed", zap.Error(err))
		}
	}

	if err := a.cache.Clear(localID); err != nil {
		a.logger.Error("session cache clear failed", zap.Error(err))
	}

	state = state.Append(a.cfg.Name)

	if hop, ok := cascade.NextHop(a.originNames(), state); ok {
		params := url.Values{}
		params.Set(cascade.ParamLogout, "true")
		params.Set(cascade.ParamFrom, state.Format())
		ctx.Redirect(a.originURL(hop)+"/?"+params.Encode(), http.StatusFound)
		return
	}

	target := "/?" + ParamLoggedOut + "=true"
	if a.cfg.Name != "frontdoor" {
		target = a.cfg.FrontdoorURL + target
	}
	ctx.Redirect(target, http.StatusFound)
}

// adopt installs a session arriving via transfer parameters and immediately
// redirects to the same URL with the parameters stripped, so the token does
// not linger in history or logs. The handoff is confirmed against the session
// service when reachable; an unreachable service does not block adoption.
func (a *App) adopt(ctx *fasthttp.RequestCtx, localID, token string, user domain.UserProfile) {
	entry := sessioncache.Entry{
		Token:     token,
		User:      user,
		ExpiresAt: time.Now().Add(optimisticTTL),
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Watch.ProbeTimeout)
	defer cancel()

	resp, err := a.auth.Validate(probeCtx, token)
	switch {
	case err != nil:
		a.logger.Warn("handoff validation unavailable, adopting optimistically", zap.Error(err))
	case !resp.Valid:
		// A definitive negative: the handed-off session is dead. Do not
		// install it.
		if clearErr := a.cache.Clear(localID); clearErr != nil {
			a.logger.Error("session cache clear failed", zap.Error(clearErr))
		}
		ctx.Redirect(transfer.Strip(string(ctx.RequestURI())), http.StatusFound)
		return
	default:
		if resp.User != nil {
			entry.User = *resp.User
		}
		if resp.ExpiresAt != nil {
			entry.ExpiresAt = *resp.ExpiresAt
		}
	}

	if err := a.cache.Store(localID, entry); err != nil {
		a.logger.Error("session cache write failed", zap.Error(err))
	}
	ctx.Redirect(transfer.Strip(string(ctx.RequestURI())), http.StatusFound)
}

// redirectToLogin bounces an unauthenticated request to the frontdoor.
// sessionExpired is only claimed when the sweep actually tore the session
// down; a browser that never signed in gets a plain login prompt.
func (a *App) redirectToLogin(ctx *fasthttp.RequestCtx, expired bool) {
	params := url.Values{}
	params.Set(ParamReturnTo, a.cfg.PublicURL+transfer.Strip(string(ctx.RequestURI())))
	if expired {
		params.Set(ParamSessionExpired, "true")
	}
	ctx.Redirect(a.cfg.FrontdoorURL+"/?"+params.Encode(), http.StatusFound)
}

// StoreSession installs a freshly minted session for this browser.
func (a *App) StoreSession(localID string, entry sessioncache.Entry) error {
	return a.cache.Store(localID, entry)
}

// CrossOriginURL builds a link to another origin, carrying the session when
// one exists so the destination can adopt it.
func (a *App) CrossOriginURL(target string, entry *sessioncache.Entry) string {
	base := a.originURL(target) + "/"
	if entry == nil {
		return base
	}
	return transfer.BuildURL(base, entry.Token, entry.User)
}

// ValidReturnTo reports whether raw points at one of the configured origins.
// Anything else is discarded so the login flow cannot be used as an open
// redirect.
func (a *App) ValidReturnTo(raw string) bool {
	if raw == "" {
		return false
	}
	for _, origin := range a.cfg.Origins {
		if raw == origin.URL || strings.HasPrefix(raw, origin.URL+"/") {
			return true
		}
	}
	return false
}

func (a *App) navLinks(entry *sessioncache.Entry) []NavLink {
	links := make([]NavLink, 0, len(a.cfg.Origins))
	for _, origin := range a.cfg.Origins {
		link := NavLink{Name: origin.Name, Current: origin.Name == a.cfg.Name}
		if link.Current {
			link.URL = "/"
		} else {
			link.URL = a.CrossOriginURL(origin.Name, entry)
		}
		links = append(links, link)
	}
	return links
}

func (a *App) originNames() []string {
	names := make([]string, 0, len(a.cfg.Origins))
	for _, origin := range a.cfg.Origins {
		names = append(names, origin.Name)
	}
	return names
}

func (a *App) originURL(name string) string {
	for _, origin := range a.cfg.Origins {
		if origin.Name == name {
			return origin.URL
		}
	}
	return a.cfg.FrontdoorURL
}

// ensureLocalID reads the browser identity cookie, minting one on first
// contact. The cookie scopes the cache to a browser, not to a session; it
// survives logout.
func (a *App) ensureLocalID(ctx *fasthttp.RequestCtx) string {
	name := a.cfg.Name + "_lsid"
	if id := string(ctx.Request.Header.Cookie(name)); id != "" {
		return id
	}

	id := uuid.NewString()
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(name)
	cookie.SetValue(id)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetMaxAge(int((365 * 24 * time.Hour).Seconds()))
	ctx.Response.Header.SetCookie(cookie)
	return id
}

func queryValues(ctx *fasthttp.RequestCtx) url.Values {
	values, err := url.ParseQuery(string(ctx.URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}
