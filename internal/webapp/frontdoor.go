package webapp

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/pkg/sessioncache"
	"github.com/hybridui/suite/pkg/transfer"
)

// Frontdoor is the orchestrating origin: it owns the login form, hands fresh
// sessions to the other origins, and is the terminal stop of the logout
// cascade.
type Frontdoor struct {
	*App
	azureLoginURL string
}

// NewFrontdoor wires the frontdoor pages on top of the shared app core.
// azureLoginURL is empty when the federated provider is not configured.
func NewFrontdoor(app *App, azureLoginURL string) *Frontdoor {
	return &Frontdoor{App: app, azureLoginURL: azureLoginURL}
}

func (f *Frontdoor) Router() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/", f.Page(false, f.index))
	r.POST("/login", f.login)
	r.GET("/logout", f.Logout)
	return r.Handler
}

type loginView struct {
	Title          string
	Nav            []NavLink
	Session        *sessioncache.Entry
	LoggedOut      bool
	SessionExpired bool
	ServiceDown    bool
	LoginError     string
	ReturnTo       string
	AzureLoginURL  string
}

func (f *Frontdoor) index(ctx *fasthttp.RequestCtx, view *View) {
	query := queryValues(ctx)
	returnTo := query.Get(ParamReturnTo)

	if view.Authenticated() {
		// Already signed in: bounce straight to the requested app, session
		// attached.
		if f.ValidReturnTo(returnTo) {
			ctx.Redirect(transfer.BuildURL(returnTo, view.Session.Token, view.Session.User), http.StatusFound)
			return
		}
		f.render(ctx, welcomePage, struct {
			Title   string
			Nav     []NavLink
			Session *sessioncache.Entry
		}{"Frontdoor", view.Nav, view.Session})
		return
	}

	f.render(ctx, loginPage, loginView{
		Title:          "Sign in",
		Nav:            view.Nav,
		LoggedOut:      query.Get(ParamLoggedOut) == "true",
		SessionExpired: query.Get(ParamSessionExpired) == "true",
		ServiceDown:    !f.auth.Healthy(context.Background()),
		LoginError:     loginErrorMessage(query.Get("loginError")),
		ReturnTo:       returnTo,
		AzureLoginURL:  f.azureURL(returnTo),
	})
}

func (f *Frontdoor) login(ctx *fasthttp.RequestCtx) {
	localID := f.ensureLocalID(ctx)

	// A browser that already holds a session (say, a second tab signed in
	// first) keeps it; the resubmitted form is ignored.
	if f.cache.IsAuthenticated(localID) {
		ctx.Redirect("/", http.StatusFound)
		return
	}

	username := string(ctx.PostArgs().Peek("username"))
	password := string(ctx.PostArgs().Peek("password"))
	returnTo := string(ctx.PostArgs().Peek("returnTo"))

	probeCtx, cancel := context.WithTimeout(context.Background(), f.cfg.Watch.ProbeTimeout)
	defer cancel()

	resp, err := f.auth.Login(probeCtx, username, password)
	if err != nil {
		f.renderLoginFailure(ctx, err, returnTo)
		return
	}

	entry := sessioncache.Entry{
		Token:     resp.SessionToken,
		User:      resp.User,
		ExpiresAt: resp.ExpiresAt,
	}
	if err := f.StoreSession(localID, entry); err != nil {
		f.logger.Error("session cache write failed after login", zap.Error(err))
	}

	f.logger.Info("user signed in", zap.String("username", resp.User.Username))

	if f.ValidReturnTo(returnTo) {
		ctx.Redirect(transfer.BuildURL(returnTo, entry.Token, entry.User), http.StatusFound)
		return
	}
	ctx.Redirect("/", http.StatusFound)
}

func (f *Frontdoor) renderLoginFailure(ctx *fasthttp.RequestCtx, err error, returnTo string) {
	view := loginView{
		Title:         "Sign in",
		Nav:           f.navLinks(nil),
		ReturnTo:      returnTo,
		AzureLoginURL: f.azureURL(returnTo),
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		view.LoginError = "Invalid username or password."
	case errors.Is(err, domain.ErrInvalidPayload):
		view.LoginError = "Username and password are required."
	default:
		f.logger.Warn("login unavailable", zap.Error(err))
		view.LoginError = "The authentication service is unavailable. Try again shortly."
	}

	f.render(ctx, loginPage, view)
}

// azureURL threads the pending returnTo through the federated flow so the
// callback can resume it.
func (f *Frontdoor) azureURL(returnTo string) string {
	if f.azureLoginURL == "" || !f.ValidReturnTo(returnTo) {
		return f.azureLoginURL
	}
	return f.azureLoginURL + "?" + ParamReturnTo + "=" + url.QueryEscape(returnTo)
}

// loginErrorMessage maps federated callback error codes to user-facing text.
func loginErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "provider", "exchange", "profile":
		return "Microsoft sign-in failed. Try again or use a local account."
	default:
		return "Sign-in failed. Try again."
	}
}
