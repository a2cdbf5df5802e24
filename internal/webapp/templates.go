package webapp

import (
	"html/template"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Pages are deliberately plain server-rendered HTML; the interesting parts of
// the suite are the session mechanics underneath them.

const layoutHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<nav>
{{range .Nav}}{{if .Current}}<strong>{{.Name}}</strong>{{else}}<a href="{{.URL}}">{{.Name}}</a>{{end}} {{end}}
{{if .Session}} | signed in as {{.Session.User.Username}} ({{.Session.User.Role}}) <a href="/logout">log out</a>{{end}}
</nav>
<hr>
{{template "content" .}}
</body>
</html>`

var layoutTemplate = template.Must(template.New("layout").Parse(layoutHTML))

func pageTemplate(content string) *template.Template {
	page := template.Must(layoutTemplate.Clone())
	return template.Must(page.Parse(`{{define "content"}}` + content + `{{end}}`))
}

var (
	loginPage = pageTemplate(`
{{if .LoggedOut}}<p>You have been signed out of all applications.</p>{{end}}
{{if .SessionExpired}}<p>Your session has expired. Please sign in again.</p>{{end}}
{{if .ServiceDown}}<p>The authentication service is currently unavailable. Sign-in will not work until it is back.</p>{{end}}
{{if .LoginError}}<p>{{.LoginError}}</p>{{end}}
<h1>Sign in</h1>
<form method="post" action="/login">
<input type="hidden" name="returnTo" value="{{.ReturnTo}}">
<label>Username <input name="username" autocomplete="username"></label>
<label>Password <input name="password" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
{{if .AzureLoginURL}}<p><a href="{{.AzureLoginURL}}">Sign in with Microsoft</a></p>{{end}}`)

	welcomePage = pageTemplate(`
<h1>Welcome, {{.Session.User.Username}}</h1>
<p>Pick an application from the navigation bar.</p>`)

	crmPage = pageTemplate(`
<h1>Customers</h1>
<table>
<tr><th>Name</th><th>Contact</th><th>Status</th><th>Value</th></tr>
{{range .Customers}}<tr><td>{{.Name}}</td><td>{{.ContactPerson}}</td><td>{{.Status}}</td><td>{{.Value}}</td></tr>{{end}}
</table>`)

	revenuePage = pageTemplate(`
<h1>Invoices</h1>
<p>Invoiced {{.Summary.TotalInvoiced}} / paid {{.Summary.TotalPaid}} / outstanding {{.Summary.TotalOutstanding}}</p>
<table>
<tr><th>ID</th><th>Customer</th><th>Amount</th><th>Status</th><th>Due</th></tr>
{{range .Invoices}}<tr><td>{{.ID}}</td><td>{{.CustomerName}}</td><td>{{.Amount}}</td><td>{{.Status}}</td><td>{{.DueDate}}</td></tr>{{end}}
</table>`)
)

func (a *App) render(ctx *fasthttp.RequestCtx, page *template.Template, data interface{}) {
	ctx.Response.Header.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(http.StatusOK)
	if err := page.Execute(ctx, data); err != nil {
		a.logger.Error("template render failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
	}
}
