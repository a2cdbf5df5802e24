package webapp

import (
	"errors"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/pkg/sessioncache"
	"github.com/hybridui/suite/repository"
)

// Revenue is the invoicing origin.
type Revenue struct {
	*App
	invoices repository.InvoiceRepository
}

func NewRevenue(app *App, invoices repository.InvoiceRepository) *Revenue {
	return &Revenue{App: app, invoices: invoices}
}

func (rv *Revenue) Router() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/", rv.Page(true, rv.index))
	r.GET("/logout", rv.Logout)

	r.GET("/api/invoices", rv.API(rv.list))
	r.GET("/api/invoices/{id}", rv.API(rv.get))
	r.GET("/api/revenue/summary", rv.API(rv.summary))
	return r.Handler
}

func (rv *Revenue) index(ctx *fasthttp.RequestCtx, view *View) {
	invoices, err := rv.invoices.List(ctx)
	if err != nil {
		rv.logger.Error("invoice list failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	summary, err := rv.invoices.Summary(ctx)
	if err != nil {
		rv.logger.Error("revenue summary failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	rv.render(ctx, revenuePage, struct {
		Title    string
		Nav      []NavLink
		Session  *sessioncache.Entry
		Invoices []domain.Invoice
		Summary  *domain.RevenueSummary
	}{"Revenue", view.Nav, view.Session, invoices, summary})
}

func (rv *Revenue) list(ctx *fasthttp.RequestCtx, _ *View) {
	invoices, err := rv.invoices.List(ctx)
	if err != nil {
		rv.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, invoices)
}

func (rv *Revenue) get(ctx *fasthttp.RequestCtx, _ *View) {
	id, _ := ctx.UserValue("id").(string)
	invoice, err := rv.invoices.GetByID(ctx, id)
	if err != nil {
		rv.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, invoice)
}

func (rv *Revenue) summary(ctx *fasthttp.RequestCtx, _ *View) {
	summary, err := rv.invoices.Summary(ctx)
	if err != nil {
		rv.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, summary)
}

func (rv *Revenue) apiError(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		status, message = http.StatusNotFound, "invoice not found"
	case errors.Is(err, domain.ErrInvalidPayload):
		status, message = http.StatusBadRequest, "invalid payload"
	default:
		rv.logger.Error("invoice api failed", zap.Error(err))
	}
	writeJSON(ctx, status, map[string]string{"error": message})
}
