package webapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/pkg/sessioncache"
	"github.com/hybridui/suite/repository"
)

// CRM is the customer management origin. Every page and API requires a
// session; unauthenticated page loads bounce to the frontdoor.
type CRM struct {
	*App
	customers repository.CustomerRepository
}

func NewCRM(app *App, customers repository.CustomerRepository) *CRM {
	return &CRM{App: app, customers: customers}
}

func (c *CRM) Router() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/", c.Page(true, c.index))
	r.GET("/logout", c.Logout)

	r.GET("/api/customers", c.API(c.list))
	r.POST("/api/customers", c.API(c.create))
	r.GET("/api/customers/{id}", c.API(c.get))
	r.PUT("/api/customers/{id}", c.API(c.update))
	r.DELETE("/api/customers/{id}", c.API(c.remove))
	return r.Handler
}

func (c *CRM) index(ctx *fasthttp.RequestCtx, view *View) {
	customers, err := c.customers.List(ctx)
	if err != nil {
		c.logger.Error("customer list failed", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	c.render(ctx, crmPage, struct {
		Title     string
		Nav       []NavLink
		Session   *sessioncache.Entry
		Customers []domain.Customer
	}{"CRM", view.Nav, view.Session, customers})
}

func (c *CRM) list(ctx *fasthttp.RequestCtx, _ *View) {
	customers, err := c.customers.List(ctx)
	if err != nil {
		c.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, customers)
}

func (c *CRM) get(ctx *fasthttp.RequestCtx, _ *View) {
	id, err := customerID(ctx)
	if err != nil {
		c.apiError(ctx, domain.ErrInvalidPayload)
		return
	}
	customer, err := c.customers.GetByID(ctx, id)
	if err != nil {
		c.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, customer)
}

func (c *CRM) create(ctx *fasthttp.RequestCtx, _ *View) {
	var customer domain.Customer
	if err := json.Unmarshal(ctx.PostBody(), &customer); err != nil || customer.Name == "" {
		c.apiError(ctx, domain.ErrInvalidPayload)
		return
	}
	created, err := c.customers.Create(ctx, &customer)
	if err != nil {
		c.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusCreated, created)
}

func (c *CRM) update(ctx *fasthttp.RequestCtx, _ *View) {
	id, err := customerID(ctx)
	if err != nil {
		c.apiError(ctx, domain.ErrInvalidPayload)
		return
	}
	var customer domain.Customer
	if err := json.Unmarshal(ctx.PostBody(), &customer); err != nil {
		c.apiError(ctx, domain.ErrInvalidPayload)
		return
	}
	customer.ID = id
	if err := c.customers.Update(ctx, &customer); err != nil {
		c.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, customer)
}

func (c *CRM) remove(ctx *fasthttp.RequestCtx, _ *View) {
	id, err := customerID(ctx)
	if err != nil {
		c.apiError(ctx, domain.ErrInvalidPayload)
		return
	}
	if err := c.customers.Delete(ctx, id); err != nil {
		c.apiError(ctx, err)
		return
	}
	writeJSON(ctx, http.StatusOK, map[string]bool{"success": true})
}

func (c *CRM) apiError(ctx *fasthttp.RequestCtx, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		status, message = http.StatusNotFound, "customer not found"
	case errors.Is(err, domain.ErrInvalidPayload):
		status, message = http.StatusBadRequest, "invalid payload"
	default:
		c.logger.Error("customer api failed", zap.Error(err))
	}
	writeJSON(ctx, status, map[string]string{"error": message})
}

func customerID(ctx *fasthttp.RequestCtx) (int, error) {
	raw, _ := ctx.UserValue("id").(string)
	return strconv.Atoi(raw)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}
