package main

import (
	"github.com/valyala/fasthttp"

	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/internal/webapp"
	"github.com/hybridui/suite/repository/memory"
)

func main() {
	webapp.Serve("crm", func(cfg *config.AppConfig, app *webapp.App) fasthttp.RequestHandler {
		return webapp.NewCRM(app, memory.NewCustomerRepository()).Router()
	})
}
