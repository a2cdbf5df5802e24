package main

import (
	"github.com/valyala/fasthttp"

	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/internal/webapp"
)

func main() {
	webapp.Serve("frontdoor", func(cfg *config.AppConfig, app *webapp.App) fasthttp.RequestHandler {
		return webapp.NewFrontdoor(app, cfg.AzureLoginURL).Router()
	})
}
