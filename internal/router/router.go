package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/hybridui/suite/api/handler"
	"github.com/hybridui/suite/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Azure  *apiHandler.AzureHandler
	Health *apiHandler.HealthHandler
}

// New assembles the session service routes. Azure routes are registered only
// when the federated provider is configured.
func New(handlers Handlers, corsOrigins []string) fasthttp.RequestHandler {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.POST("/auth/login", handlers.Auth.Login)
	r.POST("/auth/validate", handlers.Auth.Validate)
	r.POST("/auth/logout", handlers.Auth.Logout)
	r.POST("/auth/refresh", handlers.Auth.Refresh)

	if handlers.Azure != nil {
		r.GET("/auth/azure/login", handlers.Azure.Login)
		r.GET("/auth/azure/callback", handlers.Azure.Callback)
	}

	return middleware.CORS(corsOrigins)(r.Handler)
}
