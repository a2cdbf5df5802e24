package middleware

import (
	"net/http"

	"github.com/valyala/fasthttp"
)

// CORS allows the configured browser origins to call the session service
// cross-origin. The origin list is exact-match; anything else gets no CORS
// headers and the browser blocks the response.
func CORS(allowedOrigins []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if _, ok := allowed[origin]; ok {
				ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
				ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
				ctx.Response.Header.Set("Vary", "Origin")
			}

			if string(ctx.Method()) == http.MethodOptions {
				ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
				ctx.SetStatusCode(http.StatusNoContent)
				return
			}

			next(ctx)
		}
	}
}
