// Package kernel assembles the HTTP handler: the global middleware stack,
// the operational endpoints and the API routes.
package kernel

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockroom/app/graphql"
	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/app"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	gqlhttp "github.com/shashiranjanraj/stockroom/pkg/graphql"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

// New builds the router for a. The global stack, outermost first:
// metrics, recovery, request id, logging, CORS, rate limiting.
func New(a *app.Application) (*router.Router, error) {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(origins()))
	r.Use(middleware.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()).Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", "healthz", healthz(a))
	r.Get("/metrics", "metrics", metrics.Handler())

	schema, err := graphql.NewSchema(a.Store, config.ReportLowStockThreshold())
	if err != nil {
		return nil, err
	}

	routes.RegisterAPI(r, routes.Deps{
		Store:   a.Store,
		Tokens:  a.Tokens,
		Queue:   a.Queue,
		GraphQL: gqlhttp.Handler(schema),
	})
	return r, nil
}

func healthz(a *app.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if a.DB == nil {
			response.Error(w, http.StatusServiceUnavailable, "database not configured")
			return
		}
		if err := database.Ping(ctx, a.DB); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		response.Success(w, map[string]string{"status": "ok"})
	}
}

func origins() []string {
	var out []string
	for _, o := range strings.Split(config.Get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
