package router

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// Option configures the [huma.API] built by [New].
type Option func(huma.API)

// New returns a handler serving probes, metrics and an API titled title,
// configured by opts in order.
func New(
	title, version string,
	readiness http.HandlerFunc,
	writeMetrics http.HandlerFunc,
	opts ...Option,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("GET /readiness", readiness)
	mux.HandleFunc("GET /metrics", writeMetrics)

	api := humago.New(mux, huma.DefaultConfig(title, version))
	for _, opt := range opts {
		opt(api)
	}

	return mux
}

// OptUseMiddleware adds middlewares to the operations registered after it.
func OptUseMiddleware(middlewares ...func(huma.Context, func(huma.Context))) Option {
	return func(api huma.API) { api.UseMiddleware(middlewares...) }
}

// OptGroup applies opts to a group of api mounted at prefix.
func OptGroup(prefix string, opts ...Option) Option {
	return func(api huma.API) {
		group := huma.NewGroup(api, prefix)
		for _, opt := range opts {
			opt(group)
		}
	}
}

// OptAutoRegister registers the operations of server, see [huma.AutoRegister].
func OptAutoRegister(server any) Option {
	return func(api huma.API) { huma.AutoRegister(api, server) }
}
