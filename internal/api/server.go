// Package api serves the HTTP transport: a small REST surface for token
// exchange and debugging, the streamable /mcp endpoint behind the permission
// middleware, and Prometheus metrics, all on one mux behind a shared CORS
// policy.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/config"
	"github.com/tugboatqa/tugboat-mcp/internal/telemetry"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
	"github.com/tugboatqa/tugboat-mcp/internal/version"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	log     *slog.Logger
	humaAPI huma.API
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates a new HTTP server. The MCP server is exposed on /mcp via
// the streamable transport; REST routes and the OpenAPI docs live beside it.
func NewServer(cfg *config.Config, client *tugboat.Client, manager *auth.Manager, mcpServer *mcp.Server, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	api := newHumaAPI(client, manager, mux, metrics)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return mcpServer
	}, &mcp.StreamableHTTPOptions{})
	mux.Handle("/mcp", RequirePermission(manager, nil)(mcpHandler))

	// Configure CORS with permissive settings for browser-based MCP clients
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Type", "Content-Length"},
		AllowCredentials: false, // Must be false when AllowedOrigins is "*"
		MaxAge:           86400, // 24 hours
	})

	return &Server{
		config:  cfg,
		log:     logger,
		humaAPI: api,
		mux:     mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           corsHandler.Handler(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// newHumaAPI creates a new Huma API with all REST routes registered
func newHumaAPI(client *tugboat.Client, manager *auth.Manager, mux *http.ServeMux, metrics *telemetry.Metrics) huma.API {
	humaConfig := huma.DefaultConfig("Tugboat MCP", version.Version)
	humaConfig.Info.Description = "Companion REST surface for the Tugboat MCP server: token exchange, debugging passthrough and service metadata."
	// Disable $schema property in responses: https://github.com/danielgtaylor/huma/issues/230
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	api := humago.New(mux, humaConfig)

	api.OpenAPI().Tags = []*huma.Tag{
		{
			Name:        "auth",
			Description: "Token exchange for the permission middleware",
		},
		{
			Name:        "debug",
			Description: "Unauthenticated passthrough endpoints for transport debugging",
		},
		{
			Name:        "system",
			Description: "Health and build information",
		},
	}

	if metrics != nil {
		api.UseMiddleware(MetricTelemetryMiddleware(metrics,
			WithSkipPaths("/health", "/metrics", "/docs"),
		))
		mux.Handle("/metrics", metrics.PrometheusHandler())
	}

	registerAuthEndpoints(api, manager)
	registerDebugEndpoints(api, client)
	registerHealthEndpoint(api)
	registerVersionEndpoint(api)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
			return
		}
		handle404(w, r)
	})

	return api
}

// handle404 returns an error pointing at the API documentation
func handle404(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusNotFound)

	errorBody := map[string]any{
		"title":  "Not Found",
		"status": 404,
		"detail": fmt.Sprintf("Endpoint %s not found. See /docs for the API documentation.", r.URL.Path),
	}

	jsonData, err := json.Marshal(errorBody)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(jsonData); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HumaAPI returns the Huma API instance, allowing registration of new routes
func (s *Server) HumaAPI() huma.API {
	return s.humaAPI
}

// Handler returns the fully assembled handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening for incoming HTTP requests
func (s *Server) Start() error {
	s.log.Info("http server starting", "addr", s.server.Addr)
	s.log.Info("mcp endpoint available", "url", fmt.Sprintf("http://localhost%s/mcp", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
