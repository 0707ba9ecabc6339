package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
	"github.com/tugboatqa/tugboat-mcp/internal/version"
)

// Response is a generic wrapper for Huma responses
type Response[T any] struct {
	Body T
}

// TokenBody is the /auth/login response payload.
type TokenBody struct {
	Token   string `json:"token" doc:"Bearer token for subsequent requests"`
	Expires *int64 `json:"expires,omitempty" doc:"Unix timestamp after which the token is no longer valid"`
}

// HealthBody reports service liveness.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// VersionBody carries build metadata.
type VersionBody struct {
	Version   string `json:"version" example:"v0.1.0" doc:"Release version"`
	GitCommit string `json:"git_commit,omitempty" doc:"Commit the binary was built from"`
	BuildDate string `json:"build_date,omitempty" doc:"Build timestamp"`
}

// DebugPreviewsBody lists previews without any permission filtering.
type DebugPreviewsBody struct {
	Previews []tugboat.Preview `json:"previews"`
	Count    int               `json:"count" doc:"Number of previews returned"`
}

// registerAuthEndpoints registers the token exchange endpoint
func registerAuthEndpoints(api huma.API, manager *auth.Manager) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange the configured API key for a bearer token",
		Description: "Returns the token the permission middleware expects on subsequent requests.",
		Tags:        []string{"auth"},
	}, func(ctx context.Context, _ *struct{}) (*Response[TokenBody], error) {
		tok, err := manager.Authenticate(ctx)
		if err != nil {
			return nil, huma.Error401Unauthorized("Authentication failed", err)
		}
		return &Response[TokenBody]{
			Body: TokenBody{Token: tok.Token, Expires: tok.Expires},
		}, nil
	})
}

// registerDebugEndpoints registers unauthenticated passthrough endpoints
func registerDebugEndpoints(api huma.API, client *tugboat.Client) {
	huma.Register(api, huma.Operation{
		OperationID: "debug-list-previews",
		Method:      http.MethodGet,
		Path:        "/debug/previews",
		Summary:     "List previews without authentication",
		Description: "Fetches every preview visible to the configured API key. Intended for transport debugging only.",
		Tags:        []string{"debug"},
	}, func(ctx context.Context, _ *struct{}) (*Response[DebugPreviewsBody], error) {
		previews, err := client.ListPreviews(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list previews", err)
		}
		return &Response[DebugPreviewsBody]{
			Body: DebugPreviewsBody{Previews: previews, Count: len(previews)},
		}, nil
	})
}

// registerHealthEndpoint registers the health check endpoint
func registerHealthEndpoint(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Check service health",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*Response[HealthBody], error) {
		return &Response[HealthBody]{Body: HealthBody{Status: "ok"}}, nil
	})
}

// registerVersionEndpoint registers the build info endpoint
func registerVersionEndpoint(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/version",
		Summary:     "Get build information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*Response[VersionBody], error) {
		return &Response[VersionBody]{Body: VersionBody{
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}}, nil
	})
}
