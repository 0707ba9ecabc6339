package tugboatserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
)

// jsonResource authorizes the read, fetches the payload and renders it as
// pretty-printed JSON at uri. Failures come back as a plain-text payload
// rather than a protocol error, mirroring how tools report theirs.
func (s *Server) jsonResource(ctx context.Context, uri, subject string, read func(context.Context) (any, error)) (*mcp.ReadResourceResult, error) {
	payload, err := func() (any, error) {
		if err := s.auth.IsAuthorized(ctx, subject, auth.ActionRead); err != nil {
			return nil, err
		}
		return read(ctx)
	}()
	if err != nil {
		s.log.ErrorContext(ctx, "resource read failed", "uri", uri, "error", err)
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     "Error: " + err.Error(),
		}}}, nil
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}}, nil
}

func (s *Server) addResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		Name:        "projects",
		URI:         "tugboat://projects",
		Description: "All projects visible to the configured API key",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.jsonResource(ctx, req.Params.URI, "projects", func(ctx context.Context) (any, error) {
			return s.api.ListProjects(ctx)
		})
	})

	server.AddResource(&mcp.Resource{
		Name:        "previews",
		URI:         "tugboat://previews",
		Description: "All previews visible to the configured API key",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.jsonResource(ctx, req.Params.URI, "previews", func(ctx context.Context) (any, error) {
			return s.loadAllPreviews(ctx)
		})
	})

	server.AddResource(&mcp.Resource{
		Name:        "repositories",
		URI:         "tugboat://repositories",
		Description: "All repositories across every visible project",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.jsonResource(ctx, req.Params.URI, "repositories", func(ctx context.Context) (any, error) {
			return s.loadAllRepositories(ctx)
		})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "project",
		URITemplate: "tugboat://project/{id}",
		Description: "A single project by id",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id := strings.TrimPrefix(req.Params.URI, "tugboat://project/")
		return s.jsonResource(ctx, req.Params.URI, auth.Resource("project", id), func(ctx context.Context) (any, error) {
			return s.api.GetProject(ctx, id)
		})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "preview",
		URITemplate: "tugboat://preview/{id}",
		Description: "A single preview by id",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id := strings.TrimPrefix(req.Params.URI, "tugboat://preview/")
		return s.jsonResource(ctx, req.Params.URI, auth.Resource("preview", id), func(ctx context.Context) (any, error) {
			return s.api.GetPreview(ctx, id)
		})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "preview-logs",
		URITemplate: "tugboat://preview/{id}/logs",
		Description: "The build and runtime logs of a preview",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id := strings.TrimSuffix(strings.TrimPrefix(req.Params.URI, "tugboat://preview/"), "/logs")
		return s.jsonResource(ctx, req.Params.URI, auth.Resource("preview", id), func(ctx context.Context) (any, error) {
			return s.api.PreviewLogs(ctx, id)
		})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "repository",
		URITemplate: "tugboat://repository/{id}",
		Description: "A single repository by id",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id := strings.TrimPrefix(req.Params.URI, "tugboat://repository/")
		return s.jsonResource(ctx, req.Params.URI, auth.Resource("repository", id), func(ctx context.Context) (any, error) {
			return s.api.GetRepository(ctx, id)
		})
	})
}
