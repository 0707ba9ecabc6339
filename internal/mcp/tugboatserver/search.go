package tugboatserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

type searchPreviewsInput struct {
	Query string `json:"query"`
	State string `json:"state,omitempty"`
}

type searchInput struct {
	Query string `json:"query"`
}

// matchesQuery reports whether any of the fields contains query, ignoring
// case. Empty fields never match.
func matchesQuery(query string, fields ...string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// loadAllPreviews returns every preview visible to the API key. When the
// flat listing endpoint fails it walks the projects instead, aggregating
// per-project previews and tolerating individual project failures.
func (s *Server) loadAllPreviews(ctx context.Context) ([]tugboat.Preview, error) {
	previews, err := s.api.ListPreviews(ctx)
	if err == nil {
		return previews, nil
	}
	s.log.WarnContext(ctx, "preview listing failed, aggregating per project", "error", err)

	projects, listErr := s.api.ListProjects(ctx)
	if listErr != nil {
		return nil, err
	}
	var all []tugboat.Preview
	for _, project := range projects {
		projectPreviews, perr := s.api.ProjectPreviews(ctx, project.ID)
		if perr != nil {
			s.log.WarnContext(ctx, "skipping project previews", "project", project.ID, "error", perr)
			continue
		}
		all = append(all, projectPreviews...)
	}
	return all, nil
}

// loadAllRepositories aggregates repositories across every project,
// tolerating individual project failures. There is no flat repository
// listing endpoint.
func (s *Server) loadAllRepositories(ctx context.Context) ([]tugboat.Repository, error) {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	var all []tugboat.Repository
	for _, project := range projects {
		repos, rerr := s.api.ProjectRepositories(ctx, project.ID)
		if rerr != nil {
			s.log.WarnContext(ctx, "skipping project repositories", "project", project.ID, "error", rerr)
			continue
		}
		all = append(all, repos...)
	}
	return all, nil
}

func (s *Server) addSearchTools(server *mcp.Server) {
	addOperation(server, s, operation[searchPreviewsInput]{
		tool: &mcp.Tool{
			Name:        "searchPreviews",
			Description: "Search previews by name, id, ref or URL substring, optionally filtered by state",
		},
		action:   auth.ActionRead,
		resource: func(searchPreviewsInput) string { return "previews" },
		verb:     "searching previews",
		run: func(ctx context.Context, in searchPreviewsInput) (string, error) {
			if in.Query == "" {
				return "", errors.New("query is required")
			}
			previews, err := s.loadAllPreviews(ctx)
			if err != nil {
				return "", err
			}
			var matches []tugboat.Preview
			for _, p := range previews {
				if in.State != "" && (p.State == nil || !strings.EqualFold(*p.State, in.State)) {
					continue
				}
				if matchesQuery(in.Query, p.Name, p.ID, strVal(p.Ref), strVal(p.URL)) {
					matches = append(matches, p)
				}
			}
			if len(matches) == 0 {
				return fmt.Sprintf("No previews matched %q.", in.Query), nil
			}
			return listReport(fmt.Sprintf("Previews matching %q", in.Query), previewEntries(matches)), nil
		},
	})

	addOperation(server, s, operation[searchInput]{
		tool: &mcp.Tool{
			Name:        "searchProjects",
			Description: "Search projects by name, id or domain substring",
		},
		action:   auth.ActionRead,
		resource: func(searchInput) string { return "projects" },
		verb:     "searching projects",
		run: func(ctx context.Context, in searchInput) (string, error) {
			if in.Query == "" {
				return "", errors.New("query is required")
			}
			projects, err := s.api.ListProjects(ctx)
			if err != nil {
				return "", err
			}
			var matches []tugboat.Project
			for _, p := range projects {
				if matchesQuery(in.Query, p.Name, p.ID, strVal(p.Domain)) {
					matches = append(matches, p)
				}
			}
			if len(matches) == 0 {
				return fmt.Sprintf("No projects matched %q.", in.Query), nil
			}
			return listReport(fmt.Sprintf("Projects matching %q", in.Query), projectEntries(matches)), nil
		},
	})

	addOperation(server, s, operation[searchInput]{
		tool: &mcp.Tool{
			Name:        "searchRepositories",
			Description: "Search repositories by name, id or URL substring",
		},
		action:   auth.ActionRead,
		resource: func(searchInput) string { return "repositories" },
		verb:     "searching repositories",
		run: func(ctx context.Context, in searchInput) (string, error) {
			if in.Query == "" {
				return "", errors.New("query is required")
			}
			repos, err := s.loadAllRepositories(ctx)
			if err != nil {
				return "", err
			}
			var matches []tugboat.Repository
			for _, r := range repos {
				if matchesQuery(in.Query, r.Name, r.ID, strVal(r.URL)) {
					matches = append(matches, r)
				}
			}
			if len(matches) == 0 {
				return fmt.Sprintf("No repositories matched %q.", in.Query), nil
			}
			return listReport(fmt.Sprintf("Repositories matching %q", in.Query), repositoryEntries(matches)), nil
		},
	})
}
