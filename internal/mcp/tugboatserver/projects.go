package tugboatserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

type updateProjectInput struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Domain      *string `json:"domain,omitempty"`
	Quota       *int64  `json:"quota,omitempty"`
}

func (s *Server) addProjectTools(server *mcp.Server) {
	addOperation(server, s, operation[struct{}]{
		tool: &mcp.Tool{
			Name:        "listProjects",
			Description: "List all projects the API key can access",
		},
		action:   auth.ActionRead,
		resource: func(struct{}) string { return "projects" },
		verb:     "listing projects",
		run: func(ctx context.Context, _ struct{}) (string, error) {
			projects, err := s.api.ListProjects(ctx)
			if err != nil {
				return "", err
			}
			return listReport("Projects", projectEntries(projects)), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getProject",
			Description: "Get details about a specific project",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("project", in.ID) },
		verb:     "fetching project",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("project", in.ID); err != nil {
				return "", err
			}
			project, err := s.api.GetProject(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return projectSummary(project), nil
		},
	})

	addOperation(server, s, operation[updateProjectInput]{
		tool: &mcp.Tool{
			Name:        "updateProject",
			Description: "Update settings of an existing project",
		},
		action:   auth.ActionWrite,
		resource: func(in updateProjectInput) string { return auth.Resource("project", in.ID) },
		verb:     "updating project",
		run: func(ctx context.Context, in updateProjectInput) (string, error) {
			if err := tugboat.ValidateID("project", in.ID); err != nil {
				return "", err
			}
			fields := map[string]any{}
			if in.Name != nil {
				fields["name"] = *in.Name
			}
			if in.Description != nil {
				fields["description"] = *in.Description
			}
			if in.Domain != nil {
				fields["domain"] = *in.Domain
			}
			if in.Quota != nil {
				fields["quota"] = *in.Quota
			}
			if len(fields) == 0 {
				return "", errors.New("no fields to update were provided")
			}
			project, err := s.api.UpdateProject(ctx, in.ID, fields)
			if err != nil {
				return "", err
			}
			return "Project updated.\n\n" + projectSummary(project), nil
		},
	})

	addOperation(server, s, operation[confirmInput]{
		tool: &mcp.Tool{
			Name:        "deleteProject",
			Description: "Delete a project and everything in it. Requires confirm set to true",
		},
		action:   auth.ActionDelete,
		resource: func(in confirmInput) string { return auth.Resource("project", in.ID) },
		verb:     "deleting project",
		run: func(ctx context.Context, in confirmInput) (string, error) {
			if err := tugboat.ValidateID("project", in.ID); err != nil {
				return "", err
			}
			if !in.Confirm {
				return fmt.Sprintf("Deletion cancelled: set confirm to true to delete project %s.", in.ID), nil
			}
			if err := s.api.DeleteProject(ctx, in.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Project %s deleted.", in.ID), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getProjectRepositories",
			Description: "List the repositories connected to a project",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("project", in.ID) },
		verb:     "fetching project repositories",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("project", in.ID); err != nil {
				return "", err
			}
			repos, err := s.api.ProjectRepositories(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return listReport("Repositories", repositoryEntries(repos)), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getProjectPreviews",
			Description: "List every preview in a project across its repositories",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("project", in.ID) },
		verb:     "fetching project previews",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("project", in.ID); err != nil {
				return "", err
			}
			previews, err := s.api.ProjectPreviews(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return listReport("Previews", previewEntries(previews)), nil
		},
	})

	addOperation(server, s, operation[jobsInput]{
		tool: &mcp.Tool{
			Name:        "getProjectJobs",
			Description: "List jobs that ran against a project",
		},
		action:   auth.ActionRead,
		resource: func(in jobsInput) string { return auth.Resource("project", in.ID) },
		verb:     "fetching project jobs",
		run:      jobsRun("project", s.api.ProjectJobs),
	})

	addOperation(server, s, operation[statsInput]{
		tool: &mcp.Tool{
			Name:        "getProjectStats",
			Description: "Get a statistics series for a project, such as size over time",
		},
		action:   auth.ActionRead,
		resource: func(in statsInput) string { return auth.Resource("project", in.ID) },
		verb:     "fetching project statistics",
		run:      statsRun("project", s.api.ProjectStats),
	})
}
