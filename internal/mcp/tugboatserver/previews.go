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

type createPreviewInput struct {
	Repo   string         `json:"repo"`
	Ref    string         `json:"ref"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

type updatePreviewInput struct {
	ID     string         `json:"id"`
	Name   *string        `json:"name,omitempty"`
	Locked *bool          `json:"locked,omitempty"`
	Anchor *bool          `json:"anchor,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

type clonePreviewInput struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s *Server) addPreviewTools(server *mcp.Server) {
	addOperation(server, s, operation[createPreviewInput]{
		tool: &mcp.Tool{
			Name:        "createPreview",
			Description: "Create a new preview from a git ref of a repository",
		},
		action:   auth.ActionWrite,
		resource: func(in createPreviewInput) string { return auth.Resource("repository", in.Repo) },
		verb:     "creating preview",
		run: func(ctx context.Context, in createPreviewInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.Repo); err != nil {
				return "", err
			}
			if in.Ref == "" {
				return "", errors.New("ref is required")
			}
			preview, err := s.api.CreatePreview(ctx, in.Repo, tugboat.CreatePreviewRequest{
				Ref:    in.Ref,
				Name:   in.Name,
				Config: in.Config,
			})
			if err != nil {
				return "", err
			}
			lines := []string{
				fmt.Sprintf("Preview %q created.", preview.Name),
				"ID: " + preview.ID,
			}
			if preview.State != nil {
				lines = append(lines, "State: "+*preview.State)
			}
			return strings.Join(lines, "\n"), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getPreview",
			Description: "Get details about a specific preview",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("preview", in.ID) },
		verb:     "fetching preview",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("preview", in.ID); err != nil {
				return "", err
			}
			preview, err := s.api.GetPreview(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return previewSummary(preview), nil
		},
	})

	addOperation(server, s, operation[updatePreviewInput]{
		tool: &mcp.Tool{
			Name:        "updatePreview",
			Description: "Update settings of an existing preview",
		},
		action:   auth.ActionWrite,
		resource: func(in updatePreviewInput) string { return auth.Resource("preview", in.ID) },
		verb:     "updating preview",
		run: func(ctx context.Context, in updatePreviewInput) (string, error) {
			if err := tugboat.ValidateID("preview", in.ID); err != nil {
				return "", err
			}
			fields := map[string]any{}
			if in.Name != nil {
				fields["name"] = *in.Name
			}
			if in.Locked != nil {
				fields["locked"] = *in.Locked
			}
			if in.Anchor != nil {
				fields["anchor"] = *in.Anchor
			}
			if in.Config != nil {
				fields["config"] = in.Config
			}
			if len(fields) == 0 {
				return "", errors.New("no fields to update were provided")
			}
			preview, err := s.api.UpdatePreview(ctx, in.ID, fields)
			if err != nil {
				return "", err
			}
			return "Preview updated.\n\n" + previewSummary(preview), nil
		},
	})

	addOperation(server, s, operation[confirmInput]{
		tool: &mcp.Tool{
			Name:        "deletePreview",
			Description: "Delete a preview permanently. Requires confirm set to true",
		},
		action:   auth.ActionDelete,
		resource: func(in confirmInput) string { return auth.Resource("preview", in.ID) },
		verb:     "deleting preview",
		run: func(ctx context.Context, in confirmInput) (string, error) {
			if err := tugboat.ValidateID("preview", in.ID); err != nil {
				return "", err
			}
			if !in.Confirm {
				return fmt.Sprintf("Deletion cancelled: set confirm to true to delete preview %s.", in.ID), nil
			}
			if err := s.api.DeletePreview(ctx, in.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Preview %s deleted.", in.ID), nil
		},
	})

	previewActions := []struct {
		name        string
		description string
		verb        string
		done        string
		call        func(context.Context, string) (*tugboat.Job, error)
	}{
		{"buildPreview", "Rebuild a preview from scratch", "building preview", "Build started for preview %s.", s.api.BuildPreview},
		{"refreshPreview", "Re-run the refresh stage of a preview", "refreshing preview", "Refresh started for preview %s.", s.api.RefreshPreview},
		{"startPreview", "Start a stopped preview", "starting preview", "Start requested for preview %s.", s.api.StartPreview},
		{"stopPreview", "Stop a running preview", "stopping preview", "Stop requested for preview %s.", s.api.StopPreview},
		{"suspendPreview", "Suspend a preview until it is next started", "suspending preview", "Suspend requested for preview %s.", s.api.SuspendPreview},
	}
	for _, a := range previewActions {
		addOperation(server, s, operation[idInput]{
			tool: &mcp.Tool{
				Name:        a.name,
				Description: a.description,
			},
			action:   auth.ActionWrite,
			resource: func(in idInput) string { return auth.Resource("preview", in.ID) },
			verb:     a.verb,
			run: func(ctx context.Context, in idInput) (string, error) {
				if err := tugboat.ValidateID("preview", in.ID); err != nil {
					return "", err
				}
				job, err := a.call(ctx, in.ID)
				if err != nil {
					return "", err
				}
				lines := append([]string{fmt.Sprintf(a.done, in.ID)}, jobLines(job)...)
				return strings.Join(lines, "\n"), nil
			},
		})
	}

	addOperation(server, s, operation[clonePreviewInput]{
		tool: &mcp.Tool{
			Name:        "clonePreview",
			Description: "Clone an existing preview, optionally naming the copy",
		},
		action:   auth.ActionWrite,
		resource: func(in clonePreviewInput) string { return auth.Resource("preview", in.ID) },
		verb:     "cloning preview",
		run: func(ctx context.Context, in clonePreviewInput) (string, error) {
			if err := tugboat.ValidateID("preview", in.ID); err != nil {
				return "", err
			}
			job, err := s.api.ClonePreview(ctx, in.ID, in.Name)
			if err != nil {
				return "", err
			}
			lines := append([]string{fmt.Sprintf("Clone started for preview %s.", in.ID)}, jobLines(job)...)
			return strings.Join(lines, "\n"), nil
		},
	})

	addOperation(server, s, operation[jobsInput]{
		tool: &mcp.Tool{
			Name:        "getPreviewJobs",
			Description: "List jobs that ran against a preview",
		},
		action:   auth.ActionRead,
		resource: func(in jobsInput) string { return auth.Resource("preview", in.ID) },
		verb:     "fetching preview jobs",
		run:      jobsRun("preview", s.api.PreviewJobs),
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getPreviewLogs",
			Description: "Get the build and runtime logs of a preview",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("preview", in.ID) },
		verb:     "fetching preview logs",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("preview", in.ID); err != nil {
				return "", err
			}
			logs, err := s.api.PreviewLogs(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return logsReport(logs), nil
		},
	})

	addOperation(server, s, operation[statsInput]{
		tool: &mcp.Tool{
			Name:        "getPreviewStatistics",
			Description: "Get a statistics series for a preview, such as size over time",
		},
		action:   auth.ActionRead,
		resource: func(in statsInput) string { return auth.Resource("preview", in.ID) },
		verb:     "fetching preview statistics",
		run:      statsRun("preview", s.api.PreviewStatistics),
	})
}
