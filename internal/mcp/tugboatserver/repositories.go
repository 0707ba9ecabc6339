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

type createRepositoryInput struct {
	Project    string                  `json:"project"`
	Provider   string                  `json:"provider"`
	Repository map[string]any          `json:"repository"`
	Auth       *tugboat.RepositoryAuth `json:"auth,omitempty"`
}

type updateRepositoryInput struct {
	ID             string  `json:"id"`
	Name           *string `json:"name,omitempty"`
	Private        *bool   `json:"private,omitempty"`
	Autobuild      *bool   `json:"autobuild,omitempty"`
	Autorebuild    *bool   `json:"autorebuild,omitempty"`
	Autoredeploy   *bool   `json:"autoredeploy,omitempty"`
	BuildTimeout   *int    `json:"build_timeout,omitempty"`
	RefreshTimeout *int    `json:"refresh_timeout,omitempty"`
}

type sshKeyInput struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
	Bits int    `json:"bits,omitempty"`
}

type updateRepositoryAuthInput struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
	User  string `json:"user,omitempty"`
	Pass  string `json:"pass,omitempty"`
}

func (s *Server) addRepositoryTools(server *mcp.Server) {
	addOperation(server, s, operation[createRepositoryInput]{
		tool: &mcp.Tool{
			Name:        "createRepository",
			Description: "Connect a git repository to a project",
		},
		action:   auth.ActionWrite,
		resource: func(in createRepositoryInput) string { return auth.Resource("project", in.Project) },
		verb:     "creating repository",
		run: func(ctx context.Context, in createRepositoryInput) (string, error) {
			if err := tugboat.ValidateID("project", in.Project); err != nil {
				return "", err
			}
			if in.Provider == "" {
				return "", errors.New("provider is required")
			}
			if len(in.Repository) == 0 {
				return "", errors.New("repository details are required")
			}
			repo, err := s.api.CreateRepository(ctx, in.Project, tugboat.CreateRepositoryRequest{
				Provider:   in.Provider,
				Repository: in.Repository,
				Auth:       in.Auth,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Repository %q created.\nID: %s", repo.Name, repo.ID), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getRepository",
			Description: "Get details about a specific repository",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("repository", in.ID) },
		verb:     "fetching repository",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			repo, err := s.api.GetRepository(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return repositorySummary(repo), nil
		},
	})

	addOperation(server, s, operation[updateRepositoryInput]{
		tool: &mcp.Tool{
			Name:        "updateRepository",
			Description: "Update settings of an existing repository",
		},
		action:   auth.ActionWrite,
		resource: func(in updateRepositoryInput) string { return auth.Resource("repository", in.ID) },
		verb:     "updating repository",
		run: func(ctx context.Context, in updateRepositoryInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			fields := map[string]any{}
			if in.Name != nil {
				fields["name"] = *in.Name
			}
			if in.Private != nil {
				fields["private"] = *in.Private
			}
			if in.Autobuild != nil {
				fields["autobuild"] = *in.Autobuild
			}
			if in.Autorebuild != nil {
				fields["autorebuild"] = *in.Autorebuild
			}
			if in.Autoredeploy != nil {
				fields["autoredeploy"] = *in.Autoredeploy
			}
			if in.BuildTimeout != nil {
				fields["build_timeout"] = *in.BuildTimeout
			}
			if in.RefreshTimeout != nil {
				fields["refresh_timeout"] = *in.RefreshTimeout
			}
			if len(fields) == 0 {
				return "", errors.New("no fields to update were provided")
			}
			repo, err := s.api.UpdateRepository(ctx, in.ID, fields)
			if err != nil {
				return "", err
			}
			return "Repository updated.\n\n" + repositorySummary(repo), nil
		},
	})

	addOperation(server, s, operation[confirmInput]{
		tool: &mcp.Tool{
			Name:        "deleteRepository",
			Description: "Disconnect a repository and delete its previews. Requires confirm set to true",
		},
		action:   auth.ActionDelete,
		resource: func(in confirmInput) string { return auth.Resource("repository", in.ID) },
		verb:     "deleting repository",
		run: func(ctx context.Context, in confirmInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			if !in.Confirm {
				return fmt.Sprintf("Deletion cancelled: set confirm to true to delete repository %s.", in.ID), nil
			}
			if err := s.api.DeleteRepository(ctx, in.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Repository %s deleted.", in.ID), nil
		},
	})

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getRepositoryPreviews",
			Description: "List the previews built from a repository",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("repository", in.ID) },
		verb:     "fetching repository previews",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			previews, err := s.api.RepositoryPreviews(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return listReport("Previews", previewEntries(previews)), nil
		},
	})

	refListings := []struct {
		name        string
		description string
		verb        string
		label       string
		call        func(context.Context, string) ([]tugboat.Ref, error)
	}{
		{"getRepositoryBranches", "List the branches of a repository", "fetching repository branches", "Branches", s.api.RepositoryBranches},
		{"getRepositoryTags", "List the tags of a repository", "fetching repository tags", "Tags", s.api.RepositoryTags},
	}
	for _, l := range refListings {
		addOperation(server, s, operation[idInput]{
			tool: &mcp.Tool{
				Name:        l.name,
				Description: l.description,
			},
			action:   auth.ActionRead,
			resource: func(in idInput) string { return auth.Resource("repository", in.ID) },
			verb:     l.verb,
			run: func(ctx context.Context, in idInput) (string, error) {
				if err := tugboat.ValidateID("repository", in.ID); err != nil {
					return "", err
				}
				refs, err := l.call(ctx, in.ID)
				if err != nil {
					return "", err
				}
				return listReport(l.label, refEntries(refs)), nil
			},
		})
	}

	addOperation(server, s, operation[idInput]{
		tool: &mcp.Tool{
			Name:        "getRepositoryPullRequests",
			Description: "List the open pull requests of a repository",
		},
		action:   auth.ActionRead,
		resource: func(in idInput) string { return auth.Resource("repository", in.ID) },
		verb:     "fetching repository pull requests",
		run: func(ctx context.Context, in idInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			pulls, err := s.api.RepositoryPullRequests(ctx, in.ID)
			if err != nil {
				return "", err
			}
			return listReport("Pull requests", pullRequestEntries(pulls)), nil
		},
	})

	addOperation(server, s, operation[jobsInput]{
		tool: &mcp.Tool{
			Name:        "getRepositoryJobs",
			Description: "List jobs that ran against a repository",
		},
		action:   auth.ActionRead,
		resource: func(in jobsInput) string { return auth.Resource("repository", in.ID) },
		verb:     "fetching repository jobs",
		run:      jobsRun("repository", s.api.RepositoryJobs),
	})

	addOperation(server, s, operation[statsInput]{
		tool: &mcp.Tool{
			Name:        "getRepositoryStats",
			Description: "Get a statistics series for a repository, such as size over time",
		},
		action:   auth.ActionRead,
		resource: func(in statsInput) string { return auth.Resource("repository", in.ID) },
		verb:     "fetching repository statistics",
		run:      statsRun("repository", s.api.RepositoryStats),
	})

	addOperation(server, s, operation[sshKeyInput]{
		tool: &mcp.Tool{
			Name:        "createRepositorySSHKey",
			Description: "Generate a new deploy key pair for a repository and return the public half",
		},
		action:   auth.ActionWrite,
		resource: func(in sshKeyInput) string { return auth.Resource("repository", in.ID) },
		verb:     "creating repository SSH key",
		run: func(ctx context.Context, in sshKeyInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			key, err := s.api.CreateRepositorySSHKey(ctx, in.ID, tugboat.SSHKeyRequest{
				Type: in.Type,
				Bits: in.Bits,
			})
			if err != nil {
				return "", err
			}
			lines := []string{fmt.Sprintf("SSH key generated for repository %s.", in.ID)}
			if key.Type != nil {
				lines = append(lines, "Type: "+*key.Type)
			}
			lines = append(lines, key.Key)
			return strings.Join(lines, "\n"), nil
		},
	})

	addOperation(server, s, operation[updateRepositoryAuthInput]{
		tool: &mcp.Tool{
			Name:        "updateRepositoryAuth",
			Description: "Replace the git provider credentials of a repository",
		},
		action:   auth.ActionWrite,
		resource: func(in updateRepositoryAuthInput) string { return auth.Resource("repository", in.ID) },
		verb:     "updating repository auth",
		run: func(ctx context.Context, in updateRepositoryAuthInput) (string, error) {
			if err := tugboat.ValidateID("repository", in.ID); err != nil {
				return "", err
			}
			if in.Token == "" && in.User == "" && in.Pass == "" {
				return "", errors.New("no credentials were provided")
			}
			err := s.api.UpdateRepositoryAuth(ctx, in.ID, tugboat.RepositoryAuth{
				Token: in.Token,
				User:  in.User,
				Pass:  in.Pass,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Repository authentication updated for %s.", in.ID), nil
		},
	})
}
