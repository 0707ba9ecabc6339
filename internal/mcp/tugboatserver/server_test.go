package tugboatserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

const (
	previewID = "0123456789abcdef01234567"
	repoID    = "89abcdef0123456789abcdef"
	projectID = "abcdef0123456789abcdef01"
	jobID     = "fedcba9876543210fedcba98"
)

func ptr[T any](v T) *T { return &v }

// newTestSession wires the MCP server to a fake Tugboat API and returns a
// connected client session.
func newTestSession(t *testing.T, upstream http.Handler, opts ...auth.Option) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	tc := tugboat.NewClient(api.URL, "tu-test-key")
	manager := auth.NewManager("tu-test-key", opts...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(tc, manager, logger)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})
	return clientSession
}

// callText invokes a tool and returns its single text block plus the
// IsError flag.
func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "call %s", name)
	require.Len(t, res.Content, 1, "%s returns one content block", name)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "%s returns text content", name)
	return text.Text, res.IsError
}

// writeJSON runs on the upstream handler goroutine, so it must not use
// require.
func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

// failingUpstream fails the test on any request. Used to prove a call was
// rejected before it reached the API.
func failingUpstream(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func TestToolCatalog(t *testing.T) {
	session := newTestSession(t, failingUpstream(t))

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make(map[string]bool, len(res.Tools))
	readOnly := make(map[string]bool, len(res.Tools))
	for _, tool := range res.Tools {
		names[tool.Name] = true
		readOnly[tool.Name] = tool.Annotations != nil && tool.Annotations.ReadOnlyHint
	}

	want := []string{
		"createPreview", "getPreview", "updatePreview", "deletePreview",
		"buildPreview", "refreshPreview", "startPreview", "stopPreview",
		"suspendPreview", "clonePreview", "getPreviewJobs", "getPreviewLogs",
		"getPreviewStatistics",
		"listProjects", "getProject", "updateProject", "deleteProject",
		"getProjectRepositories", "getProjectPreviews", "getProjectJobs",
		"getProjectStats",
		"createRepository", "getRepository", "updateRepository",
		"deleteRepository", "getRepositoryPreviews", "getRepositoryBranches",
		"getRepositoryTags", "getRepositoryPullRequests", "getRepositoryJobs",
		"getRepositoryStats", "createRepositorySSHKey", "updateRepositoryAuth",
		"searchPreviews", "searchProjects", "searchRepositories",
	}
	for _, name := range want {
		assert.True(t, names[name], "missing tool %s", name)
	}
	assert.Len(t, res.Tools, len(want))

	assert.True(t, readOnly["getPreview"])
	assert.True(t, readOnly["listProjects"])
	assert.True(t, readOnly["searchRepositories"])
	assert.False(t, readOnly["createPreview"])
	assert.False(t, readOnly["deleteProject"])
}

func TestResourceCatalog(t *testing.T) {
	session := newTestSession(t, failingUpstream(t))

	res, err := session.ListResources(context.Background(), &mcp.ListResourcesParams{})
	require.NoError(t, err)
	uris := make([]string, 0, len(res.Resources))
	for _, r := range res.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{
		"tugboat://projects",
		"tugboat://previews",
		"tugboat://repositories",
	}, uris)

	tmpl, err := session.ListResourceTemplates(context.Background(), &mcp.ListResourceTemplatesParams{})
	require.NoError(t, err)
	templates := make([]string, 0, len(tmpl.ResourceTemplates))
	for _, r := range tmpl.ResourceTemplates {
		templates = append(templates, r.URITemplate)
	}
	assert.ElementsMatch(t, []string{
		"tugboat://project/{id}",
		"tugboat://preview/{id}",
		"tugboat://preview/{id}/logs",
		"tugboat://repository/{id}",
	}, templates)
}

type denyAll struct{}

func (denyAll) Authorize(_ context.Context, resource string, _ auth.Action) error {
	return fmt.Errorf("%w: policy denies %s", auth.ErrNotAuthorized, resource)
}

func TestDeniedToolNeverCallsUpstream(t *testing.T) {
	session := newTestSession(t, failingUpstream(t), auth.WithPolicy(denyAll{}))

	text, isErr := callText(t, session, "getPreview", map[string]any{"id": previewID})
	assert.True(t, isErr)
	assert.Contains(t, text, "authorized")

	// Denial also blocks mutations that were explicitly confirmed.
	text, isErr = callText(t, session, "deletePreview", map[string]any{"id": previewID, "confirm": true})
	assert.True(t, isErr)
	assert.Contains(t, text, "authorized")
}

func TestToolReportsNotFoundVerbatim(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews/"+previewID, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "getPreview", map[string]any{"id": previewID})
	assert.True(t, isErr)
	assert.Equal(t, "Error fetching preview: Tugboat API Error: Resource not found at /previews/"+previewID, text)
}

func TestListProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Project{
			{ID: projectID, Name: "Marketing", Domain: ptr("marketing.example.com")},
			{ID: repoID, Name: "Docs"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "listProjects", map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, "Projects (2):")
	assert.Contains(t, text, "- Marketing ("+projectID+") marketing.example.com")
	assert.Contains(t, text, "- Docs ("+repoID+")")
}

func TestListProjectsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Project{})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "listProjects", map[string]any{})
	require.False(t, isErr)
	assert.Equal(t, "No projects found.", text)
}

func TestGetProjectSummary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects/"+projectID, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, tugboat.Project{
			ID:    projectID,
			Name:  "Marketing",
			Quota: ptr(int64(10737418240)),
			Size:  ptr(int64(1610612736)),
			Repos: []string{repoID},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "getProject", map[string]any{"id": projectID})
	require.False(t, isErr)
	assert.Contains(t, text, "Project: Marketing")
	assert.Contains(t, text, "ID: "+projectID)
	assert.Contains(t, text, "Quota: 10.00 GB")
	assert.Contains(t, text, "Size: 1.50 GB")
	assert.Contains(t, text, "Repositories: 1")
	assert.NotContains(t, text, "Domain:")
}
