package tugboatserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

func TestSearchPreviewsCaseInsensitiveName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{
			{ID: previewID, Name: "Feature Preview"},
			{ID: repoID, Name: "Main Branch"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": "feature"})
	require.False(t, isErr)
	assert.Contains(t, text, `Previews matching "feature" (1):`)
	assert.Contains(t, text, "Feature Preview")
	assert.NotContains(t, text, "Main Branch")
}

func TestSearchPreviewsMatchesRefAndURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{
			{ID: previewID, Name: "One", Ref: ptr("feature/login")},
			{ID: repoID, Name: "Two", URL: ptr("https://feature.example.com")},
			{ID: projectID, Name: "Three"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": "FEATURE"})
	require.False(t, isErr)
	assert.Contains(t, text, `Previews matching "FEATURE" (2):`)
	assert.Contains(t, text, "- One")
	assert.Contains(t, text, "- Two")
	assert.NotContains(t, text, "- Three")
}

func TestSearchPreviewsMatchesID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{
			{ID: previewID, Name: "One"},
			{ID: repoID, Name: "Two"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": previewID})
	require.False(t, isErr)
	assert.Contains(t, text, "- One")
	assert.NotContains(t, text, "- Two")
}

func TestSearchPreviewsStateFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{
			{ID: previewID, Name: "Ready preview", State: ptr("ready")},
			{ID: repoID, Name: "Building preview", State: ptr("building")},
			{ID: projectID, Name: "Stateless preview"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": "preview", "state": "ready"})
	require.False(t, isErr)
	assert.Contains(t, text, "Ready preview")
	assert.NotContains(t, text, "Building preview")
	assert.NotContains(t, text, "Stateless preview")
}

func TestSearchPreviewsNoMatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{{ID: previewID, Name: "Main"}})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": "nothing-matches-this"})
	require.False(t, isErr)
	assert.Equal(t, `No previews matched "nothing-matches-this".`, text)
}

func TestSearchPreviewsFallsBackToProjects(t *testing.T) {
	otherProject := jobID
	mux := http.NewServeMux()
	mux.HandleFunc("GET /previews", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Project{
			{ID: projectID, Name: "Working"},
			{ID: otherProject, Name: "Broken"},
		})
	})
	mux.HandleFunc("GET /projects/"+projectID+"/previews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Preview{{ID: previewID, Name: "Feature Preview"}})
	})
	// One failing project must not abort the aggregation.
	mux.HandleFunc("GET /projects/"+otherProject+"/previews", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": "feature"})
	require.False(t, isErr)
	assert.Contains(t, text, "Feature Preview")
}

func TestSearchPreviewsRequiresQuery(t *testing.T) {
	session := newTestSession(t, failingUpstream(t))

	text, isErr := callText(t, session, "searchPreviews", map[string]any{"query": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, "query is required")
}

func TestSearchProjectsMatchesDomain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Project{
			{ID: projectID, Name: "Marketing"},
			{ID: repoID, Name: "Docs", Domain: ptr("docs.example.com")},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchProjects", map[string]any{"query": "example"})
	require.False(t, isErr)
	assert.Contains(t, text, `Projects matching "example" (1):`)
	assert.Contains(t, text, "- Docs")
	assert.NotContains(t, text, "- Marketing")
}

func TestSearchRepositoriesAggregatesProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Project{{ID: projectID, Name: "Marketing"}})
	})
	mux.HandleFunc("GET /projects/"+projectID+"/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []tugboat.Repository{
			{ID: repoID, Name: "marketing-site", URL: ptr("https://github.com/example/marketing-site")},
			{ID: previewID, Name: "internal-tools"},
		})
	})
	session := newTestSession(t, mux)

	text, isErr := callText(t, session, "searchRepositories", map[string]any{"query": "github"})
	require.False(t, isErr)
	assert.Contains(t, text, `Repositories matching "github" (1):`)
	assert.Contains(t, text, "- marketing-site")
	assert.NotContains(t, text, "- internal-tools")
}
