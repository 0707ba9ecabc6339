// Package tugboat is a typed HTTP client for the Tugboat preview-environment
// API. Every method issues exactly one bearer-authenticated request: no
// retries, no backoff, no caching.
package tugboat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to one Tugboat API endpoint with one API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
	debug   bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request/response logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithDebug enables per-request debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a client for the API at baseURL authenticating with
// apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues a single request and decodes the JSON response into out when out
// is non-nil. path must start with "/" and is reported verbatim in errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.debug {
		c.log.DebugContext(ctx, "tugboat request", "method", method, "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrNoResponse, err)
	}

	if c.debug {
		c.log.DebugContext(ctx, "tugboat response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(data))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(resp.StatusCode, data),
			Endpoint:   path,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrUnexpectedFormat, path, err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error payload,
// trying the message/error keys Tugboat uses before falling back to the
// status text.
func extractMessage(status int, data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

// JobsOptions narrow a job listing.
type JobsOptions struct {
	// Active restricts the listing to running (true) or finished (false) jobs.
	Active *bool
	// Limit caps the number of jobs returned. Zero means the API default.
	Limit int
}

func (o JobsOptions) query() url.Values {
	q := url.Values{}
	if o.Active != nil {
		q.Set("active", strconv.FormatBool(*o.Active))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// StatsOptions select a statistics series.
type StatsOptions struct {
	// Item names the series, for example "size".
	Item string
	// Limit caps the number of samples. Zero means the API default.
	Limit int
	// Before and After bound the series by date.
	Before string
	After  string
}

func (o StatsOptions) query() url.Values {
	q := url.Values{}
	if o.Item != "" {
		q.Set("item", o.Item)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Before != "" {
		q.Set("before", o.Before)
	}
	if o.After != "" {
		q.Set("after", o.After)
	}
	return q
}

// --- Projects ---

// ListProjects returns every project the API key can see.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject patches only the supplied fields.
func (c *Client) UpdateProject(ctx context.Context, id string, fields map[string]any) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), nil, fields, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project and everything in it.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil)
}

// ProjectRepositories lists the repositories connected to a project.
func (c *Client) ProjectRepositories(ctx context.Context, id string) ([]Repository, error) {
	var repos []Repository
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/repos", nil, nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ProjectPreviews lists every preview in a project across its repositories.
func (c *Client) ProjectPreviews(ctx context.Context, id string) ([]Preview, error) {
	var previews []Preview
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/previews", nil, nil, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

// ProjectJobs lists jobs that ran against a project.
func (c *Client) ProjectJobs(ctx context.Context, id string, opts JobsOptions) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/jobs", opts.query(), nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ProjectStats returns a statistics series for a project.
func (c *Client) ProjectStats(ctx context.Context, id string, opts StatsOptions) ([]StatPoint, error) {
	var points []StatPoint
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/stats", opts.query(), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// --- Repositories ---

// RepositoryAuth carries git-provider credentials. Values are relayed to the
// API verbatim and never stored here.
type RepositoryAuth struct {
	Token string `json:"token,omitempty"`
	User  string `json:"user,omitempty"`
	Pass  string `json:"pass,omitempty"`
}

// CreateRepositoryRequest describes a repository to connect to a project.
// Repository holds provider-specific fields and is relayed as-is.
type CreateRepositoryRequest struct {
	Provider   string          `json:"provider"`
	Repository map[string]any  `json:"repository"`
	Auth       *RepositoryAuth `json:"auth,omitempty"`
}

// SSHKeyRequest asks Tugboat to generate a deploy key for a repository.
type SSHKeyRequest struct {
	Type string `json:"type,omitempty"`
	Bits int    `json:"bits,omitempty"`
}

// CreateRepository connects a git repository to a project.
func (c *Client) CreateRepository(ctx context.Context, projectID string, req CreateRepositoryRequest) (*Repository, error) {
	var repo Repository
	if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/repos", nil, req, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, id string) (*Repository, error) {
	var repo Repository
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id), nil, nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// UpdateRepository patches only the supplied fields.
func (c *Client) UpdateRepository(ctx context.Context, id string, fields map[string]any) (*Repository, error) {
	var repo Repository
	if err := c.do(ctx, http.MethodPatch, "/repos/"+url.PathEscape(id), nil, fields, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// DeleteRepository disconnects a repository and deletes its previews.
func (c *Client) DeleteRepository(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/repos/"+url.PathEscape(id), nil, nil, nil)
}

// RepositoryPreviews lists the previews built from a repository.
func (c *Client) RepositoryPreviews(ctx context.Context, id string) ([]Preview, error) {
	var previews []Preview
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/previews", nil, nil, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

// RepositoryBranches lists branches from the repository's git provider.
func (c *Client) RepositoryBranches(ctx context.Context, id string) ([]Ref, error) {
	var refs []Ref
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/branches", nil, nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// RepositoryTags lists tags from the repository's git provider.
func (c *Client) RepositoryTags(ctx context.Context, id string) ([]Ref, error) {
	var refs []Ref
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/tags", nil, nil, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// RepositoryPullRequests lists open pull requests from the git provider.
func (c *Client) RepositoryPullRequests(ctx context.Context, id string) ([]PullRequest, error) {
	var pulls []PullRequest
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/pulls", nil, nil, &pulls); err != nil {
		return nil, err
	}
	return pulls, nil
}

// RepositoryJobs lists jobs that ran against a repository.
func (c *Client) RepositoryJobs(ctx context.Context, id string, opts JobsOptions) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/jobs", opts.query(), nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// RepositoryStats returns a statistics series for a repository.
func (c *Client) RepositoryStats(ctx context.Context, id string, opts StatsOptions) ([]StatPoint, error) {
	var points []StatPoint
	if err := c.do(ctx, http.MethodGet, "/repos/"+url.PathEscape(id)+"/stats", opts.query(), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// CreateRepositorySSHKey generates a new deploy key pair and returns the
// public half.
func (c *Client) CreateRepositorySSHKey(ctx context.Context, id string, req SSHKeyRequest) (*SSHKey, error) {
	var key SSHKey
	if err := c.do(ctx, http.MethodPost, "/repos/"+url.PathEscape(id)+"/sshkey", nil, req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateRepositoryAuth replaces the git-provider credentials for a
// repository.
func (c *Client) UpdateRepositoryAuth(ctx context.Context, id string, auth RepositoryAuth) error {
	return c.do(ctx, http.MethodPatch, "/repos/"+url.PathEscape(id)+"/auth", nil, auth, nil)
}

// --- Previews ---

// CreatePreviewRequest describes a preview to build. Name and Config are
// omitted from the payload when unset.
type CreatePreviewRequest struct {
	Ref    string         `json:"ref"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// ListPreviews returns every preview the API key can see.
func (c *Client) ListPreviews(ctx context.Context) ([]Preview, error) {
	var previews []Preview
	if err := c.do(ctx, http.MethodGet, "/previews", nil, nil, &previews); err != nil {
		return nil, err
	}
	return previews, nil
}

// CreatePreview builds a new preview from a ref of the given repository.
func (c *Client) CreatePreview(ctx context.Context, repoID string, req CreatePreviewRequest) (*Preview, error) {
	var preview Preview
	if err := c.do(ctx, http.MethodPost, "/repos/"+url.PathEscape(repoID)+"/previews", nil, req, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// GetPreview fetches a single preview.
func (c *Client) GetPreview(ctx context.Context, id string) (*Preview, error) {
	var preview Preview
	if err := c.do(ctx, http.MethodGet, "/previews/"+url.PathEscape(id), nil, nil, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// UpdatePreview patches only the supplied fields.
func (c *Client) UpdatePreview(ctx context.Context, id string, fields map[string]any) (*Preview, error) {
	var preview Preview
	if err := c.do(ctx, http.MethodPatch, "/previews/"+url.PathEscape(id), nil, fields, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// DeletePreview deletes a preview.
func (c *Client) DeletePreview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/previews/"+url.PathEscape(id), nil, nil, nil)
}

// previewAction triggers one of the asynchronous preview operations. The API
// responds with the job it queued, or with an empty body for some actions.
func (c *Client) previewAction(ctx context.Context, id, action string, body any) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodPost, "/previews/"+url.PathEscape(id)+"/"+action, nil, body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// BuildPreview rebuilds a preview from scratch.
func (c *Client) BuildPreview(ctx context.Context, id string) (*Job, error) {
	return c.previewAction(ctx, id, "build", nil)
}

// RefreshPreview re-runs the refresh stage of a preview.
func (c *Client) RefreshPreview(ctx context.Context, id string) (*Job, error) {
	return c.previewAction(ctx, id, "refresh", nil)
}

// ClonePreview copies a preview, optionally naming the clone.
func (c *Client) ClonePreview(ctx context.Context, id, name string) (*Job, error) {
	var body any
	if name != "" {
		body = map[string]string{"name": name}
	}
	return c.previewAction(ctx, id, "clone", body)
}

// StartPreview starts a stopped preview.
func (c *Client) StartPreview(ctx context.Context, id string) (*Job, error) {
	return c.previewAction(ctx, id, "start", nil)
}

// StopPreview stops a running preview.
func (c *Client) StopPreview(ctx context.Context, id string) (*Job, error) {
	return c.previewAction(ctx, id, "stop", nil)
}

// SuspendPreview suspends a preview, releasing its resources until the next
// start.
func (c *Client) SuspendPreview(ctx context.Context, id string) (*Job, error) {
	return c.previewAction(ctx, id, "suspend", nil)
}

// PreviewJobs lists jobs that ran against a preview.
func (c *Client) PreviewJobs(ctx context.Context, id string, opts JobsOptions) ([]Job, error) {
	var jobs []Job
	if err := c.do(ctx, http.MethodGet, "/previews/"+url.PathEscape(id)+"/jobs", opts.query(), nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// PreviewLogs returns the build/runtime log of a preview.
func (c *Client) PreviewLogs(ctx context.Context, id string) ([]LogLine, error) {
	var envelope struct {
		Logs []LogLine `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/previews/"+url.PathEscape(id)+"/logs", nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Logs, nil
}

// PreviewStatistics returns a statistics series for a preview.
func (c *Client) PreviewStatistics(ctx context.Context, id string, opts StatsOptions) ([]StatPoint, error) {
	var points []StatPoint
	if err := c.do(ctx, http.MethodGet, "/previews/"+url.PathEscape(id)+"/statistics", opts.query(), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}
