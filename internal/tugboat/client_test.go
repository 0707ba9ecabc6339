package tugboat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("https://api.tugboatqa.com/v3/", "key")

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Fatal("HTTP client is nil")
	}
	if client.http.Timeout == 0 {
		t.Error("HTTP client timeout not set")
	}
	if client.baseURL != "https://api.tugboatqa.com/v3" {
		t.Errorf("base URL not normalized: %q", client.baseURL)
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotAccept, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"id":"0123456789abcdef01234567","name":"pr-42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	_, err := client.CreatePreview(context.Background(), "0123456789abcdef01234567", CreatePreviewRequest{Ref: "main"})
	if err != nil {
		t.Fatalf("CreatePreview() failed: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want Bearer secret-key", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.do404target(context.Background())
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	want := "Tugboat API Error: Resource not found at /previews/nonexistent"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false for a 404")
	}
}

// do404target requests a fixed path so the test can assert the exact error text.
func (c *Client) do404target(ctx context.Context) (*Preview, error) {
	var p Preview
	if err := c.do(ctx, http.MethodGet, "/previews/nonexistent", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func TestStatusCodeMapping(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		want       string
	}{
		{"Unauthorized", http.StatusUnauthorized, "", "Tugboat API Error: Authentication failed"},
		{"Forbidden", http.StatusForbidden, "", "Tugboat API Error: Authorization failed"},
		{"ServerError", http.StatusInternalServerError, `{"message":"upstream exploded"}`, "Tugboat API Error (500): upstream exploded"},
		{"ErrorKey", http.StatusBadRequest, `{"error":"bad ref"}`, "Tugboat API Error (400): bad ref"},
		{"EmptyBody", http.StatusBadGateway, "", "Tugboat API Error (502): Bad Gateway"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "key")
			_, err := client.ListPreviews(context.Background())
			if err == nil {
				t.Fatalf("expected an error for status %d", tc.statusCode)
			}
			if err.Error() != tc.want {
				t.Errorf("error = %q, want %q", err.Error(), tc.want)
			}
		})
	}
}

func TestNoResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.ListProjects(context.Background())
	if err == nil {
		t.Fatal("expected an error when the server is unreachable")
	}
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("error %v is not ErrNoResponse", err)
	}
}

func TestUnexpectedFormatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.ListPreviews(context.Background())
	if err == nil {
		t.Fatal("expected an error for a non-JSON body")
	}
	if !errors.Is(err, ErrUnexpectedFormat) {
		t.Errorf("error %v is not ErrUnexpectedFormat", err)
	}
}

func TestCreatePreviewOmitsUnsetFields(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"aaaaaaaaaaaaaaaaaaaaaaaa","name":"main"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	preview, err := client.CreatePreview(context.Background(), "0123456789abcdef01234567", CreatePreviewRequest{Ref: "main"})
	if err != nil {
		t.Fatalf("CreatePreview() failed: %v", err)
	}
	if preview.ID != "aaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("preview id = %q", preview.ID)
	}

	if payload["ref"] != "main" {
		t.Errorf("payload ref = %v", payload["ref"])
	}
	if _, ok := payload["name"]; ok {
		t.Error("payload contains name despite it being unset")
	}
	if _, ok := payload["config"]; ok {
		t.Error("payload contains config despite it being unset")
	}
}

func TestStatsQueryEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("item") != "size" {
			t.Errorf("item = %q", q.Get("item"))
		}
		if q.Get("limit") != "5" {
			t.Errorf("limit = %q", q.Get("limit"))
		}
		if q.Get("after") != "2026-01-01" {
			t.Errorf("after = %q", q.Get("after"))
		}
		if q.Has("before") {
			t.Error("before sent despite being unset")
		}
		_, _ = w.Write([]byte(`[{"date":"2026-01-02","value":1048576}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	points, err := client.PreviewStatistics(context.Background(), "0123456789abcdef01234567", StatsOptions{
		Item:  "size",
		Limit: 5,
		After: "2026-01-01",
	})
	if err != nil {
		t.Fatalf("PreviewStatistics() failed: %v", err)
	}
	if len(points) != 1 || points[0].Value != 1048576 {
		t.Errorf("points = %+v", points)
	}
}

func TestJobsQueryEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("active") != "true" {
			t.Errorf("active = %q", r.URL.Query().Get("active"))
		}
		_, _ = w.Write([]byte(`[{"id":"bbbbbbbbbbbbbbbbbbbbbbbb","action":"build"}]`))
	}))
	defer server.Close()

	active := true
	client := NewClient(server.URL, "key")
	jobs, err := client.PreviewJobs(context.Background(), "0123456789abcdef01234567", JobsOptions{Active: &active})
	if err != nil {
		t.Fatalf("PreviewJobs() failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "bbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestPreviewLogsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"logs":["plain line",{"date":"2026-02-03T04:05:06Z","message":"object line"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	logs, err := client.PreviewLogs(context.Background(), "0123456789abcdef01234567")
	if err != nil {
		t.Fatalf("PreviewLogs() failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d log lines, want 2", len(logs))
	}
	if logs[0].Message != "plain line" {
		t.Errorf("logs[0] = %+v", logs[0])
	}
	if logs[1].Date != "2026-02-03T04:05:06Z" || logs[1].Message != "object line" {
		t.Errorf("logs[1] = %+v", logs[1])
	}
	if logs[1].String() != "[2026-02-03T04:05:06Z] object line" {
		t.Errorf("String() = %q", logs[1].String())
	}
}

func TestPreviewActionEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/previews/0123456789abcdef01234567/suspend" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	job, err := client.SuspendPreview(context.Background(), "0123456789abcdef01234567")
	if err != nil {
		t.Fatalf("SuspendPreview() failed: %v", err)
	}
	if job == nil {
		t.Fatal("job is nil")
	}
	if job.ID != "" {
		t.Errorf("job id = %q for an empty response", job.ID)
	}
}

func TestClonePreviewBody(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"cccccccccccccccccccccccc","action":"clone"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	job, err := client.ClonePreview(context.Background(), "0123456789abcdef01234567", "copy-of-main")
	if err != nil {
		t.Fatalf("ClonePreview() failed: %v", err)
	}
	if payload["name"] != "copy-of-main" {
		t.Errorf("payload = %v", payload)
	}
	if job.Action == nil || *job.Action != "clone" {
		t.Errorf("job = %+v", job)
	}
}

func TestUpdateSendsOnlyGivenFields(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"0123456789abcdef01234567","name":"renamed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.UpdatePreview(context.Background(), "0123456789abcdef01234567", map[string]any{"name": "renamed"})
	if err != nil {
		t.Fatalf("UpdatePreview() failed: %v", err)
	}
	if len(payload) != 1 || payload["name"] != "renamed" {
		t.Errorf("payload = %v", payload)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("preview", "0123456789abcdef01234567"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	if err := ValidateID("preview", "short"); err == nil {
		t.Error("short id accepted")
	}
	if err := ValidateID("preview", "0123456789abcdef012345678"); err == nil {
		t.Error("25-character id accepted")
	}
}
