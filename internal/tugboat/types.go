package tugboat

import (
	"encoding/json"
	"fmt"
)

// The entity types below mirror the JSON shapes returned by the Tugboat API.
// Tugboat owns these objects end to end; this package only relays them, so
// every field the API may omit is a pointer.

// Project is a Tugboat project: the billing and quota boundary that owns
// repositories and their previews.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Domain      *string  `json:"domain,omitempty"`
	Quota       *int64   `json:"quota,omitempty"`
	Size        *int64   `json:"size,omitempty"`
	Repos       []string `json:"repos,omitempty"`
	Users       []string `json:"users,omitempty"`
	Admins      []string `json:"admins,omitempty"`
	Owners      []string `json:"owners,omitempty"`
	CreatedAt   *string  `json:"createdAt,omitempty"`
	UpdatedAt   *string  `json:"updatedAt,omitempty"`
}

// Repository is a git repository connected to a project.
type Repository struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Project        string  `json:"project,omitempty"`
	Provider       *string `json:"provider,omitempty"`
	URL            *string `json:"url,omitempty"`
	Private        *bool   `json:"private,omitempty"`
	Autobuild      *bool   `json:"autobuild,omitempty"`
	Autorebuild    *bool   `json:"autorebuild,omitempty"`
	Autoredeploy   *bool   `json:"autoredeploy,omitempty"`
	BuildTimeout   *int    `json:"build_timeout,omitempty"`
	RefreshTimeout *int    `json:"refresh_timeout,omitempty"`
	Size           *int64  `json:"size,omitempty"`
	PreviewCount   *int    `json:"preview_count,omitempty"`
}

// Preview is a built environment for a single git ref.
type Preview struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Repository   string  `json:"repo,omitempty"`
	State        *string `json:"state,omitempty"`
	Ref          *string `json:"ref,omitempty"`
	URL          *string `json:"url,omitempty"`
	Size         *int64  `json:"size,omitempty"`
	Locked       *bool   `json:"locked,omitempty"`
	Anchor       *bool   `json:"anchor,omitempty"`
	BuildBeginAt *string `json:"build_begin,omitempty"`
	BuildEndAt   *string `json:"build_end,omitempty"`
}

// Job is an asynchronous operation Tugboat runs on its side (build, refresh,
// clone, start, stop, suspend). This server triggers jobs but never polls
// them.
type Job struct {
	ID        string  `json:"id,omitempty"`
	Action    *string `json:"action,omitempty"`
	Target    *string `json:"target,omitempty"`
	Result    *string `json:"result,omitempty"`
	Message   *string `json:"message,omitempty"`
	CreatedAt *string `json:"createdAt,omitempty"`
	UpdatedAt *string `json:"updatedAt,omitempty"`
}

// Ref is a branch or tag reported by the repository's git provider.
type Ref struct {
	Name string  `json:"name"`
	SHA  *string `json:"sha,omitempty"`
}

// PullRequest is an open pull/merge request on the repository.
type PullRequest struct {
	Number int     `json:"number"`
	Title  *string `json:"title,omitempty"`
	State  *string `json:"state,omitempty"`
	URL    *string `json:"url,omitempty"`
}

// StatPoint is one sample from a statistics series.
type StatPoint struct {
	Date  *string `json:"date,omitempty"`
	Value float64 `json:"value"`
}

// SSHKey is the public half of a deploy key generated for a repository.
type SSHKey struct {
	Type *string `json:"type,omitempty"`
	Key  string  `json:"key"`
}

// AuthToken wraps the API key as a bearer token. Tugboat keys do not expire,
// so Expires is never set by this implementation.
type AuthToken struct {
	Token   string `json:"token"`
	Expires *int64 `json:"expires,omitempty"`
}

// LogLine is one preview log entry. The logs endpoint has returned both bare
// strings and {date, message} objects, so decoding accepts either.
type LogLine struct {
	Date    string `json:"date,omitempty"`
	Message string `json:"message"`
}

func (l *LogLine) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Message = s
		return nil
	}
	type alias LogLine
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = LogLine(obj)
	return nil
}

// String renders the line for display, prefixing the timestamp when present.
func (l LogLine) String() string {
	if l.Date != "" {
		return fmt.Sprintf("[%s] %s", l.Date, l.Message)
	}
	return l.Message
}

// idLength is the length of every Tugboat object identifier.
const idLength = 24

// ValidateID rejects identifiers that cannot possibly name a Tugboat object,
// before any request leaves the process.
func ValidateID(kind, id string) error {
	if len(id) != idLength {
		return fmt.Errorf("%s id must be a %d-character identifier (got %d characters)", kind, idLength, len(id))
	}
	return nil
}
