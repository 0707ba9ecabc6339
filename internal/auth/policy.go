package auth

import (
	"context"
	"errors"
	"net/http"
)

// ErrNotAuthorized is returned when a policy denies an action on a resource.
var ErrNotAuthorized = errors.New("not authorized")

// Action classifies what a caller wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// ActionForMethod maps an HTTP method to the action it implies.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet:
		return ActionRead
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// Policy decides whether an action may touch a resource. Resources are named
// "{type}/{id}" for a single object and by the bare collection name
// ("previews", "projects", "repositories") for collection-level operations.
type Policy interface {
	Authorize(ctx context.Context, resource string, action Action) error
}

// AllowAll grants every request. It is the default policy: a Tugboat API key
// is all-or-nothing, so the effective decision is made upstream when the key
// is issued.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, string, Action) error {
	return nil
}

// Resource builds the canonical resource name for a single object.
func Resource(kind, id string) string {
	return kind + "/" + id
}
