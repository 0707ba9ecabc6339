// Package auth owns the pseudo-token lifecycle and the authorization policy
// hook. Tugboat keys are permanent bearer credentials, so "refreshing" only
// wraps the configured key; the machinery still guards the cache so that
// concurrent callers share a single refresh.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
)

// Manager caches the bearer token and answers authorization checks.
type Manager struct {
	policy  Policy
	refresh func(ctx context.Context) (*tugboat.AuthToken, error)
	now     func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	token *tugboat.AuthToken
}

// Option customizes a Manager.
type Option func(*Manager)

// WithPolicy installs an authorization policy. The default grants everything.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// NewManager creates a manager for the given API key.
func NewManager(apiKey string, opts ...Option) *Manager {
	m := &Manager{
		policy: AllowAll{},
		now:    time.Now,
	}
	m.refresh = func(context.Context) (*tugboat.AuthToken, error) {
		return &tugboat.AuthToken{Token: apiKey}, nil
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate returns the cached token, refreshing it first when absent or
// expired. Concurrent callers during a refresh share the one in-flight
// result; the in-flight slot is released on success and on failure so a later
// call can retry.
func (m *Manager) Authenticate(ctx context.Context) (*tugboat.AuthToken, error) {
	if tok := m.cached(); tok != nil {
		return tok, nil
	}

	v, err, _ := m.group.Do("token", func() (any, error) {
		// A caller that lost the race may arrive after the winner stored
		// the token.
		if tok := m.cached(); tok != nil {
			return tok, nil
		}
		tok, err := m.refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tugboat.AuthToken), nil
}

func (m *Manager) cached() *tugboat.AuthToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil
	}
	if m.token.Expires != nil && m.now().Unix() >= *m.token.Expires {
		return nil
	}
	return m.token
}

// Token returns the current bearer token value, refreshing it when needed.
// The HTTP permission middleware compares incoming bearer values against it.
func (m *Manager) Token(ctx context.Context) (string, error) {
	tok, err := m.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}

// IsAuthorized authenticates and then asks the policy whether the action may
// touch the resource. A denial carries the resource and action in its
// message.
func (m *Manager) IsAuthorized(ctx context.Context, resource string, action Action) error {
	if _, err := m.Authenticate(ctx); err != nil {
		return err
	}
	if err := m.policy.Authorize(ctx, resource, action); err != nil {
		return fmt.Errorf("not authorized to %s %s: %w", action, resource, err)
	}
	return nil
}

// AuthHeaders returns the headers that authenticate an upstream request.
func (m *Manager) AuthHeaders(ctx context.Context) (http.Header, error) {
	tok, err := m.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok.Token)
	return h, nil
}
