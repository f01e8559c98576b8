// Package session resolves "which protocol, which credentials, which host"
// for accounts and holds the profile directory layout. Components take an
// account Context as a parameter instead of reaching into global state.
package session

import (
	"fmt"
	"sync"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/model"
)

// Context identifies one signed-in account. ViewerID is the account's own id
// on the backend (numeric id or DID), used to compute viewer state.
type Context struct {
	ID       string
	Protocol model.Protocol
	Host     string
	Handle   string
	ViewerID string
}

// Registry binds account contexts to their protocol capabilities.
type Registry struct {
	mu       sync.RWMutex
	contexts map[string]Context
	mastoCli map[string]masto.Client
	atpAgent map[string]atp.Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contexts: make(map[string]Context),
		mastoCli: make(map[string]masto.Client),
		atpAgent: make(map[string]atp.Agent),
	}
}

// RegisterMastodon adds a federated-backend account.
func (r *Registry) RegisterMastodon(ctx Context, client masto.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx.Protocol = model.ProtocolMastodon
	r.contexts[ctx.ID] = ctx
	r.mastoCli[ctx.ID] = client
}

// RegisterBluesky adds a DID-addressed-backend account.
func (r *Registry) RegisterBluesky(ctx Context, agent atp.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx.Protocol = model.ProtocolBluesky
	r.contexts[ctx.ID] = ctx
	r.atpAgent[ctx.ID] = agent
}

// Resolve returns the context of an account id.
func (r *Registry) Resolve(accountID string) (Context, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[accountID]
	if !ok {
		return Context{}, fmt.Errorf("unknown account %q", accountID)
	}
	return ctx, nil
}

// Mastodon returns the REST client bound to an account.
func (r *Registry) Mastodon(accountID string) (masto.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.mastoCli[accountID]
	if !ok {
		return nil, fmt.Errorf("account %q has no mastodon client", accountID)
	}
	return c, nil
}

// Bluesky returns the agent bound to an account.
func (r *Registry) Bluesky(accountID string) (atp.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.atpAgent[accountID]
	if !ok {
		return nil, fmt.Errorf("account %q has no bluesky agent", accountID)
	}
	return a, nil
}

// Accounts lists all registered contexts.
func (r *Registry) Accounts() []Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Context, 0, len(r.contexts))
	for _, ctx := range r.contexts {
		out = append(out, ctx)
	}
	return out
}
