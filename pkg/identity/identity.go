package identity

import (
	"context"
	"sync"

	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
)

// Provider is the external identity provider
type Provider interface {
	// Session resolves the user owning credential. A nil user without error means anonymous.
	Session(ctx context.Context, credential string) (*model.User, error)
	// LoginURL returns the external sign-in URL that sends the browser back to returnTo
	LoginURL(returnTo string) string
	// Logout signs the credential out and may return a URL to complete the sign-out
	Logout(ctx context.Context, credential string) (string, error)
}

// Handler receives every authentication state change
type Handler func(ctx context.Context, state model.AuthState)

type subscription struct {
	id      int
	handler Handler
}

// Adapter holds the authentication state of one client and pushes changes to subscribers
type Adapter struct {
	provider Provider

	// delivery orders state changes and their delivery. Handlers must not call back into the adapter.
	delivery sync.Mutex

	mu     sync.Mutex
	state  model.AuthState
	subs   []subscription
	nextID int
}

func New(provider Provider) *Adapter {
	return &Adapter{
		provider: provider,
		state:    model.UnknownAuth(),
	}
}

// State returns the current authentication state
func (a *Adapter) State() model.AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe registers handler, delivers the current state to it and returns the function that
// removes the registration
func (a *Adapter) Subscribe(ctx context.Context, handler Handler) func() {
	a.delivery.Lock()
	defer a.delivery.Unlock()

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subs = append(a.subs, subscription{id: id, handler: handler})
	state := a.state
	a.mu.Unlock()

	handler(ctx, state)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, s := range a.subs {
				if s.id == id {
					a.subs = append(a.subs[:i], a.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Refresh resolves the state for credential from the provider. Provider errors are logged and
// treated as anonymous.
func (a *Adapter) Refresh(ctx context.Context, credential string) model.AuthState {
	user, err := a.provider.Session(ctx, credential)
	if err != nil {
		logging.From(ctx).Warn("failed to resolve session, continue as anonymous", logging.ErrAttr(err))
		user = nil
	}

	next := model.AuthenticatedAuth(user)
	a.publish(ctx, next)
	return next
}

// Login returns the sign-in URL anchored at origin and path so the flow comes back to the
// same deployment
func (a *Adapter) Login(origin, path string) string {
	return a.provider.LoginURL(origin + path)
}

// Logout signs out at the provider and moves the state to anonymous. The returned URL, when not
// empty, completes the sign-out in the browser. It is returned with the error when the provider
// could not end the session itself.
func (a *Adapter) Logout(ctx context.Context, credential string) (string, error) {
	redirect, err := a.provider.Logout(ctx, credential)
	a.publish(ctx, model.AnonymousAuth())
	return redirect, err
}

// publish stores next and delivers it. Subscribers receive changes in the order they are stored.
func (a *Adapter) publish(ctx context.Context, next model.AuthState) {
	a.delivery.Lock()
	defer a.delivery.Unlock()

	a.mu.Lock()
	if a.state.Equal(next) {
		a.state = next
		a.mu.Unlock()
		return
	}
	a.state = next
	subs := make([]subscription, len(a.subs))
	copy(subs, a.subs)
	a.mu.Unlock()

	for _, s := range subs {
		s.handler(ctx, next)
	}
}
