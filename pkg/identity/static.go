package identity

import (
	"context"
	"sync"

	"github.com/m-mizutani/startzen/pkg/model"
)

// Static is a Provider with one fixed user, used by the console, the CLI and tests.
// The user is signed in until Logout and again after SignIn.
type Static struct {
	mu       sync.Mutex
	user     *model.User
	signedIn bool
}

// NewStatic returns a provider for user. A nil user is always anonymous.
func NewStatic(user *model.User, signedIn bool) *Static {
	return &Static{user: user, signedIn: signedIn && user != nil}
}

func (s *Static) Session(ctx context.Context, credential string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *Static) LoginURL(returnTo string) string {
	return returnTo
}

func (s *Static) Logout(ctx context.Context, credential string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedIn = false
	return "", nil
}

// SignIn marks the user as signed in. It reports false when there is no user.
func (s *Static) SignIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	s.signedIn = true
	return true
}
