package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
)

type failingProvider struct {
	identity.Static
}

func (f *failingProvider) Session(ctx context.Context, credential string) (*model.User, error) {
	return nil, goerr.New("provider unavailable")
}

func (f *failingProvider) Logout(ctx context.Context, credential string) (string, error) {
	return "", goerr.New("provider unavailable")
}

func TestSubscribeDeliversCurrentState(t *testing.T) {
	ctx := context.Background()
	a := identity.New(identity.NewStatic(&model.User{ID: "u1"}, true))

	var states []model.AuthState
	unsubscribe := a.Subscribe(ctx, func(ctx context.Context, s model.AuthState) {
		states = append(states, s)
	})
	defer unsubscribe()

	gt.A(t, states).Length(1)
	gt.True(t, states[0].IsLoading())

	a.Refresh(ctx, "")
	gt.A(t, states).Length(2)
	gt.True(t, states[1].IsAuthenticated())
	gt.Equal(t, states[1].User().ID, model.UserID("u1"))

	// unchanged state is not re-published
	a.Refresh(ctx, "")
	gt.A(t, states).Length(2)
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	a := identity.New(identity.NewStatic(&model.User{ID: "u1"}, true))

	count := 0
	unsubscribe := a.Subscribe(ctx, func(ctx context.Context, s model.AuthState) { count++ })
	unsubscribe()
	unsubscribe()

	a.Refresh(ctx, "")
	gt.Equal(t, count, 1)
}

func TestLogoutPublishesAnonymous(t *testing.T) {
	ctx := context.Background()
	provider := identity.NewStatic(&model.User{ID: "u1"}, true)
	a := identity.New(provider)
	a.Refresh(ctx, "")

	var last model.AuthState
	a.Subscribe(ctx, func(ctx context.Context, s model.AuthState) { last = s })

	_, err := a.Logout(ctx, "")
	gt.NoError(t, err)
	gt.Equal(t, last.Status(), model.AuthAnonymous)

	gt.False(t, a.Refresh(ctx, "").IsAuthenticated())

	gt.True(t, provider.SignIn())
	gt.True(t, a.Refresh(ctx, "").IsAuthenticated())
	gt.True(t, last.IsAuthenticated())
}

func TestProviderErrorsDegradeToAnonymous(t *testing.T) {
	ctx := context.Background()
	a := identity.New(&failingProvider{})

	state := a.Refresh(ctx, "cookie")
	gt.Equal(t, state.Status(), model.AuthAnonymous)

	_, err := a.Logout(ctx, "cookie")
	gt.Error(t, err)
	gt.Equal(t, a.State().Status(), model.AuthAnonymous)
}

func TestLoginAnchoredAtOriginAndPath(t *testing.T) {
	a := identity.New(identity.NewStatic(nil, false))
	gt.Equal(t, a.Login("https://acme.example.com", "/app"), "https://acme.example.com/app")
}

func TestStaticWithoutUser(t *testing.T) {
	s := identity.NewStatic(nil, true)
	user, err := s.Session(context.Background(), "")
	gt.NoError(t, err)
	gt.V(t, user).Nil()
	gt.False(t, s.SignIn())
}

// persistentProvider keeps the session alive across sign-out
type persistentProvider struct {
	user *model.User
}

func (p *persistentProvider) Session(ctx context.Context, credential string) (*model.User, error) {
	return p.user, nil
}

func (p *persistentProvider) LoginURL(returnTo string) string { return returnTo }

func (p *persistentProvider) Logout(ctx context.Context, credential string) (string, error) {
	return "", nil
}

func TestConcurrentChangesArriveInOrder(t *testing.T) {
	ctx := context.Background()
	a := identity.New(&persistentProvider{user: &model.User{ID: "u1"}})
	a.Refresh(ctx, "cookie")

	var (
		mu       sync.Mutex
		last     model.AuthState
		blocked  bool
		entered  = make(chan struct{})
		release  = make(chan struct{})
		received []model.AuthStatus
	)
	a.Subscribe(ctx, func(ctx context.Context, s model.AuthState) {
		mu.Lock()
		received = append(received, s.Status())
		hold := s.Status() == model.AuthAnonymous && !blocked
		if hold {
			blocked = true
		}
		mu.Unlock()

		if hold {
			close(entered)
			<-release
		}

		mu.Lock()
		last = s
		mu.Unlock()
	})

	logoutDone := make(chan struct{})
	go func() {
		defer close(logoutDone)
		_, _ = a.Logout(ctx, "cookie")
	}()
	<-entered

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		a.Refresh(ctx, "cookie")
	}()

	// give the refresh time to race the blocked delivery
	time.Sleep(50 * time.Millisecond)
	close(release)
	<-logoutDone
	<-refreshDone

	a.Refresh(ctx, "cookie")

	mu.Lock()
	defer mu.Unlock()
	gt.True(t, a.State().IsAuthenticated())
	gt.True(t, last.IsAuthenticated())
	gt.Equal(t, received, []model.AuthStatus{model.AuthAuthenticated, model.AuthAnonymous, model.AuthAuthenticated})
}
