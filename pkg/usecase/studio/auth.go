package studio

import (
	"context"

	"github.com/m-mizutani/startzen/pkg/model"
)

func (s *Studio) onAuthChange(ctx context.Context, auth model.AuthState) {
	s.mu.Lock()
	prev := s.state.Auth
	s.state.Auth = auth

	switch auth.Status() {
	case model.AuthAuthenticated:
		if prev.Equal(auth) {
			s.mu.Unlock()
			return
		}
		s.reset(model.ViewIntake)
		s.mu.Unlock()
		s.loadHistory(ctx)

	case model.AuthAnonymous:
		s.reset(model.ViewLanding)
		s.mu.Unlock()

	default:
		s.mu.Unlock()
	}
}

// reset must be called with mu held. The generation flag survives so that an in-flight call
// keeps blocking new submissions until it resolves.
func (s *Studio) reset(view model.View) {
	s.epoch++
	s.historySeq++
	s.state = State{
		View:         view,
		Auth:         s.state.Auth,
		IsGenerating: s.state.IsGenerating,
	}
}

func (s *Studio) currentUser() *model.User {
	if !s.state.Auth.IsAuthenticated() {
		return nil
	}
	return s.state.Auth.User()
}
