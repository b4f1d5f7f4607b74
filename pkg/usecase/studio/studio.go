package studio

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/adapter"
	"github.com/m-mizutani/startzen/pkg/identity"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/repository"
	"github.com/m-mizutani/startzen/pkg/usecase/pitch"
)

var (
	ErrGenerationInProgress = goerr.New("pitch deck generation already in progress")
	// ErrResultDiscarded is returned when a generation finished after the view moved on
	ErrResultDiscarded = goerr.New("generation result superseded by a later action")
	ErrNotSignedIn     = goerr.New("sign in required")
)

const (
	msgGenerated        = "Pitch deck generated successfully!"
	msgGenerationFailed = "Failed to generate pitch deck. Please try again."
)

// DeckBuilder produces validated slides for a request
type DeckBuilder interface {
	Generate(ctx context.Context, req model.PitchRequest, userID model.UserID) (*pitch.Result, error)
}

// State is a copy of the view state taken for rendering
type State struct {
	View         model.View
	Auth         model.AuthState
	IsGenerating bool

	// Draft holds the last submitted form values
	Draft model.PitchRequest
	// Request produced Slides
	Request model.PitchRequest
	Slides  []model.Slide
	// Selected is set when Slides were restored from a history entry
	Selected model.RecordID

	History []*model.PitchRecord
	Notice  *model.Notice
}

// StartupName returns the name the current deck was generated for
func (s *State) StartupName() string {
	return s.Request.StartupName
}

// Studio drives the view state machine of one client
type Studio struct {
	builder DeckBuilder
	records repository.Repository
	archive adapter.Storage

	unsubscribe func()

	mu    sync.Mutex
	state State
	// epoch is bumped by every user visible transition. A generation result is applied only
	// while the epoch it was issued under is current.
	epoch uint64
	// historySeq identifies the newest history fetch
	historySeq uint64
}

type Option func(*Studio)

// WithArchive keeps raw generation outputs of saved records in storage
func WithArchive(storage adapter.Storage) Option {
	return func(s *Studio) {
		s.archive = storage
	}
}

// New creates a Studio and subscribes it to auth. The current auth state is applied before New
// returns.
func New(ctx context.Context, auth *identity.Adapter, builder DeckBuilder, records repository.Repository, opts ...Option) *Studio {
	s := &Studio{
		builder: builder,
		records: records,
		state: State{
			View: model.ViewLanding,
			Auth: model.UnknownAuth(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = auth.Subscribe(ctx, s.onAuthChange)
	return s
}

// Close stops following auth state changes
func (s *Studio) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Snapshot returns a copy of the current state that is safe to keep
func (s *Studio) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

// TakeSnapshot returns a copy of the current state and dismisses its notice in one step, so a
// notice is shown exactly once
func (s *Studio) TakeSnapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.copyState()
	s.state.Notice = nil
	return st
}

// copyState requires s.mu
func (s *Studio) copyState() State {
	st := s.state
	if s.state.Slides != nil {
		st.Slides = cloneSlides(s.state.Slides)
	}
	if s.state.History != nil {
		st.History = make([]*model.PitchRecord, len(s.state.History))
		for i, r := range s.state.History {
			c := *r
			st.History[i] = &c
		}
	}
	if s.state.Notice != nil {
		n := *s.state.Notice
		st.Notice = &n
	}
	return st
}

func cloneSlides(src []model.Slide) []model.Slide {
	dst := make([]model.Slide, len(src))
	for i, slide := range src {
		dst[i] = slide
		if slide.BulletPoints != nil {
			dst[i].BulletPoints = append([]string{}, slide.BulletPoints...)
		}
	}
	return dst
}
