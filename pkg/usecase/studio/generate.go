package studio

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/usecase/pitch"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
)

// Generate submits req and moves to the deck on success. An incomplete request and a concurrent
// submission are rejected without a remote call. On failure the view stays as it was and an
// error notice is set.
func (s *Studio) Generate(ctx context.Context, req model.PitchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.IsGenerating {
		s.mu.Unlock()
		return goerr.Wrap(ErrGenerationInProgress, "rejected submission", goerr.V("startup_name", req.StartupName))
	}
	s.state.IsGenerating = true
	s.state.Draft = req
	s.state.Notice = nil
	s.epoch++
	token := s.epoch
	user := s.currentUser()
	s.mu.Unlock()

	var userID model.UserID
	if user != nil {
		userID = user.ID
	}

	result, err := s.builder.Generate(ctx, req, userID)

	s.mu.Lock()
	s.state.IsGenerating = false
	current := token == s.epoch

	if err != nil {
		if current {
			s.state.Notice = &model.Notice{Level: model.NoticeError, Message: msgGenerationFailed}
		}
		s.mu.Unlock()
		logging.From(ctx).Warn("failed to generate pitch deck", "startup_name", req.StartupName, logging.ErrAttr(err))
		return err
	}

	if current {
		s.state.View = model.ViewDeck
		s.state.Request = req
		s.state.Slides = result.Slides
		s.state.Selected = ""
		s.state.Notice = &model.Notice{Level: model.NoticeSuccess, Message: msgGenerated}
	}
	s.mu.Unlock()

	if user != nil {
		s.save(ctx, user, req, result)
		s.loadHistory(ctx)
	}

	if !current {
		logging.From(ctx).Info("generation result superseded, not displayed", "startup_name", req.StartupName)
		return goerr.Wrap(ErrResultDiscarded, "view moved on during generation", goerr.V("startup_name", req.StartupName))
	}
	return nil
}

// save persists the generated deck for user. Failures are logged only.
func (s *Studio) save(ctx context.Context, user *model.User, req model.PitchRequest, result *pitch.Result) {
	record, err := model.NewPitchRecord(user.ID, req, result.Slides)
	if err != nil {
		logging.From(ctx).Warn("failed to build pitch record", logging.ErrAttr(err))
		return
	}

	created, err := s.records.CreateRecord(ctx, record)
	if err != nil {
		logging.From(ctx).Warn("failed to save pitch record", "user_id", user.ID, logging.ErrAttr(err))
		return
	}
	logging.From(ctx).Info("pitch record saved", "record_id", created.ID, "user_id", user.ID)

	if s.archive == nil || len(result.Raw) == 0 {
		return
	}
	if err := s.archive.Put(ctx, ArchiveKey(created.ID), result.Raw); err != nil {
		logging.From(ctx).Warn("failed to archive raw deck", "record_id", created.ID, logging.ErrAttr(err))
	}
}

// NewPitch returns to the intake form with an empty draft. History is kept and refreshed.
func (s *Studio) NewPitch(ctx context.Context) error {
	return s.backToIntake(ctx, false)
}

// Regenerate returns to the intake form with the current request as draft
func (s *Studio) Regenerate(ctx context.Context) error {
	return s.backToIntake(ctx, true)
}

func (s *Studio) backToIntake(ctx context.Context, keepDraft bool) error {
	s.mu.Lock()
	if s.currentUser() == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	s.epoch++
	s.state.View = model.ViewIntake
	if keepDraft {
		s.state.Draft = s.state.Request
	} else {
		s.state.Draft = model.PitchRequest{}
	}
	s.state.Request = model.PitchRequest{}
	s.state.Slides = nil
	s.state.Selected = ""
	s.state.Notice = nil
	s.mu.Unlock()

	s.loadHistory(ctx)
	return nil
}

// ArchiveKey is the storage key of the raw generation output of a saved record
func ArchiveKey(id model.RecordID) string {
	return string(id) + ".json"
}
