package studio

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
)

// RefreshHistory fetches the most recent records of the signed in user
func (s *Studio) RefreshHistory(ctx context.Context) {
	s.loadHistory(ctx)
}

// loadHistory replaces the history with the newest records. Failures are logged and leave an
// empty history. Only the latest issued fetch is applied.
func (s *Studio) loadHistory(ctx context.Context) {
	s.mu.Lock()
	user := s.currentUser()
	if user == nil {
		s.mu.Unlock()
		return
	}
	s.historySeq++
	seq := s.historySeq
	s.mu.Unlock()

	records, err := s.records.ListRecords(ctx, user.ID, model.HistoryLimit)
	if err != nil {
		logging.From(ctx).Warn("failed to load pitch history", "user_id", user.ID, logging.ErrAttr(err))
		records = nil
	}
	if len(records) > model.HistoryLimit {
		records = records[:model.HistoryLimit]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.historySeq {
		logging.From(ctx).Debug("discard outdated history fetch", "seq", seq, "latest", s.historySeq)
		return
	}
	s.state.History = records
}

// SelectHistory restores the request and slides of a held history entry and shows the deck.
// No remote call is made.
func (s *Studio) SelectHistory(id model.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var record *model.PitchRecord
	for _, r := range s.state.History {
		if r.ID == id {
			record = r
			break
		}
	}
	if record == nil {
		return goerr.Wrap(model.ErrRecordNotFound, "record is not in history", goerr.V("record_id", id))
	}

	req, slides, err := record.Decode()
	if err != nil {
		return err
	}

	s.epoch++
	s.state.View = model.ViewDeck
	s.state.Request = req
	s.state.Draft = req
	s.state.Slides = slides
	s.state.Selected = record.ID
	s.state.Notice = nil
	return nil
}

// SelectHistoryAt selects the n-th history entry, counted from 1
func (s *Studio) SelectHistoryAt(n int) error {
	s.mu.Lock()
	if n < 1 || n > len(s.state.History) {
		size := len(s.state.History)
		s.mu.Unlock()
		return goerr.Wrap(model.ErrRecordNotFound, "history index out of range", goerr.V("index", n), goerr.V("size", size))
	}
	id := s.state.History[n-1].ID
	s.mu.Unlock()

	return s.SelectHistory(id)
}
