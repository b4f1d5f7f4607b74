package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// Industry is the constant label stored on every record
const Industry = "STARTZEN AI"

// HistoryLimit is the maximum number of records held for the history view
const HistoryLimit = 10

var ErrRecordNotFound = goerr.New("pitch record not found")

type RecordID string

// NewRecordID generates a new unique RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

// PitchRecord is a persisted deck together with the request that produced it.
// Details and Slides hold JSON documents; records are never mutated after creation.
type PitchRecord struct {
	ID          RecordID
	UserID      UserID
	StartupName string
	Industry    string
	Details     string
	Slides      string
	CreatedAt   time.Time
}

// NewPitchRecord serializes a request and its generated slides into a record owned by userID.
// ID and CreatedAt are assigned by the repository on creation.
func NewPitchRecord(userID UserID, req PitchRequest, slides []Slide) (*PitchRecord, error) {
	details, err := json.Marshal(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal pitch request")
	}
	if slides == nil {
		slides = []Slide{}
	}
	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal slides")
	}

	return &PitchRecord{
		UserID:      userID,
		StartupName: req.StartupName,
		Industry:    Industry,
		Details:     string(details),
		Slides:      string(slidesJSON),
	}, nil
}

// Decode restores the original request and slide sequence
func (r *PitchRecord) Decode() (PitchRequest, []Slide, error) {
	var req PitchRequest
	if err := json.Unmarshal([]byte(r.Details), &req); err != nil {
		return PitchRequest{}, nil, goerr.Wrap(err, "failed to unmarshal record details", goerr.V("record_id", r.ID))
	}

	var slides []Slide
	if err := json.Unmarshal([]byte(r.Slides), &slides); err != nil {
		return PitchRequest{}, nil, goerr.Wrap(err, "failed to unmarshal record slides", goerr.V("record_id", r.ID))
	}

	return req, slides, nil
}
