package repository

import (
	"context"

	"github.com/m-mizutani/startzen/pkg/model"
)

// Repository defines the interface for pitch record persistence
type Repository interface {
	// CreateRecord stores a new record. ID and CreatedAt are assigned when empty and the stored
	// record is returned.
	CreateRecord(ctx context.Context, record *model.PitchRecord) (*model.PitchRecord, error)

	// GetRecord retrieves a record by ID. model.ErrRecordNotFound is returned when missing.
	GetRecord(ctx context.Context, id model.RecordID) (*model.PitchRecord, error)

	// ListRecords retrieves the most recent records of a user, newest first
	ListRecords(ctx context.Context, userID model.UserID, limit int) ([]*model.PitchRecord, error)
}
