package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collectionPitches = "pitches"

// Firestore implements Repository using Cloud Firestore.
// ListRecords needs a composite index on (UserID asc, CreatedAt desc).
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) CreateRecord(ctx context.Context, record *model.PitchRecord) (*model.PitchRecord, error) {
	stored := *record
	if stored.ID == "" {
		stored.ID = model.NewRecordID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	// Create fails if the document already exists; records are immutable
	if _, err := r.client.Collection(collectionPitches).Doc(string(stored.ID)).Create(ctx, &stored); err != nil {
		return nil, goerr.Wrap(err, "failed to create pitch record", goerr.V("record_id", stored.ID))
	}

	return &stored, nil
}

func (r *Firestore) GetRecord(ctx context.Context, id model.RecordID) (*model.PitchRecord, error) {
	doc, err := r.client.Collection(collectionPitches).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrRecordNotFound, "pitch record not found", goerr.V("record_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get pitch record", goerr.V("record_id", id))
	}

	var record model.PitchRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, goerr.Wrap(err, "failed to decode pitch record", goerr.V("record_id", id))
	}

	return &record, nil
}

func (r *Firestore) ListRecords(ctx context.Context, userID model.UserID, limit int) ([]*model.PitchRecord, error) {
	if limit <= 0 {
		limit = model.HistoryLimit
	}

	iter := r.client.Collection(collectionPitches).
		Where("UserID", "==", string(userID)).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.PitchRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate pitch records", goerr.V("user_id", userID))
		}

		var record model.PitchRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode pitch record", goerr.V("doc_id", doc.Ref.ID))
		}
		records = append(records, &record)
	}

	return records, nil
}
