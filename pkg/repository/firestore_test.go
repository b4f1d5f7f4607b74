package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestFirestoreRecords(t *testing.T) {
	repo := setupFirestore(t)
	testRepository(t, repo)
}

func TestFirestoreGetRecordNotFound(t *testing.T) {
	repo := setupFirestore(t)

	_, err := repo.GetRecord(context.Background(), model.RecordID("non-existent-record"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrRecordNotFound))
}

// testRepository runs the behavior shared by every Repository implementation
func testRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()
	userID := model.UserID("user-" + model.NewRecordID())
	otherID := model.UserID("other-" + model.NewRecordID())
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	t.Run("create assigns id and created at", func(t *testing.T) {
		rec, err := model.NewPitchRecord(userID, model.PitchRequest{StartupName: "Fresh", MainTheme: "theme"}, nil)
		gt.NoError(t, err)

		created, err := repo.CreateRecord(ctx, rec)
		gt.NoError(t, err)
		gt.V(t, created.ID).NotEqual(model.RecordID(""))
		gt.False(t, created.CreatedAt.IsZero())

		got, err := repo.GetRecord(ctx, created.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.StartupName, "Fresh")
		gt.Equal(t, got.Industry, model.Industry)
		gt.Equal(t, got.Details, rec.Details)
		gt.Equal(t, got.Slides, rec.Slides)
	})

	t.Run("list is scoped, ordered and limited", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			rec, err := model.NewPitchRecord(userID, model.PitchRequest{StartupName: "Startup", MainTheme: "theme"}, nil)
			gt.NoError(t, err)
			rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			_, err = repo.CreateRecord(ctx, rec)
			gt.NoError(t, err)
		}
		other, err := model.NewPitchRecord(otherID, model.PitchRequest{StartupName: "Other", MainTheme: "theme"}, nil)
		gt.NoError(t, err)
		_, err = repo.CreateRecord(ctx, other)
		gt.NoError(t, err)

		records, err := repo.ListRecords(ctx, userID, model.HistoryLimit)
		gt.NoError(t, err)
		gt.A(t, records).Length(model.HistoryLimit)

		for i := range records {
			gt.Equal(t, records[i].UserID, userID)
			if i > 0 && records[i].CreatedAt.After(records[i-1].CreatedAt) {
				t.Errorf("records not ordered newest first at %d: %v > %v", i, records[i].CreatedAt, records[i-1].CreatedAt)
			}
		}
	})

	t.Run("list of unknown user is empty", func(t *testing.T) {
		records, err := repo.ListRecords(ctx, model.UserID("nobody-"+model.NewRecordID()), model.HistoryLimit)
		gt.NoError(t, err)
		gt.A(t, records).Length(0)
	})
}
