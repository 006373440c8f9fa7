package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mocksblob "github.com/civic-resolve/civic-resolve-api/blobstore/mocks"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

func newTestScheduler(cleanupDB *mocksdb.BlobCleanupDatabase, blobs *mocksblob.Store) *Scheduler {
	return &Scheduler{
		CleanupDB:  cleanupDB,
		Blobs:      blobs,
		instanceID: "test.1",
	}
}

func TestRetryBlobCleanupDrainsQueue(t *testing.T) {
	cleanupDB := new(mocksdb.BlobCleanupDatabase)
	blobs := new(mocksblob.Store)
	s := newTestScheduler(cleanupDB, blobs)

	entry := models.BlobCleanup{
		ID:       primitive.NewObjectID(),
		BlobID:   "complaints/stale",
		Attempts: 2,
	}
	cleanupDB.On("Find", mock.Anything, bson.M{}).Return([]models.BlobCleanup{entry}, nil)
	blobs.On("Delete", mock.Anything, "complaints/stale").Return(nil)
	cleanupDB.On("DeleteOne", mock.Anything, bson.M{"_id": entry.ID}).Return(nil)

	s.retryBlobCleanup()

	cleanupDB.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestRetryBlobCleanupRecordsFailure(t *testing.T) {
	cleanupDB := new(mocksdb.BlobCleanupDatabase)
	blobs := new(mocksblob.Store)
	s := newTestScheduler(cleanupDB, blobs)

	entry := models.BlobCleanup{
		ID:       primitive.NewObjectID(),
		BlobID:   "complaints/stuck",
		Attempts: 3,
	}
	cleanupDB.On("Find", mock.Anything, bson.M{}).Return([]models.BlobCleanup{entry}, nil)
	blobs.On("Delete", mock.Anything, "complaints/stuck").Return(errors.New("mocked-error"))
	cleanupDB.On("RecordFailure", mock.Anything, entry.ID, "mocked-error").Return(nil)

	s.retryBlobCleanup()

	cleanupDB.AssertExpectations(t)
	cleanupDB.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestRetryBlobCleanupAbandonsAfterCap(t *testing.T) {
	cleanupDB := new(mocksdb.BlobCleanupDatabase)
	blobs := new(mocksblob.Store)
	s := newTestScheduler(cleanupDB, blobs)

	entry := models.BlobCleanup{
		ID:        primitive.NewObjectID(),
		BlobID:    "complaints/broken",
		Attempts:  maxCleanupAttempts,
		LastError: "mocked-error",
	}
	cleanupDB.On("Find", mock.Anything, bson.M{}).Return([]models.BlobCleanup{entry}, nil)
	cleanupDB.On("DeleteOne", mock.Anything, bson.M{"_id": entry.ID}).Return(nil)

	s.retryBlobCleanup()

	// the blob is never retried once the attempt cap is reached
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	cleanupDB.AssertExpectations(t)
}

func TestRetryBlobCleanupEmptyQueue(t *testing.T) {
	cleanupDB := new(mocksdb.BlobCleanupDatabase)
	blobs := new(mocksblob.Store)
	s := newTestScheduler(cleanupDB, blobs)

	cleanupDB.On("Find", mock.Anything, bson.M{}).Return([]models.BlobCleanup{}, nil)

	s.retryBlobCleanup()

	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestNewUsesDynoAsInstanceID(t *testing.T) {
	t.Setenv("DYNO", "web.3")

	s := New(new(mocksdb.BlobCleanupDatabase), new(mocksblob.Store))
	assert.Equal(t, "web.3", s.instanceID)
}
