package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/civic-resolve/civic-resolve-api/blobstore"
	"github.com/civic-resolve/civic-resolve-api/databases"
)

// maxCleanupAttempts is the cap before a queued blob deletion is abandoned.
// Entries past the cap are logged and removed so the queue cannot grow
// without bound on a permanently broken blob.
const maxCleanupAttempts = 10

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	CleanupDB  databases.BlobCleanupDatabase
	Blobs      blobstore.Store
	instanceID string
}

// New creates a new scheduler instance
func New(cleanupDB databases.BlobCleanupDatabase, blobs blobstore.Store) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CleanupDB:  cleanupDB,
		Blobs:      blobs,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Retry failed blob deletions every 15 minutes
	_, err := s.cron.AddFunc("*/15 * * * *", s.retryBlobCleanup)
	if err != nil {
		zap.S().Errorw("failed to register blob cleanup job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Blob cleanup scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Blob cleanup scheduler stopped")
}

// retryBlobCleanup drains the queue of blob deletions that failed during
// complaint removal. Each entry is retried once per run; successes leave
// the queue, failures record the attempt.
func (s *Scheduler) retryBlobCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entries, err := s.CleanupDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to load blob cleanup queue", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	zap.S().Infow("Running blob cleanup job",
		"instance", s.instanceID,
		"queued", len(entries),
	)

	deleted, failed, abandoned := 0, 0, 0
	for _, entry := range entries {
		if entry.Attempts >= maxCleanupAttempts {
			zap.S().Errorw("abandoning blob cleanup after too many attempts",
				"blobId", entry.BlobID,
				"attempts", entry.Attempts,
				"lastError", entry.LastError,
			)
			if err := s.CleanupDB.DeleteOne(ctx, bson.M{"_id": entry.ID}); err != nil {
				zap.S().Errorw("failed to drop abandoned cleanup entry", "blobId", entry.BlobID, "error", err)
			}
			abandoned++
			continue
		}

		if err := s.Blobs.Delete(ctx, entry.BlobID); err != nil {
			if recErr := s.CleanupDB.RecordFailure(ctx, entry.ID, err.Error()); recErr != nil {
				zap.S().Errorw("failed to record cleanup failure", "blobId", entry.BlobID, "error", recErr)
			}
			failed++
			continue
		}

		if err := s.CleanupDB.DeleteOne(ctx, bson.M{"_id": entry.ID}); err != nil {
			zap.S().Errorw("failed to remove completed cleanup entry", "blobId", entry.BlobID, "error", err)
		}
		deleted++
	}

	zap.S().Infow("Blob cleanup job complete",
		"deleted", deleted,
		"failed", failed,
		"abandoned", abandoned,
	)
}
