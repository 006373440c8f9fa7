package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// BlobCleanup is a queued best-effort deletion of an uploaded blob. Entries
// are enqueued when a blob delete fails during a complaint cascade delete
// and retried by the scheduler until they succeed or exhaust attempts.
type BlobCleanup struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BlobID    string             `json:"blobId" bson:"blobId"`
	Attempts  int                `json:"attempts" bson:"attempts"`
	LastError string             `json:"lastError" bson:"lastError"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
