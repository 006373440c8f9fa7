package databases

// go generate: mockery --name BlobCleanupDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civic-resolve/civic-resolve-api/models"
)

const blobCleanupName = "blobCleanup"

// BlobCleanupDatabase contains the methods for the queued blob deletion
// retries processed by the scheduler
type BlobCleanupDatabase interface {
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (interface{}, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.BlobCleanup, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	RecordFailure(ctx context.Context, id primitive.ObjectID, lastError string) error
}

type blobCleanupDatabase struct {
	db DatabaseHelper
}

// NewBlobCleanupDatabase initializes a new instance of blob cleanup database with the provided db connection
func NewBlobCleanupDatabase(db DatabaseHelper) BlobCleanupDatabase {
	return &blobCleanupDatabase{
		db: db,
	}
}

func (c *blobCleanupDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(blobCleanupName).InsertOne(ctx, document, opts...)
}

func (c *blobCleanupDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.BlobCleanup, error) {
	var entries []models.BlobCleanup
	curr, err := c.db.Collection(blobCleanupName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *blobCleanupDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return c.db.Collection(blobCleanupName).DeleteOne(ctx, filter, opts...)
}

// RecordFailure bumps the attempt counter after a failed retry
func (c *blobCleanupDatabase) RecordFailure(ctx context.Context, id primitive.ObjectID, lastError string) error {
	_, err := c.db.Collection(blobCleanupName).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"attempts": 1}, "$set": bson.M{"lastError": lastError}},
	)
	return err
}
