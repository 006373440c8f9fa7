package databases

// go generate: mockery --name StatusUpdateDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civic-resolve/civic-resolve-api/models"
)

const statusUpdateName = "statusUpdates"

// StatusUpdateDatabase contains the methods to use with the status update
// ledger. The ledger is append-only: entries are inserted once and removed
// only when their complaint is deleted.
type StatusUpdateDatabase interface {
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (interface{}, error)
	GetHistory(ctx context.Context, complaintID primitive.ObjectID) ([]models.StatusUpdateWithUser, error)
	DeleteByComplaintID(ctx context.Context, complaintID primitive.ObjectID) (int64, error)
}

type statusUpdateDatabase struct {
	db DatabaseHelper
}

// NewStatusUpdateDatabase initializes a new instance of status update database with the provided db connection
func NewStatusUpdateDatabase(db DatabaseHelper) StatusUpdateDatabase {
	return &statusUpdateDatabase{
		db: db,
	}
}

func (c *statusUpdateDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(statusUpdateName).InsertOne(ctx, document, opts...)
}

// GetHistory returns all ledger entries for a complaint, newest first, each
// joined with the display fields of the updating principal. A complaint
// with no entries yields an empty slice, not an error.
func (c *statusUpdateDatabase) GetHistory(ctx context.Context, complaintID primitive.ObjectID) ([]models.StatusUpdateWithUser, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"complaintId": complaintID}},
		{"$sort": bson.M{"createdAt": -1}},
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   "updatedBy",
			"foreignField": "_id",
			"as":           "updatedByUser",
		}},
		{"$unwind": bson.M{"path": "$updatedByUser", "preserveNullAndEmptyArrays": true}},
		{"$project": bson.M{
			"updatedByUser.password": 0,
		}},
	}

	curr, err := c.db.Collection(statusUpdateName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var history []models.StatusUpdateWithUser
	if err := curr.All(ctx, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *statusUpdateDatabase) DeleteByComplaintID(ctx context.Context, complaintID primitive.ObjectID) (int64, error) {
	return c.db.Collection(statusUpdateName).DeleteMany(ctx, bson.M{"complaintId": complaintID})
}
