package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civic-resolve/civic-resolve-api/models"
)

const notificationName = "notifications"

// NotificationDatabase contains the methods to use with the notification collection
type NotificationDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	DeleteByComplaintID(ctx context.Context, complaintID primitive.ObjectID) (int64, error)
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

func (c *notificationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Notification, error) {
	var notifications []models.Notification
	curr, err := c.db.Collection(notificationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &notifications)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *notificationDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(notificationName).InsertOne(ctx, document, opts...)
}

func (c *notificationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(notificationName).UpdateOne(ctx, filter, update, opts...)
}

// UpdateMany is used to mark every unread notification of a user as read
func (c *notificationDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	return c.db.Collection(notificationName).UpdateMany(ctx, filter, update)
}

func (c *notificationDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(notificationName).CountDocuments(ctx, filter, opts...)
}

func (c *notificationDatabase) DeleteByComplaintID(ctx context.Context, complaintID primitive.ObjectID) (int64, error) {
	return c.db.Collection(notificationName).DeleteMany(ctx, bson.M{"complaintId": complaintID})
}
