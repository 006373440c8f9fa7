package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civic-resolve/civic-resolve-api/config"
	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

func TestNewComplaintDatabase(t *testing.T) {
	_ = os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	_ = os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	complaintDB := databases.NewComplaintDatabase(db)
	assert.NotEmpty(t, complaintDB)
}

func TestComplaintDatabaseFindOne(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)
	singleResult := new(mocks.SingleResultHelper)

	cID := primitive.NewObjectID()
	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("FindOne", mock.Anything, bson.M{"_id": cID}).Return(singleResult)
	singleResult.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		c := args.Get(0).(**models.Complaint)
		(*c).ID = cID
		(*c).ComplaintID = "CMP-202608-0009"
	})

	db := databases.NewComplaintDatabase(dbHelper)
	complaint, err := db.FindOne(context.Background(), bson.M{"_id": cID})

	assert.NoError(t, err)
	assert.Equal(t, "CMP-202608-0009", complaint.ComplaintID)
}

func TestComplaintDatabaseFindOneDecodeError(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)
	singleResult := new(mocks.SingleResultHelper)

	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("FindOne", mock.Anything, mock.Anything).Return(singleResult)
	singleResult.On("Decode", mock.Anything).Return(errors.New("mocked-error"))

	db := databases.NewComplaintDatabase(dbHelper)
	complaint, err := db.FindOne(context.Background(), bson.M{})

	assert.EqualError(t, err, "mocked-error")
	assert.Nil(t, complaint)
}

func TestComplaintDatabaseUpdateVersioned(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)

	complaint := &models.Complaint{ID: primitive.NewObjectID(), Version: 7}
	update := bson.M{"$set": bson.M{"status": models.StatusClosed}}

	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("UpdateOne", mock.Anything, bson.M{"_id": complaint.ID, "__v": int32(7)}, update).Return(int64(1), nil)

	db := databases.NewComplaintDatabase(dbHelper)
	ok, err := db.UpdateVersioned(context.Background(), complaint, update)

	assert.NoError(t, err)
	assert.True(t, ok)
	collection.AssertExpectations(t)
}

func TestComplaintDatabaseUpdateVersionedStaleVersion(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)

	complaint := &models.Complaint{ID: primitive.NewObjectID(), Version: 2}

	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	db := databases.NewComplaintDatabase(dbHelper)
	ok, err := db.UpdateVersioned(context.Background(), complaint, bson.M{})

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestComplaintDatabaseFind(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)
	cursor := new(mocks.CursorHelper)

	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("Find", mock.Anything, bson.M{"status": models.StatusPending}).Return(cursor, nil)
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		results := args.Get(1).(*[]models.Complaint)
		*results = []models.Complaint{{ComplaintID: "CMP-202608-0001"}}
	})
	cursor.On("Close", mock.Anything).Return(nil)

	db := databases.NewComplaintDatabase(dbHelper)
	complaints, err := db.Find(context.Background(), bson.M{"status": models.StatusPending})

	assert.NoError(t, err)
	assert.Len(t, complaints, 1)
	cursor.AssertExpectations(t)
}

func TestComplaintDatabaseAggregate(t *testing.T) {
	dbHelper := new(mocks.DatabaseHelper)
	collection := new(mocks.CollectionHelper)
	cursor := new(mocks.CursorHelper)

	pipeline := []bson.M{{"$match": bson.M{}}}
	dbHelper.On("Collection", "complaints").Return(collection)
	collection.On("Aggregate", mock.Anything, pipeline).Return(cursor, nil)
	cursor.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		results := args.Get(1).(*[]models.Overview)
		*results = []models.Overview{{Total: 3}}
	})
	cursor.On("Close", mock.Anything).Return(nil)

	db := databases.NewComplaintDatabase(dbHelper)
	var overview []models.Overview
	err := db.Aggregate(context.Background(), pipeline, &overview)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), overview[0].Total)
}
