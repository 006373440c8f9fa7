package handlers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civic-resolve/civic-resolve-api/api/handlers"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

func TestNotifier_EmitPersistsNotification(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.Notifier{NDB: ndb, BaseURL: "https://civic-resolve.org"}

	userID := primitive.NewObjectID()
	complaintID := primitive.NewObjectID()

	var inserted models.Notification
	ndb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Notification")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Notification)
		}).
		Return(nil, nil)

	n.Emit(handlers.Notice{
		UserID:      userID,
		Type:        models.NotificationStatusUpdate,
		Title:       "Complaint Status Updated",
		Message:     "Your complaint CMP-2026-00042 is now in progress",
		ComplaintID: complaintID,
		HumanID:     "CMP-2026-00042",
	})

	ndb.AssertNumberOfCalls(t, "InsertOne", 1)
	assert.Equal(t, userID, inserted.UserID)
	assert.Equal(t, models.NotificationStatusUpdate, inserted.Type)
	assert.Equal(t, "Complaint Status Updated", inserted.Title)
	assert.Equal(t, "Your complaint CMP-2026-00042 is now in progress", inserted.Message)
	assert.False(t, inserted.IsRead)
	if assert.NotNil(t, inserted.ComplaintID) {
		assert.Equal(t, complaintID, *inserted.ComplaintID)
	}
	assert.Equal(t, "CMP-2026-00042", inserted.ComplaintIDString)
	assert.Equal(t, "https://civic-resolve.org/complaints/CMP-2026-00042", inserted.ActionURL)
	assert.False(t, inserted.ID.IsZero())
	assert.NotZero(t, inserted.CreatedAt)
}

func TestNotifier_EmitSurvivesInsertError(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.Notifier{NDB: ndb}

	ndb.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Notification")).
		Return(nil, errors.New("mocked-error"))

	assert.NotPanics(t, func() {
		n.Emit(handlers.Notice{
			UserID:      primitive.NewObjectID(),
			Type:        models.NotificationAssignment,
			Title:       "New Complaint Assigned",
			ComplaintID: primitive.NewObjectID(),
		})
	})
	ndb.AssertNumberOfCalls(t, "InsertOne", 1)
}
