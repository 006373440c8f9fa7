package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civic-resolve/civic-resolve-api/api/handlers"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

func TestNotification_ListNotificationsHandler(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.NotificationHandler{DB: ndb}
	me := primitive.NewObjectID()

	ndb.On("Find", mock.Anything, bson.M{"userId": me}, mock.Anything).Return([]models.Notification{
		{UserID: me, Title: "Complaint Status Updated"},
		{UserID: me, Title: "New Complaint Assigned", IsRead: true},
	}, nil)
	ndb.On("CountDocuments", mock.Anything, bson.M{"userId": me}).Return(int64(2), nil)
	ndb.On("CountDocuments", mock.Anything, bson.M{"userId": me, "isRead": false}).Return(int64(1), nil)

	req := httptest.NewRequest("GET", "/api/v1/notifications", nil)
	req = asPrincipal(req, me, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.ListNotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unreadCount"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Notifications, 2)
	assert.Equal(t, int64(1), resp.UnreadCount)
}

func TestNotification_ListNotificationsHandlerEmpty(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.NotificationHandler{DB: ndb}
	me := primitive.NewObjectID()

	ndb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	ndb.On("CountDocuments", mock.Anything, bson.M{"userId": me}).Return(int64(0), nil)
	ndb.On("CountDocuments", mock.Anything, bson.M{"userId": me, "isRead": false}).Return(int64(0), nil)

	req := httptest.NewRequest("GET", "/api/v1/notifications", nil)
	req = asPrincipal(req, me, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.ListNotificationsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Notifications)
	assert.Empty(t, resp.Notifications)
}

func TestNotification_MarkReadHandler(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.NotificationHandler{DB: ndb}
	me := primitive.NewObjectID()
	nID := primitive.NewObjectID()

	ndb.On("UpdateOne", mock.Anything, bson.M{"_id": nID, "userId": me}, mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest("PUT", "/api/v1/notifications/"+nID.Hex()+"/read", nil)
	req = mux.SetURLVars(req, map[string]string{"notification_id": nID.Hex()})
	req = asPrincipal(req, me, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"message": "notification marked as read"}`, rr.Body.String())
}

func TestNotification_MarkReadHandlerNotOwner(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.NotificationHandler{DB: ndb}
	nID := primitive.NewObjectID()

	// owner-scoped filter matches nothing for someone else's notification
	ndb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	req := httptest.NewRequest("PUT", "/api/v1/notifications/"+nID.Hex()+"/read", nil)
	req = mux.SetURLVars(req, map[string]string{"notification_id": nID.Hex()})
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNotification_MarkAllReadHandler(t *testing.T) {
	ndb := new(mocksdb.NotificationDatabase)
	n := handlers.NotificationHandler{DB: ndb}
	me := primitive.NewObjectID()

	ndb.On("UpdateMany", mock.Anything, bson.M{"userId": me, "isRead": false}, mock.Anything).Return(int64(3), nil)

	req := httptest.NewRequest("PUT", "/api/v1/notifications/read-all", nil)
	req = asPrincipal(req, me, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(n.MarkAllReadHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"modified": 3}`, rr.Body.String())
}
