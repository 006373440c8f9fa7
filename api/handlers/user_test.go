package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/civic-resolve/civic-resolve-api/api/handlers"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

func TestUser_ListUsersHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	cdb := new(mocksdb.ComplaintDatabase)
	u := handlers.User{DB: udb, CDB: cdb}

	reporter := primitive.NewObjectID()
	udb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.User{
		{ID: reporter, Name: "Asha Kulkarni", Email: "asha@example.com", Role: models.RoleCitizen, IsActive: true},
	}, nil)
	udb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	cdb.On("CountDocuments", mock.Anything, bson.M{"reportedBy": reporter}).Return(int64(4), nil)

	req := httptest.NewRequest("GET", "/api/v1/users?role=citizen", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ListUsersHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Users []struct {
			Name           string `json:"name"`
			ComplaintCount int64  `json:"complaintCount"`
		} `json:"users"`
		Pagination models.Pagination `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 1)
	assert.Equal(t, int64(4), resp.Users[0].ComplaintCount)
	assert.Equal(t, int64(1), resp.Pagination.Total)
}

func TestUser_CreateUserHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}

	udb.On("FindOne", mock.Anything, bson.M{"email": "new.officer@example.com"}).Return(nil, mongo.ErrNoDocuments)

	var inserted models.User
	udb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.User)
	})

	body, _ := json.Marshal(map[string]string{
		"name":       "New Officer",
		"email":      "New.Officer@Example.com",
		"password":   "sekrit99",
		"role":       "officer",
		"department": "Water Works",
	})
	req := httptest.NewRequest("POST", "/api/v1/users", bytes.NewReader(body))
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	// email is stored lowercased and the password never in the clear
	assert.Equal(t, "new.officer@example.com", inserted.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Password), []byte("sekrit99")))
	assert.Equal(t, models.RoleOfficer, inserted.Role)
	assert.True(t, inserted.IsActive)

	var resp models.UserProfile
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "New Officer", resp.Name)
}

func TestUser_CreateUserHandlerDuplicateEmail(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}

	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{}, nil)

	body, _ := json.Marshal(map[string]string{
		"name":     "Dup",
		"email":    "taken@example.com",
		"password": "sekrit99",
	})
	req := httptest.NewRequest("POST", "/api/v1/users", bytes.NewReader(body))
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_CreateUserHandlerShortPassword(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}

	body, _ := json.Marshal(map[string]string{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "abc",
	})
	req := httptest.NewRequest("POST", "/api/v1/users", bytes.NewReader(body))
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_UpdateUserHandlerPartial(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}
	uID := primitive.NewObjectID()

	var captured bson.M
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": uID}, mock.Anything).
		Return(int64(1), nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(bson.M)["$set"].(bson.M)
		})
	udb.On("FindOne", mock.Anything, bson.M{"_id": uID}).Return(&models.User{
		ID:   uID,
		Name: "Renamed",
		Role: models.RoleOfficer,
	}, nil)

	body, _ := json.Marshal(map[string]string{"name": "Renamed"})
	req := httptest.NewRequest("PUT", "/api/v1/users/"+uID.Hex(), bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"user_id": uID.Hex()})
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// only the provided field lands in $set
	assert.Equal(t, "Renamed", captured["name"])
	_, hasRole := captured["role"]
	assert.False(t, hasRole)
}

func TestUser_DeleteUserHandlerRejectsSelf(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}
	admin := primitive.NewObjectID()

	req := httptest.NewRequest("DELETE", "/api/v1/users/"+admin.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": admin.Hex()})
	req = asPrincipal(req, admin, models.RoleSuperAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestUser_DeleteUserHandlerNotFound(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}
	uID := primitive.NewObjectID()

	udb.On("FindOne", mock.Anything, bson.M{"_id": uID}).Return(nil, mongo.ErrNoDocuments)

	req := httptest.NewRequest("DELETE", "/api/v1/users/"+uID.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": uID.Hex()})
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.DeleteUserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUser_OfficersHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}

	var captured bson.M
	udb.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.User{
			{Name: "Officer Rao", Role: models.RoleOfficer},
			{Name: "Admin Iyer", Role: models.RoleAdmin},
		}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(bson.M)
		})

	req := httptest.NewRequest("GET", "/api/v1/users/officers", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleOfficer)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.OfficersHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, captured["isActive"])

	var resp []models.UserProfile
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestUser_ToggleUserStatusHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}
	uID := primitive.NewObjectID()

	udb.On("FindOne", mock.Anything, bson.M{"_id": uID}).Return(&models.User{
		ID:       uID,
		IsActive: true,
	}, nil)
	udb.On("UpdateOne", mock.Anything, bson.M{"_id": uID}, mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest("PUT", "/api/v1/users/"+uID.Hex()+"/toggle-status", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": uID.Hex()})
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ToggleUserStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		IsActive bool `json:"isActive"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.IsActive)
}

func TestUser_ToggleUserStatusHandlerRejectsSelf(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	u := handlers.User{DB: udb, CDB: new(mocksdb.ComplaintDatabase)}
	admin := primitive.NewObjectID()

	req := httptest.NewRequest("PUT", "/api/v1/users/"+admin.Hex()+"/toggle-status", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": admin.Hex()})
	req = asPrincipal(req, admin, models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.ToggleUserStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	udb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
