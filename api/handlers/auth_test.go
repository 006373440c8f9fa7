package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/civic-resolve/civic-resolve-api/api"
	"github.com/civic-resolve/civic-resolve-api/api/handlers"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// setupAuth primes the token signing environment the way main does on boot.
func setupAuth(t *testing.T, udb *mocksdb.UserDatabase) {
	t.Setenv("JWT_SECRET", "test-secret")
	api.MiddlewareDB{DB: udb}.SetupGoGuardian()
}

func TestAuth_RegisterHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}
	setupAuth(t, udb)

	udb.On("FindOne", mock.Anything, bson.M{"email": "citizen@example.com"}).Return(nil, mongo.ErrNoDocuments)

	var inserted models.User
	udb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.User)
	})

	body, _ := json.Marshal(map[string]string{
		"name":     "First Citizen",
		"email":    "Citizen@Example.com",
		"password": "sekrit99",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	// public signup only ever creates citizens
	assert.Equal(t, models.RoleCitizen, inserted.Role)
	assert.True(t, inserted.IsActive)

	var resp struct {
		Token string             `json:"token"`
		User  models.UserProfile `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "citizen@example.com", resp.User.Email)
}

func TestAuth_RegisterHandlerDuplicateEmail(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}

	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{}, nil)

	body, _ := json.Marshal(map[string]string{
		"name":     "Dup",
		"email":    "taken@example.com",
		"password": "sekrit99",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "user already exists with this email", Error: "duplicate email"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAuth_LoginHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}
	setupAuth(t, udb)

	hash, _ := bcrypt.GenerateFromPassword([]byte("sekrit99"), bcrypt.MinCost)
	udb.On("FindOne", mock.Anything, bson.M{"email": "citizen@example.com"}).Return(&models.User{
		ID:       primitive.NewObjectID(),
		Name:     "First Citizen",
		Email:    "citizen@example.com",
		Password: string(hash),
		Role:     models.RoleCitizen,
		IsActive: true,
	}, nil)

	body, _ := json.Marshal(map[string]string{
		"email":    "citizen@example.com",
		"password": "sekrit99",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
}

func TestAuth_LoginHandlerUnknownEmail(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}

	udb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com", "password": "whatever"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_LoginHandlerWrongPassword(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		Password: string(hash),
		IsActive: true,
	}, nil)

	body, _ := json.Marshal(map[string]string{"email": "citizen@example.com", "password": "wrong"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_LoginHandlerInactiveAccount(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}

	hash, _ := bcrypt.GenerateFromPassword([]byte("sekrit99"), bcrypt.MinCost)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		Password: string(hash),
		IsActive: false,
	}, nil)

	body, _ := json.Marshal(map[string]string{"email": "citizen@example.com", "password": "sekrit99"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "account is deactivated", Error: "user 000000000000000000000000 is inactive"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestAuth_MeHandler(t *testing.T) {
	udb := new(mocksdb.UserDatabase)
	a := handlers.Auth{DB: udb}
	me := primitive.NewObjectID()

	udb.On("FindOne", mock.Anything, bson.M{"_id": me}).Return(&models.User{
		ID:    me,
		Name:  "First Citizen",
		Email: "citizen@example.com",
		Role:  models.RoleCitizen,
	}, nil)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req = asPrincipal(req, me, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.MeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.UserProfile
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, me, resp.ID)
}

func TestAuth_MeHandlerNoPrincipal(t *testing.T) {
	a := handlers.Auth{DB: new(mocksdb.UserDatabase)}

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.MeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
