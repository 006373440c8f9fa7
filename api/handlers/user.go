package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/civic-resolve/civic-resolve-api/api"
	"github.com/civic-resolve/civic-resolve-api/config"
	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// User exported for testing purposes
type User struct {
	DB  databases.UserDatabase
	CDB databases.ComplaintDatabase
}

// userSortFields whitelists the sortable user fields
var userSortFields = map[string]string{
	"createdAt": "createdAt",
	"name":      "name",
	"email":     "email",
	"role":      "role",
}

type userWithStats struct {
	models.User
	ComplaintCount int64 `json:"complaintCount"`
}

type userListResponse struct {
	Users      []userWithStats   `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

// ListUsersHandler returns users with role/active/search filters and each
// user's complaint count
func (u User) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bson.M{}

	if role := q.Get("role"); role != "" && role != "all" {
		filter["role"] = role
	}
	if isActive := q.Get("isActive"); isActive != "" {
		filter["isActive"] = isActive == "true"
	}
	if search := q.Get("search"); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = []bson.M{
			{"name": pattern},
			{"email": pattern},
		}
	}

	sortField, ok := userSortFields[q.Get("sortBy")]
	if !ok {
		sortField = "createdAt"
	}
	sortOrder := -1
	if q.Get("order") == "asc" {
		sortOrder = 1
	}

	page, limit := getPageAndLimit(r)
	skip := (page - 1) * limit

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit).
		SetSkip(skip).
		SetSort(bson.D{{Key: sortField, Value: sortOrder}})

	users, err := u.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
		return
	}

	withStats := make([]userWithStats, 0, len(users))
	for _, user := range users {
		count, err := u.CDB.CountDocuments(ctx, bson.M{"reportedBy": user.ID})
		if err != nil {
			zap.S().Errorw("failed to count complaints for user", "userId", user.ID.Hex(), "error", err)
		}
		withStats = append(withStats, userWithStats{User: user, ComplaintCount: count})
	}

	total, err := u.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(userListResponse{
		Users: withStats,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type createUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// CreateUserHandler creates a user with any role. Admin surface; citizen
// self-signup goes through /auth/register instead.
func (u User) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validateNewUser(req.Name, req.Email, req.Password); err != nil {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, err)
		return
	}
	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleCitizen
	}
	if !role.IsValid() {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid role %q", req.Role))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := u.DB.FindOne(ctx, bson.M{"email": email}); err == nil {
		config.ErrorStatus("user already exists with this email", http.StatusBadRequest, w, fmt.Errorf("duplicate email"))
		return
	} else if err != mongo.ErrNoDocuments {
		config.ErrorStatus("failed to check existing user", http.StatusInternalServerError, w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	user := models.User{
		ID:         primitive.NewObjectID(),
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Password:   string(hash),
		Phone:      req.Phone,
		Role:       role,
		Department: req.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(user.Profile())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

func validateNewUser(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

type updateUserRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"isActive"`
	Address    *string `json:"address"`
}

// UpdateUserHandler patches user fields. Absent fields are left untouched.
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	uID, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": primitive.NewDateTimeFromTime(time.Now())}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.Role != nil {
		if !models.Role(*req.Role).IsValid() {
			config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid role %q", *req.Role))
			return
		}
		set["role"] = *req.Role
	}
	if req.Department != nil {
		set["department"] = *req.Department
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.Address != nil {
		set["address"] = *req.Address
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := u.DB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("user not found", http.StatusNotFound, w, fmt.Errorf("no user with id %s", uID.Hex()))
		return
	}

	user, err := u.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("failed to get user", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(user.Profile())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteUserHandler removes a user account. Deleting your own account is
// rejected.
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := api.PrincipalFromContext(r.Context())

	uID, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	if uID == principal.ID {
		config.ErrorStatus("cannot delete your own account", http.StatusBadRequest, w, fmt.Errorf("self-delete rejected for %s", uID.Hex()))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.FindOne(ctx, bson.M{"_id": uID}); err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}
	if err := u.DB.DeleteOne(ctx, bson.M{"_id": uID}); err != nil {
		config.ErrorStatus("failed to delete user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "user deleted successfully"}`))
}

// OfficersHandler returns the active officers and admins, sorted by name.
// Used as the assignment picklist.
func (u User) OfficersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officers, err := u.DB.Find(ctx,
		bson.M{
			"role":     bson.M{"$in": []models.Role{models.RoleOfficer, models.RoleAdmin}},
			"isActive": true,
		},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		config.ErrorStatus("failed to get officers", http.StatusInternalServerError, w, err)
		return
	}

	profiles := make([]models.UserProfile, 0, len(officers))
	for _, officer := range officers {
		profiles = append(profiles, officer.Profile())
	}

	b, err := json.Marshal(profiles)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type toggleStatusResponse struct {
	ID       string `json:"id"`
	IsActive bool   `json:"isActive"`
}

// ToggleUserStatusHandler flips a user's active flag. Changing your own
// status is rejected; a deactivated user's tokens stop working on their
// next request.
func (u User) ToggleUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := api.PrincipalFromContext(r.Context())

	uID, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}
	if uID == principal.ID {
		config.ErrorStatus("cannot change your own status", http.StatusBadRequest, w, fmt.Errorf("self-toggle rejected for %s", uID.Hex()))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		config.ErrorStatus("user not found", http.StatusNotFound, w, err)
		return
	}

	newActive := !user.IsActive
	_, err = u.DB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$set": bson.M{
		"isActive":  newActive,
		"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
	}})
	if err != nil {
		config.ErrorStatus("failed to update user status", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(toggleStatusResponse{ID: uID.Hex(), IsActive: newActive})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
