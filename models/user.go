package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role represents the capability level of a principal
type Role string

// Predefined Role values
const (
	RoleCitizen    Role = "citizen"
	RoleOfficer    Role = "officer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ValidRoles returns all valid Role values
func ValidRoles() []Role {
	return []Role{RoleCitizen, RoleOfficer, RoleAdmin, RoleSuperAdmin}
}

// IsValid checks if the Role value is one of the predefined constants
func (r Role) IsValid() bool {
	for _, valid := range ValidRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role can triage complaints
func (r Role) IsStaff() bool {
	return r == RoleOfficer || r == RoleAdmin || r == RoleSuperAdmin
}

// IsAdmin reports whether the role can assign and delete complaints
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User holds the structure for the user collection in mongo
type User struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"`
	Phone      string             `json:"phone" bson:"phone"`
	Role       Role               `json:"role" bson:"role"`
	Department string             `json:"department" bson:"department"`
	Avatar     string             `json:"avatar" bson:"avatar"`
	Address    string             `json:"address" bson:"address"`
	IsActive   bool               `json:"isActive" bson:"isActive"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt  primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// UserProfile is the public projection of a user document
type UserProfile struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Role       Role               `json:"role" bson:"role"`
	Department string             `json:"department,omitempty" bson:"department,omitempty"`
	Avatar     string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// Profile returns the public projection of the user
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Avatar:     u.Avatar,
	}
}

// Principal is the authenticated actor attached to a request context.
// Inactive users never become principals; they are rejected in the
// middleware before any handler runs.
type Principal struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  Role               `json:"role"`
}
