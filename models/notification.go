package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NotificationType represents the kind of a notification
type NotificationType string

// Predefined NotificationType values
const (
	NotificationStatusUpdate NotificationType = "status_update"
	NotificationAssignment   NotificationType = "assignment"
	NotificationSystem       NotificationType = "system"
)

// Notification holds the structure for the notifications collection in mongo
type Notification struct {
	ID                primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"userId" bson:"userId"`
	Type              NotificationType    `json:"type" bson:"type"`
	Title             string              `json:"title" bson:"title"`
	Message           string              `json:"message" bson:"message"`
	ComplaintID       *primitive.ObjectID `json:"complaintId" bson:"complaintId"`
	ComplaintIDString string              `json:"complaintIdString" bson:"complaintIdString"`
	ActionURL         string              `json:"actionUrl" bson:"actionUrl"`
	IsRead            bool                `json:"isRead" bson:"isRead"`
	ReadAt            *primitive.DateTime `json:"readAt" bson:"readAt"`
	CreatedAt         primitive.DateTime  `json:"createdAt" bson:"createdAt"`
}
