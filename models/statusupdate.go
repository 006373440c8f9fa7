package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// StatusUpdate holds the structure for the statusUpdates collection in
// mongo. Entries are append-only and are removed only when their complaint
// is deleted.
type StatusUpdate struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ComplaintID    primitive.ObjectID `json:"complaintId" bson:"complaintId"`
	Status         Status             `json:"status" bson:"status"`
	PreviousStatus *Status            `json:"previousStatus" bson:"previousStatus"`
	Comment        string             `json:"comment" bson:"comment"`
	UpdatedBy      primitive.ObjectID `json:"updatedBy" bson:"updatedBy"`
	Images         []Image            `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt      primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// StatusUpdateWithUser is a history entry joined with the display fields of
// the principal that made the update
type StatusUpdateWithUser struct {
	StatusUpdate `bson:",inline"`
	UpdatedByUser UserProfile `json:"updatedByUser" bson:"updatedByUser"`
}
