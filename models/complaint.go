package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxComplaintImages is the maximum number of images attached to a complaint
const MaxComplaintImages = 5

// Status represents the lifecycle state of a complaint
type Status string

// Predefined Status values
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// ValidStatuses returns all valid Status values
func ValidStatuses() []Status {
	return []Status{
		StatusPending,
		StatusInProgress,
		StatusResolved,
		StatusClosed,
		StatusRejected,
	}
}

// IsValid checks if the Status value is one of the predefined constants.
// Any valid status may be written by an authorized officer/admin; there is
// no transition graph beyond membership in this set.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Category represents the municipal issue category of a complaint
type Category string

// Predefined Category values
const (
	CategoryPothole             Category = "pothole"
	CategoryGarbage             Category = "garbage"
	CategoryWaterLeakage        Category = "water_leakage"
	CategoryStreetLight         Category = "street_light"
	CategoryElectricity         Category = "electricity"
	CategoryDrainage            Category = "drainage"
	CategoryRoadDamage          Category = "road_damage"
	CategoryIllegalConstruction Category = "illegal_construction"
	CategoryNoisePollution      Category = "noise_pollution"
	CategoryOther               Category = "other"
)

// ValidCategories returns all valid Category values
func ValidCategories() []Category {
	return []Category{
		CategoryPothole,
		CategoryGarbage,
		CategoryWaterLeakage,
		CategoryStreetLight,
		CategoryElectricity,
		CategoryDrainage,
		CategoryRoadDamage,
		CategoryIllegalConstruction,
		CategoryNoisePollution,
		CategoryOther,
	}
}

// IsValid checks if the Category value is one of the predefined constants
func (c Category) IsValid() bool {
	for _, valid := range ValidCategories() {
		if c == valid {
			return true
		}
	}
	return false
}

// Priority represents the urgency of a complaint
type Priority string

// Predefined Priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriorities returns all valid Priority values
func ValidPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// IsValid checks if the Priority value is one of the predefined constants
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// DefaultPriority returns the default priority assigned to new complaints
// of the given category
func DefaultPriority(category Category) Priority {
	switch category {
	case CategoryWaterLeakage:
		return PriorityUrgent
	case CategoryElectricity, CategoryDrainage, CategoryPothole, CategoryRoadDamage:
		return PriorityHigh
	case CategoryStreetLight, CategoryGarbage, CategoryIllegalConstruction:
		return PriorityMedium
	case CategoryNoisePollution, CategoryOther:
		return PriorityLow
	}
	return PriorityMedium
}

// Coordinates holds a lat/lng pair
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Location holds the structure for a complaint location
type Location struct {
	Address     string      `json:"address" bson:"address"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
	Landmark    string      `json:"landmark" bson:"landmark"`
}

// Image holds a reference to an uploaded blob
type Image struct {
	URL        string             `json:"url" bson:"url"`
	BlobID     string             `json:"blobId" bson:"blobId"`
	UploadedAt primitive.DateTime `json:"uploadedAt,omitempty" bson:"uploadedAt,omitempty"`
}

// Resolution holds the resolution details of a resolved complaint
type Resolution struct {
	Notes      string              `json:"notes" bson:"notes"`
	Images     []Image             `json:"images" bson:"images"`
	ResolvedBy *primitive.ObjectID `json:"resolvedBy" bson:"resolvedBy"`
}

// VoteDirection represents a vote cast on a complaint
type VoteDirection string

// Predefined VoteDirection values
const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// IsValid checks if the VoteDirection value is one of the predefined constants
func (v VoteDirection) IsValid() bool {
	return v == VoteUp || v == VoteDown
}

// Voter records a single principal's vote on a complaint
type Voter struct {
	User primitive.ObjectID `json:"user" bson:"user"`
	Vote VoteDirection      `json:"vote" bson:"vote"`
}

// Votes aggregates the votes cast on a complaint. A principal appears at
// most once in Voters.
type Votes struct {
	Upvotes   int     `json:"upvotes" bson:"upvotes"`
	Downvotes int     `json:"downvotes" bson:"downvotes"`
	Voters    []Voter `json:"voters" bson:"voters"`
}

// Complaint holds the structure for the complaint collection in mongo
type Complaint struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	ComplaintID string              `json:"complaintId" bson:"complaintId"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Category    Category            `json:"category" bson:"category"`
	Location    Location            `json:"location" bson:"location"`
	Images      []Image             `json:"images" bson:"images"`
	Status      Status              `json:"status" bson:"status"`
	Priority    Priority            `json:"priority" bson:"priority"`
	ReportedBy  primitive.ObjectID  `json:"reportedBy" bson:"reportedBy"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	AssignedAt  *primitive.DateTime `json:"assignedAt" bson:"assignedAt"`
	ResolvedAt  *primitive.DateTime `json:"resolvedAt" bson:"resolvedAt"`
	Resolution  Resolution          `json:"resolution" bson:"resolution"`
	Votes       Votes               `json:"votes" bson:"votes"`
	ViewCount   int64               `json:"viewCount" bson:"viewCount"`
	CreatedAt   primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
	Version     int32               `json:"__v" bson:"__v"`
}

// ApplyVote applies toggle vote semantics for the given user: a first vote
// is added, a repeated identical vote is removed, and an opposite vote is
// flipped. Counters stay consistent with the voter list.
func (c *Complaint) ApplyVote(userID primitive.ObjectID, direction VoteDirection) {
	for i, voter := range c.Votes.Voters {
		if voter.User != userID {
			continue
		}
		if voter.Vote == direction {
			// un-vote
			c.Votes.Voters = append(c.Votes.Voters[:i], c.Votes.Voters[i+1:]...)
			if direction == VoteUp {
				c.Votes.Upvotes--
			} else {
				c.Votes.Downvotes--
			}
		} else {
			// flip
			if direction == VoteUp {
				c.Votes.Upvotes++
				c.Votes.Downvotes--
			} else {
				c.Votes.Upvotes--
				c.Votes.Downvotes++
			}
			c.Votes.Voters[i].Vote = direction
		}
		return
	}

	c.Votes.Voters = append(c.Votes.Voters, Voter{User: userID, Vote: direction})
	if direction == VoteUp {
		c.Votes.Upvotes++
	} else {
		c.Votes.Downvotes++
	}
}

// ComplaintSummary is the trimmed complaint returned by the create endpoint
type ComplaintSummary struct {
	ComplaintID string             `json:"complaintId"`
	Title       string             `json:"title"`
	Status      Status             `json:"status"`
	Priority    Priority           `json:"priority"`
	CreatedAt   primitive.DateTime `json:"createdAt"`
}

// ComplaintListResponse is the paginated list envelope
type ComplaintListResponse struct {
	Complaints []Complaint `json:"complaints"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination holds the 1-indexed pagination block returned by list endpoints
type Pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}
