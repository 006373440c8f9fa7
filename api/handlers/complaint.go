package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/civic-resolve/civic-resolve-api/api"
	"github.com/civic-resolve/civic-resolve-api/blobstore"
	"github.com/civic-resolve/civic-resolve-api/config"
	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// versionRetries bounds the optimistic-concurrency retry loop on complaint
// mutations. Two writers racing on the same document conflict on the __v
// check and the loser re-reads and retries.
const versionRetries = 3

// idRetries bounds retries when an insert trips the unique index on
// complaintId. The counter makes this near-impossible, the index makes it
// loud instead of silent.
const idRetries = 3

// Complaint exported for testing purposes
type Complaint struct {
	DB       databases.ComplaintDatabase
	SDB      databases.StatusUpdateDatabase
	UDB      databases.UserDatabase
	NDB      databases.NotificationDatabase
	Counters databases.CounterDatabase
	Cleanup  databases.BlobCleanupDatabase
	Blobs    blobstore.Store
	Notifier *Notifier
	Folder   string
}

type createComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    struct {
		Address  string  `json:"address"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
		Landmark string  `json:"landmark"`
	} `json:"location"`
	Images []models.Image `json:"images"`
}

// CreateComplaintHandler files a new complaint for the authenticated
// principal. Accepts JSON with pre-uploaded image references, or
// multipart/form-data with raw files that are pushed to the blob store.
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	req, err := c.decodeCreateRequest(r)
	if err != nil {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, err)
		return
	}

	if err := validateDraft(req); err != nil {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	images := req.Images
	if len(images) > models.MaxComplaintImages {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w,
			fmt.Errorf("at most %d images allowed", models.MaxComplaintImages))
		return
	}
	for i := range images {
		images[i].UploadedAt = now
	}
	if images == nil {
		images = []models.Image{}
	}

	category := models.Category(req.Category)
	complaint := models.Complaint{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    category,
		Location: models.Location{
			Address:     req.Location.Address,
			Coordinates: models.Coordinates{Lat: req.Location.Lat, Lng: req.Location.Lng},
			Landmark:    req.Location.Landmark,
		},
		Images:     images,
		Status:     models.StatusPending,
		Priority:   models.DefaultPriority(category),
		ReportedBy: principal.ID,
		Votes:      models.Votes{Voters: []models.Voter{}},
		Resolution: models.Resolution{Images: []models.Image{}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	inserted := false
	for attempt := 0; attempt < idRetries && !inserted; attempt++ {
		complaint.ComplaintID, err = databases.NextComplaintID(ctx, c.Counters, time.Now())
		if err != nil {
			config.ErrorStatus("failed to generate complaint id", http.StatusInternalServerError, w, err)
			return
		}
		_, err = c.DB.InsertOne(ctx, complaint)
		if err == nil {
			inserted = true
		} else if !mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
			return
		}
	}
	if !inserted {
		config.ErrorStatus("complaint id conflict", http.StatusConflict, w, err)
		return
	}

	_, err = c.SDB.InsertOne(ctx, models.StatusUpdate{
		ID:          primitive.NewObjectID(),
		ComplaintID: complaint.ID,
		Status:      models.StatusPending,
		Comment:     "Complaint received and is being reviewed.",
		UpdatedBy:   principal.ID,
		CreatedAt:   now,
	})
	if err != nil {
		zap.S().Errorw("failed to append initial status update",
			"complaintId", complaint.ComplaintID,
			"error", err)
	}

	c.Notifier.Emit(Notice{
		UserID:      principal.ID,
		Type:        models.NotificationStatusUpdate,
		Title:       "Complaint Submitted",
		Message:     fmt.Sprintf("Your complaint #%s has been submitted successfully.", complaint.ComplaintID),
		ComplaintID: complaint.ID,
		HumanID:     complaint.ComplaintID,
	})

	b, err := json.Marshal(models.ComplaintSummary{
		ComplaintID: complaint.ComplaintID,
		Title:       complaint.Title,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		CreatedAt:   complaint.CreatedAt,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// decodeCreateRequest reads either a JSON body or a multipart form with
// attached image files
func (c Complaint) decodeCreateRequest(r *http.Request) (*createComplaintRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req createComplaintRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	var req createComplaintRequest
	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Category = r.FormValue("category")
	req.Location.Address = r.FormValue("address")
	req.Location.Landmark = r.FormValue("landmark")
	req.Location.Lat, _ = strconv.ParseFloat(r.FormValue("lat"), 64)
	req.Location.Lng, _ = strconv.ParseFloat(r.FormValue("lng"), 64)

	if r.MultipartForm != nil {
		files := r.MultipartForm.File["images"]
		if len(files) > models.MaxComplaintImages {
			return nil, fmt.Errorf("at most %d images allowed", models.MaxComplaintImages)
		}
		for _, header := range files {
			img, err := c.uploadImage(r, header, c.Folder+"/complaints")
			if err != nil {
				// best-effort per file, matching upload semantics elsewhere
				zap.S().Errorw("image upload failed", "filename", header.Filename, "error", err)
				continue
			}
			req.Images = append(req.Images, *img)
		}
	}
	return &req, nil
}

func (c Complaint) uploadImage(r *http.Request, header *multipart.FileHeader, folder string) (*models.Image, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	res, err := c.Blobs.Upload(r.Context(), file, folder)
	if err != nil {
		return nil, err
	}
	return &models.Image{URL: res.URL, BlobID: res.BlobID}, nil
}

func validateDraft(req *createComplaintRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(req.Title) > 100 {
		return fmt.Errorf("title cannot exceed 100 characters")
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(req.Description) > 2000 {
		return fmt.Errorf("description cannot exceed 2000 characters")
	}
	if !models.Category(req.Category).IsValid() {
		return fmt.Errorf("invalid category %q", req.Category)
	}
	if strings.TrimSpace(req.Location.Address) == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

// listSortFields whitelists the sortable complaint fields
var listSortFields = map[string]string{
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
	"status":    "status",
	"category":  "category",
	"priority":  "priority",
	"viewCount": "viewCount",
	"upvotes":   "votes.upvotes",
}

// ListComplaintsHandler returns complaints scoped by the principal's role.
// Citizens only ever see their own complaints, regardless of the filters
// they supply.
func (c Complaint) ListComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	q := r.URL.Query()
	filter := bson.M{}

	if status := q.Get("status"); status != "" && status != "all" {
		filter["status"] = status
	}
	if category := q.Get("category"); category != "" && category != "all" {
		filter["category"] = category
	}
	if priority := q.Get("priority"); priority != "" && priority != "all" {
		filter["priority"] = priority
	}

	// role scoping overrides any caller-supplied flags
	if principal.Role == models.RoleCitizen || q.Get("myComplaints") == "true" {
		filter["reportedBy"] = principal.ID
	}
	if q.Get("assignedToMe") == "true" && principal.Role.IsStaff() {
		filter["assignedTo"] = principal.ID
	}

	if search := q.Get("search"); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"complaintId": pattern},
			{"description": pattern},
		}
	}

	if dateFilter := dateRangeFilter(q.Get("dateRange"), time.Now()); dateFilter != nil {
		filter["createdAt"] = dateFilter
	}

	sortField, sortOK := listSortFields[q.Get("sortBy")]
	if !sortOK {
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

	dbResp, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Complaint{}
	}

	total, err := c.DB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count complaints", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.ComplaintListResponse{
		Complaints: dbResp,
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

// dateRangeFilter converts a named range into a createdAt filter. Unknown
// values and "all" mean no filter.
func dateRangeFilter(name string, now time.Time) bson.M {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch name {
	case "today":
		return bson.M{"$gte": primitive.NewDateTimeFromTime(startOfDay)}
	case "yesterday":
		return bson.M{
			"$gte": primitive.NewDateTimeFromTime(startOfDay.AddDate(0, 0, -1)),
			"$lt":  primitive.NewDateTimeFromTime(startOfDay),
		}
	case "week":
		return bson.M{"$gte": primitive.NewDateTimeFromTime(now.AddDate(0, 0, -7))}
	}
	return nil
}

// getPageAndLimit parses 1-indexed pagination with sane bounds
func getPageAndLimit(r *http.Request) (int64, int64) {
	page := int64(1)
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			zap.S().Warnf("cannot process page number, using default of 1. Got: %v", raw)
		} else {
			page = parsed
		}
	}
	limit := int64(10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 100 {
			zap.S().Warnf("limit not usable, using default of %v, got: %v", limit, raw)
		} else {
			limit = parsed
		}
	}
	return page, limit
}

type complaintDetailResponse struct {
	models.Complaint
	StatusHistory []models.StatusUpdateWithUser `json:"statusHistory"`
}

// ComplaintByIDHandler returns a complaint by ID. Citizens may only view
// their own complaints. Every read bumps the view counter.
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	complaintID := mux.Vars(r)["complaint_id"]
	zap.S().Debugf("complaint_id: %v", complaintID)

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	if principal.Role == models.RoleCitizen && dbResp.ReportedBy != principal.ID {
		config.ErrorStatus("not authorized to view this complaint", http.StatusForbidden, w, fmt.Errorf("citizen %s is not the reporter", principal.ID.Hex()))
		return
	}

	history, err := c.SDB.GetHistory(ctx, cID)
	if err != nil {
		config.ErrorStatus("failed to get status history", http.StatusInternalServerError, w, err)
		return
	}
	if history == nil {
		history = []models.StatusUpdateWithUser{}
	}

	// every detail read counts, including repeat views by the same principal
	if err := databases.IncrementViewCount(ctx, c.DB, cID); err != nil {
		zap.S().Errorw("failed to increment view count", "complaintId", complaintID, "error", err)
	} else {
		dbResp.ViewCount++
	}

	b, err := json.Marshal(complaintDetailResponse{Complaint: *dbResp, StatusHistory: history})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ComplaintHistoryHandler returns the status ledger for a complaint,
// newest first. A deleted or never-updated complaint yields an empty list.
func (c Complaint) ComplaintHistoryHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if principal.Role == models.RoleCitizen {
		dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
		if err == nil && dbResp.ReportedBy != principal.ID {
			config.ErrorStatus("not authorized to view this complaint", http.StatusForbidden, w, fmt.Errorf("citizen %s is not the reporter", principal.ID.Hex()))
			return
		}
	}

	history, err := c.SDB.GetHistory(ctx, cID)
	if err != nil {
		config.ErrorStatus("failed to get status history", http.StatusInternalServerError, w, err)
		return
	}
	if history == nil {
		history = []models.StatusUpdateWithUser{}
	}

	b, err := json.Marshal(history)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateStatusRequest struct {
	Status   string         `json:"status"`
	Comment  string         `json:"comment"`
	Priority string         `json:"priority"`
	Images   []models.Image `json:"images"`
}

type updateStatusResponse struct {
	ID          string             `json:"id"`
	ComplaintID string             `json:"complaintId"`
	Status      models.Status      `json:"status"`
	Priority    models.Priority    `json:"priority"`
	UpdatedAt   primitive.DateTime `json:"updatedAt"`
}

// UpdateStatusHandler sets a new status on a complaint. The status graph is
// deliberately permissive: any valid status can be written by staff at any
// time. A transition to resolved populates the resolution block; the first
// resolvedAt wins and is never overwritten.
func (c Complaint) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := api.PrincipalFromContext(r.Context())

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	newStatus := models.Status(req.Status)
	if !newStatus.IsValid() {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid status %q", req.Status))
		return
	}
	if req.Priority != "" && !models.Priority(req.Priority).IsValid() {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid priority %q", req.Priority))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var complaint *models.Complaint
	var previousStatus models.Status
	now := primitive.NewDateTimeFromTime(time.Now())

	committed := false
	for attempt := 0; attempt < versionRetries && !committed; attempt++ {
		complaint, err = c.DB.FindOne(ctx, bson.M{"_id": cID})
		if err != nil {
			config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
			return
		}
		previousStatus = complaint.Status

		set := bson.M{
			"status":    newStatus,
			"updatedAt": now,
		}
		if req.Priority != "" {
			set["priority"] = models.Priority(req.Priority)
		}
		update := bson.M{"$set": set, "$inc": bson.M{"__v": 1}}

		if newStatus == models.StatusResolved {
			if complaint.ResolvedAt == nil {
				set["resolvedAt"] = now
			}
			set["resolution.resolvedBy"] = principal.ID
			set["resolution.notes"] = req.Comment
			if len(req.Images) > 0 {
				update["$push"] = bson.M{"resolution.images": bson.M{"$each": req.Images}}
			}
		}

		ok, err := c.DB.UpdateVersioned(ctx, complaint, update)
		if err != nil {
			config.ErrorStatus("failed to update status", http.StatusInternalServerError, w, err)
			return
		}
		committed = ok
	}
	if !committed {
		config.ErrorStatus("conflicting update, try again", http.StatusConflict, w, fmt.Errorf("version conflict on complaint %s", cID.Hex()))
		return
	}

	comment := req.Comment
	if comment == "" {
		comment = fmt.Sprintf("Status updated to %s", newStatus)
	}
	_, err = c.SDB.InsertOne(ctx, models.StatusUpdate{
		ID:             primitive.NewObjectID(),
		ComplaintID:    cID,
		Status:         newStatus,
		PreviousStatus: &previousStatus,
		Comment:        comment,
		UpdatedBy:      principal.ID,
		Images:         req.Images,
		CreatedAt:      now,
	})
	if err != nil {
		zap.S().Errorw("failed to append status update",
			"complaintId", complaint.ComplaintID,
			"error", err)
	}

	c.Notifier.Emit(Notice{
		UserID:      complaint.ReportedBy,
		Type:        models.NotificationStatusUpdate,
		Title:       "Complaint Status Updated",
		Message:     fmt.Sprintf("Your complaint #%s status has been updated to %s.", complaint.ComplaintID, newStatus),
		ComplaintID: cID,
		HumanID:     complaint.ComplaintID,
	})

	priority := complaint.Priority
	if req.Priority != "" {
		priority = models.Priority(req.Priority)
	}
	b, err := json.Marshal(updateStatusResponse{
		ID:          cID.Hex(),
		ComplaintID: complaint.ComplaintID,
		Status:      newStatus,
		Priority:    priority,
		UpdatedAt:   now,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type assignComplaintRequest struct {
	OfficerID string `json:"officerId"`
}

type assignComplaintResponse struct {
	ID          string             `json:"id"`
	ComplaintID string             `json:"complaintId"`
	AssignedTo  string             `json:"assignedTo"`
	AssignedAt  primitive.DateTime `json:"assignedAt"`
	Status      models.Status      `json:"status"`
}

// AssignComplaintHandler assigns a complaint to an officer. Assignment of a
// pending complaint auto-advances it to in_progress. The target must be an
// active officer or admin.
func (c Complaint) AssignComplaintHandler(w http.ResponseWriter, r *http.Request) {
	principal, _ := api.PrincipalFromContext(r.Context())

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req assignComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	officerID, err := primitive.ObjectIDFromHex(req.OfficerID)
	if err != nil {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid officerId: %w", err))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officer, err := c.UDB.FindOne(ctx, bson.M{"_id": officerID})
	if err != nil {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("assignee not found"))
		return
	}
	if !officer.Role.IsStaff() || !officer.IsActive {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w,
			fmt.Errorf("assignee %s is not an active officer", officerID.Hex()))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	var complaint *models.Complaint
	var newStatus models.Status

	committed := false
	for attempt := 0; attempt < versionRetries && !committed; attempt++ {
		complaint, err = c.DB.FindOne(ctx, bson.M{"_id": cID})
		if err != nil {
			config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
			return
		}

		newStatus = complaint.Status
		if complaint.Status == models.StatusPending {
			newStatus = models.StatusInProgress
		}

		update := bson.M{
			"$set": bson.M{
				"assignedTo": officerID,
				"assignedAt": now,
				"status":     newStatus,
				"updatedAt":  now,
			},
			"$inc": bson.M{"__v": 1},
		}
		ok, err := c.DB.UpdateVersioned(ctx, complaint, update)
		if err != nil {
			config.ErrorStatus("failed to assign complaint", http.StatusInternalServerError, w, err)
			return
		}
		committed = ok
	}
	if !committed {
		config.ErrorStatus("conflicting update, try again", http.StatusConflict, w, fmt.Errorf("version conflict on complaint %s", cID.Hex()))
		return
	}

	_, err = c.SDB.InsertOne(ctx, models.StatusUpdate{
		ID:          primitive.NewObjectID(),
		ComplaintID: cID,
		Status:      newStatus,
		Comment:     "Complaint assigned to officer",
		UpdatedBy:   principal.ID,
		CreatedAt:   now,
	})
	if err != nil {
		zap.S().Errorw("failed to append status update",
			"complaintId", complaint.ComplaintID,
			"error", err)
	}

	c.Notifier.Emit(Notice{
		UserID:      officerID,
		Type:        models.NotificationAssignment,
		Title:       "New Complaint Assigned",
		Message:     fmt.Sprintf("You have been assigned complaint #%s.", complaint.ComplaintID),
		ComplaintID: cID,
		HumanID:     complaint.ComplaintID,
	})
	c.Notifier.Emit(Notice{
		UserID:      complaint.ReportedBy,
		Type:        models.NotificationStatusUpdate,
		Title:       "Complaint Assigned",
		Message:     fmt.Sprintf("Your complaint #%s has been assigned to an officer.", complaint.ComplaintID),
		ComplaintID: cID,
		HumanID:     complaint.ComplaintID,
	})

	b, err := json.Marshal(assignComplaintResponse{
		ID:          cID.Hex(),
		ComplaintID: complaint.ComplaintID,
		AssignedTo:  officerID.Hex(),
		AssignedAt:  now,
		Status:      newStatus,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type voteRequest struct {
	Vote string `json:"vote"`
}

type voteResponse struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// VoteComplaintHandler records a toggle vote: first vote adds, repeat vote
// removes, opposite vote flips. One vote per principal.
func (c Complaint) VoteComplaintHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	direction := models.VoteDirection(req.Vote)
	if !direction.IsValid() {
		config.ErrorStatus("validation failed", http.StatusBadRequest, w, fmt.Errorf("invalid vote %q", req.Vote))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var complaint *models.Complaint
	committed := false
	for attempt := 0; attempt < versionRetries && !committed; attempt++ {
		complaint, err = c.DB.FindOne(ctx, bson.M{"_id": cID})
		if err != nil {
			config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
			return
		}

		complaint.ApplyVote(principal.ID, direction)

		update := bson.M{
			"$set": bson.M{
				"votes":     complaint.Votes,
				"updatedAt": primitive.NewDateTimeFromTime(time.Now()),
			},
			"$inc": bson.M{"__v": 1},
		}
		ok, err := c.DB.UpdateVersioned(ctx, complaint, update)
		if err != nil {
			config.ErrorStatus("failed to record vote", http.StatusInternalServerError, w, err)
			return
		}
		committed = ok
	}
	if !committed {
		config.ErrorStatus("conflicting update, try again", http.StatusConflict, w, fmt.Errorf("version conflict on complaint %s", cID.Hex()))
		return
	}

	b, err := json.Marshal(voteResponse{
		Upvotes:   complaint.Votes.Upvotes,
		Downvotes: complaint.Votes.Downvotes,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteComplaintHandler removes a complaint, cascading its status ledger
// and notifications. Blob deletions are best-effort: failures are queued
// for the cleanup scheduler and never abort the delete.
func (c Complaint) DeleteComplaintHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := primitive.ObjectIDFromHex(mux.Vars(r)["complaint_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaint, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	blobs := make([]string, 0, len(complaint.Images)+len(complaint.Resolution.Images))
	for _, img := range complaint.Images {
		blobs = append(blobs, img.BlobID)
	}
	for _, img := range complaint.Resolution.Images {
		blobs = append(blobs, img.BlobID)
	}
	for _, blobID := range blobs {
		if blobID == "" {
			continue
		}
		if err := c.Blobs.Delete(ctx, blobID); err != nil {
			zap.S().Errorw("blob delete failed, queueing retry",
				"blobId", blobID,
				"error", err)
			_, qErr := c.Cleanup.InsertOne(ctx, models.BlobCleanup{
				ID:        primitive.NewObjectID(),
				BlobID:    blobID,
				Attempts:  1,
				LastError: err.Error(),
				CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
			})
			if qErr != nil {
				zap.S().Errorw("failed to queue blob cleanup", "blobId", blobID, "error", qErr)
			}
		}
	}

	if _, err := c.SDB.DeleteByComplaintID(ctx, cID); err != nil {
		config.ErrorStatus("failed to delete status updates", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := c.NDB.DeleteByComplaintID(ctx, cID); err != nil {
		zap.S().Errorw("failed to delete notifications", "complaintId", cID.Hex(), "error", err)
	}
	if err := c.DB.DeleteOne(ctx, bson.M{"_id": cID}); err != nil {
		config.ErrorStatus("failed to delete complaint", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "complaint deleted successfully"}`))
}
