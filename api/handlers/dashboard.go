package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civic-resolve/civic-resolve-api/api"
	"github.com/civic-resolve/civic-resolve-api/config"
	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// Dashboard exported for testing purposes
type Dashboard struct {
	DB databases.ComplaintDatabase
}

// periodStart maps a named reporting period to its start time. Unknown
// values fall back to 30 days.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "7days":
		return now.AddDate(0, 0, -7)
	case "90days":
		return now.AddDate(0, 0, -90)
	case "1year":
		return now.AddDate(-1, 0, 0)
	}
	return now.AddDate(0, 0, -30)
}

// StatsHandler aggregates the dashboard statistics for a reporting period.
// Citizens only ever see numbers for their own complaints; the reporter and
// workload boards are staff-only.
func (d Dashboard) StatsHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := api.PrincipalFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthenticated", http.StatusUnauthorized, w, fmt.Errorf("no principal in context"))
		return
	}

	now := time.Now()
	start := periodStart(r.URL.Query().Get("period"), now)

	match := bson.M{"createdAt": bson.M{
		"$gte": primitive.NewDateTimeFromTime(start),
		"$lte": primitive.NewDateTimeFromTime(now),
	}}
	if principal.Role == models.RoleCitizen {
		match["reportedBy"] = principal.ID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var overview []models.Overview
	err := d.DB.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":        nil,
			"total":      bson.M{"$sum": 1},
			"pending":    statusCountExpr(models.StatusPending),
			"inProgress": statusCountExpr(models.StatusInProgress),
			"resolved":   statusCountExpr(models.StatusResolved),
			"closed":     statusCountExpr(models.StatusClosed),
			"rejected":   statusCountExpr(models.StatusRejected),
		}},
	}, &overview)
	if err != nil {
		config.ErrorStatus("failed to aggregate overview", http.StatusInternalServerError, w, err)
		return
	}

	stats := models.DashboardStats{
		ByCategory:       []models.CategoryCount{},
		ByPriority:       []models.PriorityCount{},
		DailyTrend:       []models.TrendPoint{},
		RecentComplaints: []models.Complaint{},
		TopReporters:     []models.NamedCount{},
		OfficerWorkload:  []models.NamedCount{},
	}
	if len(overview) > 0 {
		stats.Overview = overview[0]
	}

	err = d.DB.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}, &stats.ByCategory)
	if err != nil {
		config.ErrorStatus("failed to aggregate categories", http.StatusInternalServerError, w, err)
		return
	}

	err = d.DB.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"count": -1}},
	}, &stats.ByPriority)
	if err != nil {
		config.ErrorStatus("failed to aggregate priorities", http.StatusInternalServerError, w, err)
		return
	}

	err = d.DB.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{
			"_id":        bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"complaints": bson.M{"$sum": 1},
			"resolved":   statusCountExpr(models.StatusResolved),
		}},
		{"$sort": bson.M{"_id": 1}},
		{"$limit": 30},
	}, &stats.DailyTrend)
	if err != nil {
		config.ErrorStatus("failed to aggregate daily trend", http.StatusInternalServerError, w, err)
		return
	}

	avgDays, err := d.avgResolutionDays(ctx, match)
	if err != nil {
		config.ErrorStatus("failed to aggregate resolution time", http.StatusInternalServerError, w, err)
		return
	}
	stats.AvgResolutionDays = avgDays

	recent, err := d.DB.Find(ctx, match, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(5))
	if err != nil {
		config.ErrorStatus("failed to get recent complaints", http.StatusInternalServerError, w, err)
		return
	}
	if recent != nil {
		stats.RecentComplaints = recent
	}

	if principal.Role.IsStaff() {
		err = d.DB.Aggregate(ctx, []bson.M{
			{"$match": match},
			{"$group": bson.M{"_id": "$reportedBy", "count": bson.M{"$sum": 1}}},
			{"$sort": bson.M{"count": -1}},
			{"$limit": 5},
			{"$lookup": bson.M{
				"from":         "users",
				"localField":   "_id",
				"foreignField": "_id",
				"as":           "user",
			}},
			{"$project": bson.M{
				"name":  bson.M{"$arrayElemAt": []interface{}{"$user.name", 0}},
				"count": 1,
			}},
		}, &stats.TopReporters)
		if err != nil {
			config.ErrorStatus("failed to aggregate top reporters", http.StatusInternalServerError, w, err)
			return
		}

		// workload is a live view, deliberately not scoped to the period
		err = d.DB.Aggregate(ctx, []bson.M{
			{"$match": bson.M{
				"assignedTo": bson.M{"$exists": true, "$ne": nil},
				"status":     bson.M{"$in": []models.Status{models.StatusPending, models.StatusInProgress}},
			}},
			{"$group": bson.M{"_id": "$assignedTo", "count": bson.M{"$sum": 1}}},
			{"$sort": bson.M{"count": -1}},
			{"$limit": 5},
			{"$lookup": bson.M{
				"from":         "users",
				"localField":   "_id",
				"foreignField": "_id",
				"as":           "officer",
			}},
			{"$project": bson.M{
				"name":  bson.M{"$arrayElemAt": []interface{}{"$officer.name", 0}},
				"count": 1,
			}},
		}, &stats.OfficerWorkload)
		if err != nil {
			config.ErrorStatus("failed to aggregate officer workload", http.StatusInternalServerError, w, err)
			return
		}
	}

	b, err := json.Marshal(stats)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// statusCountExpr builds a conditional counter for one status inside a
// $group stage
func statusCountExpr(status models.Status) bson.M {
	return bson.M{"$sum": bson.M{"$cond": []interface{}{
		bson.M{"$eq": []interface{}{"$status", status}}, 1, 0,
	}}}
}

func (d Dashboard) avgResolutionDays(ctx context.Context, match bson.M) (float64, error) {
	resolvedMatch := bson.M{
		"status":     models.StatusResolved,
		"resolvedAt": bson.M{"$exists": true},
	}
	for k, v := range match {
		resolvedMatch[k] = v
	}

	var avg []struct {
		AvgDays float64 `bson:"avgDays"`
	}
	err := d.DB.Aggregate(ctx, []bson.M{
		{"$match": resolvedMatch},
		{"$project": bson.M{
			"resolutionTime": bson.M{"$divide": []interface{}{
				bson.M{"$subtract": []interface{}{"$resolvedAt", "$createdAt"}},
				1000 * 60 * 60 * 24,
			}},
		}},
		{"$group": bson.M{"_id": nil, "avgDays": bson.M{"$avg": "$resolutionTime"}}},
	}, &avg)
	if err != nil {
		return 0, err
	}
	if len(avg) == 0 {
		return 0, nil
	}
	return math.Round(avg[0].AvgDays*10) / 10, nil
}

type mapDataResponse struct {
	Complaints []models.MapPoint `json:"complaints"`
}

// MapDataHandler returns complaint markers for the map view, optionally
// filtered by status, category, and a "north,east,south,west" bounds box.
// Capped at 500 markers.
func (d Dashboard) MapDataHandler(w http.ResponseWriter, r *http.Request) {
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
	if principal.Role == models.RoleCitizen {
		filter["reportedBy"] = principal.ID
	}

	if bounds := q.Get("bounds"); bounds != "" {
		box, err := parseBounds(bounds)
		if err != nil {
			config.ErrorStatus("validation failed", http.StatusBadRequest, w, err)
			return
		}
		filter["$and"] = []bson.M{
			{"location.coordinates.lat": bson.M{"$gte": box.south, "$lte": box.north}},
			{"location.coordinates.lng": bson.M{"$gte": box.west, "$lte": box.east}},
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	complaints, err := d.DB.Find(ctx, filter, options.Find().SetLimit(500))
	if err != nil {
		config.ErrorStatus("failed to get map data", http.StatusInternalServerError, w, err)
		return
	}

	points := make([]models.MapPoint, 0, len(complaints))
	for _, complaint := range complaints {
		points = append(points, models.MapPoint{
			ID:          complaint.ID.Hex(),
			ComplaintID: complaint.ComplaintID,
			Title:       complaint.Title,
			Category:    complaint.Category,
			Status:      complaint.Status,
			Priority:    complaint.Priority,
			Coordinates: complaint.Location.Coordinates,
			Address:     complaint.Location.Address,
		})
	}

	b, err := json.Marshal(mapDataResponse{Complaints: points})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type boundsBox struct {
	north, east, south, west float64
}

func parseBounds(raw string) (*boundsBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds must be north,east,south,west, got %q", raw)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounds value %q: %w", p, err)
		}
		vals[i] = v
	}
	return &boundsBox{north: vals[0], east: vals[1], south: vals[2], west: vals[3]}, nil
}

type performanceResponse struct {
	ResolutionTimeByOfficer []models.OfficerPerformance `json:"resolutionTimeByOfficer"`
}

// PerformanceHandler reports average resolution time and resolved counts
// per assignee, fastest first. An officerId query param narrows to one
// assignee.
func (d Dashboard) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	match := bson.M{
		"assignedTo": bson.M{"$exists": true, "$ne": nil},
		"status":     models.StatusResolved,
		"resolvedAt": bson.M{"$exists": true},
	}
	if officerID := r.URL.Query().Get("officerId"); officerID != "" {
		oID, err := primitive.ObjectIDFromHex(officerID)
		if err != nil {
			config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
			return
		}
		match["assignedTo"] = oID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	byOfficer := []models.OfficerPerformance{}
	err := d.DB.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$project": bson.M{
			"assignedTo": 1,
			"resolutionTime": bson.M{"$divide": []interface{}{
				bson.M{"$subtract": []interface{}{"$resolvedAt", "$createdAt"}},
				1000 * 60 * 60 * 24,
			}},
		}},
		{"$group": bson.M{
			"_id":               "$assignedTo",
			"avgResolutionTime": bson.M{"$avg": "$resolutionTime"},
			"totalResolved":     bson.M{"$sum": 1},
		}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "officer",
		}},
		{"$project": bson.M{
			"name":              bson.M{"$arrayElemAt": []interface{}{"$officer.name", 0}},
			"avgResolutionTime": bson.M{"$round": []interface{}{"$avgResolutionTime", 1}},
			"totalResolved":     1,
		}},
		{"$sort": bson.M{"avgResolutionTime": 1}},
	}, &byOfficer)
	if err != nil {
		config.ErrorStatus("failed to aggregate performance", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(performanceResponse{ResolutionTimeByOfficer: byOfficer})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
