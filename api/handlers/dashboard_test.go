package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civic-resolve/civic-resolve-api/api/handlers"
	mocksdb "github.com/civic-resolve/civic-resolve-api/databases/mocks"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// stubAggregates wires one catch-all Aggregate expectation that fills the
// results pointer based on its concrete type.
func stubAggregates(cdb *mocksdb.ComplaintDatabase) {
	cdb.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			switch results := args.Get(2).(type) {
			case *[]models.Overview:
				*results = []models.Overview{{Total: 12, Pending: 4, InProgress: 3, Resolved: 5}}
			case *[]models.CategoryCount:
				*results = []models.CategoryCount{
					{Category: models.CategoryGarbage, Count: 7},
					{Category: models.CategoryPothole, Count: 5},
				}
			case *[]models.PriorityCount:
				*results = []models.PriorityCount{{Priority: models.PriorityMedium, Count: 12}}
			case *[]models.TrendPoint:
				*results = []models.TrendPoint{{Date: "2026-08-30", Complaints: 2, Resolved: 1}}
			case *[]models.NamedCount:
				*results = []models.NamedCount{{Name: "Asha Kulkarni", Count: 6}}
			case *[]models.OfficerPerformance:
				*results = []models.OfficerPerformance{{Name: "Officer Rao", AvgResolutionDays: 1.4, TotalResolved: 9}}
			}
		})
}

func TestDashboard_StatsHandlerStaff(t *testing.T) {
	cdb := new(mocksdb.ComplaintDatabase)
	d := handlers.Dashboard{DB: cdb}

	stubAggregates(cdb)
	cdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Complaint{{Title: "Overflowing bin"}}, nil)

	req := httptest.NewRequest("GET", "/api/v1/dashboard/stats?period=7days", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleOfficer)

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.StatsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats models.DashboardStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, int64(12), stats.Overview.Total)
	assert.Len(t, stats.ByCategory, 2)
	assert.Len(t, stats.RecentComplaints, 1)
	assert.Len(t, stats.TopReporters, 1)
	assert.Len(t, stats.OfficerWorkload, 1)
}

func TestDashboard_StatsHandlerCitizenSkipsStaffBoards(t *testing.T) {
	cdb := new(mocksdb.ComplaintDatabase)
	d := handlers.Dashboard{DB: cdb}
	citizen := primitive.NewObjectID()

	var firstMatch bson.M
	cdb.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			if firstMatch == nil {
				pipeline := args.Get(1).([]bson.M)
				firstMatch = pipeline[0]["$match"].(bson.M)
			}
		})
	cdb.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/dashboard/stats", nil)
	req = asPrincipal(req, citizen, models.RoleCitizen)

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.StatsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, citizen, firstMatch["reportedBy"])
	// overview, categories, priorities, trend, resolution time; no reporter
	// or workload boards for citizens
	cdb.AssertNumberOfCalls(t, "Aggregate", 5)

	var stats models.DashboardStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Empty(t, stats.TopReporters)
	assert.Empty(t, stats.OfficerWorkload)
}

func TestDashboard_MapDataHandler(t *testing.T) {
	cdb := new(mocksdb.ComplaintDatabase)
	d := handlers.Dashboard{DB: cdb}

	var captured bson.M
	cdb.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Complaint{{
			ID:          primitive.NewObjectID(),
			ComplaintID: "CMP-202608-0007",
			Title:       "Open manhole",
			Category:    models.CategoryDrainage,
			Status:      models.StatusPending,
			Priority:    models.PriorityUrgent,
			Location: models.Location{
				Address:     "MG Road",
				Coordinates: models.Coordinates{Lat: 18.51, Lng: 73.84},
			},
		}}, nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(bson.M)
		})

	req := httptest.NewRequest("GET", "/api/v1/dashboard/map?status=pending&bounds=18.6,73.9,18.4,73.7", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.MapDataHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pending", captured["status"])
	assert.Len(t, captured["$and"], 2)

	var resp struct {
		Complaints []models.MapPoint `json:"complaints"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Complaints, 1)
	assert.Equal(t, "CMP-202608-0007", resp.Complaints[0].ComplaintID)
}

func TestDashboard_MapDataHandlerBadBounds(t *testing.T) {
	cdb := new(mocksdb.ComplaintDatabase)
	d := handlers.Dashboard{DB: cdb}

	req := httptest.NewRequest("GET", "/api/v1/dashboard/map?bounds=18.6,73.9", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.MapDataHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	cdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboard_PerformanceHandler(t *testing.T) {
	cdb := new(mocksdb.ComplaintDatabase)
	d := handlers.Dashboard{DB: cdb}

	stubAggregates(cdb)

	req := httptest.NewRequest("GET", "/api/v1/dashboard/performance", nil)
	req = asPrincipal(req, primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.PerformanceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		ResolutionTimeByOfficer []models.OfficerPerformance `json:"resolutionTimeByOfficer"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.ResolutionTimeByOfficer, 1)
	assert.Equal(t, "Officer Rao", resp.ResolutionTimeByOfficer[0].Name)
}
