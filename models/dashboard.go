package models

// Overview holds per-status complaint counts for a dashboard period
type Overview struct {
	Total      int64 `json:"total" bson:"total"`
	Pending    int64 `json:"pending" bson:"pending"`
	InProgress int64 `json:"inProgress" bson:"inProgress"`
	Resolved   int64 `json:"resolved" bson:"resolved"`
	Closed     int64 `json:"closed" bson:"closed"`
	Rejected   int64 `json:"rejected" bson:"rejected"`
}

// CategoryCount is a complaint count grouped by category
type CategoryCount struct {
	Category Category `json:"category" bson:"_id"`
	Count    int64    `json:"count" bson:"count"`
}

// PriorityCount is a complaint count grouped by priority
type PriorityCount struct {
	Priority Priority `json:"priority" bson:"_id"`
	Count    int64    `json:"count" bson:"count"`
}

// TrendPoint is one day of the dashboard daily time series
type TrendPoint struct {
	Date       string `json:"date" bson:"_id"`
	Complaints int64  `json:"complaints" bson:"complaints"`
	Resolved   int64  `json:"resolved" bson:"resolved"`
}

// NamedCount pairs a user display name with a complaint count, used for the
// top-reporter and officer-workload boards
type NamedCount struct {
	Name  string `json:"name" bson:"name"`
	Count int64  `json:"count" bson:"count"`
}

// DashboardStats is the full dashboard statistics payload
type DashboardStats struct {
	Overview          Overview        `json:"overview"`
	ByCategory        []CategoryCount `json:"byCategory"`
	ByPriority        []PriorityCount `json:"byPriority"`
	DailyTrend        []TrendPoint    `json:"dailyTrend"`
	AvgResolutionDays float64         `json:"avgResolutionTime"`
	RecentComplaints  []Complaint     `json:"recentComplaints"`
	TopReporters      []NamedCount    `json:"topReporters"`
	OfficerWorkload   []NamedCount    `json:"officerWorkload"`
}

// MapPoint is a single complaint marker for the dashboard map
type MapPoint struct {
	ID          string      `json:"id"`
	ComplaintID string      `json:"complaintId"`
	Title       string      `json:"title"`
	Category    Category    `json:"category"`
	Status      Status      `json:"status"`
	Priority    Priority    `json:"priority"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
}

// OfficerPerformance summarizes resolution throughput for one assignee
type OfficerPerformance struct {
	Name              string  `json:"name" bson:"name"`
	AvgResolutionDays float64 `json:"avgResolutionTime" bson:"avgResolutionTime"`
	TotalResolved     int64   `json:"totalResolved" bson:"totalResolved"`
}
