package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civic-resolve/civic-resolve-api/api"
	"github.com/civic-resolve/civic-resolve-api/api/scheduler"
	"github.com/civic-resolve/civic-resolve-api/blobstore"
	"github.com/civic-resolve/civic-resolve-api/config"
	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Blobs     blobstore.Store
	Scheduler *scheduler.Scheduler
	Metrics   *api.MetricsCollector
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	hub := NewNotificationHub()
	notifier := &Notifier{
		NDB:            databases.NewNotificationDatabase(a.dbHelper),
		UDB:            databases.NewUserDatabase(a.dbHelper),
		Hub:            hub,
		SendgridAPIKey: a.Config.SendgridAPIKey,
		BaseURL:        a.Config.BaseURL,
	}

	c := Complaint{
		DB:       databases.NewComplaintDatabase(a.dbHelper),
		SDB:      databases.NewStatusUpdateDatabase(a.dbHelper),
		UDB:      databases.NewUserDatabase(a.dbHelper),
		Counters: databases.NewCounterDatabase(a.dbHelper),
		Cleanup:  databases.NewBlobCleanupDatabase(a.dbHelper),
		NDB:      databases.NewNotificationDatabase(a.dbHelper),
		Blobs:    a.Blobs,
		Notifier: notifier,
		Folder:   a.Config.CloudinaryFolder,
	}
	d := Dashboard{DB: databases.NewComplaintDatabase(a.dbHelper)}
	u := User{DB: databases.NewUserDatabase(a.dbHelper), CDB: databases.NewComplaintDatabase(a.dbHelper)}
	auth := Auth{DB: databases.NewUserDatabase(a.dbHelper)}
	n := NotificationHandler{DB: databases.NewNotificationDatabase(a.dbHelper), Hub: hub}
	cloudinaryHandler := CloudinaryHandler{}

	staff := []models.Role{models.RoleOfficer, models.RoleAdmin, models.RoleSuperAdmin}
	admins := []models.Role{models.RoleAdmin, models.RoleSuperAdmin}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}
	apiCreate.Use(a.Metrics.MetricsMiddleware)

	apiCreate.Handle("/auth/register", http.HandlerFunc(auth.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/me", m.Middleware(http.HandlerFunc(auth.MeHandler))).Methods("GET")
	apiCreate.Handle("/auth/logout", m.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/complaints", m.Middleware(http.HandlerFunc(c.CreateComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints", m.Middleware(http.HandlerFunc(c.ListComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}", m.Middleware(http.HandlerFunc(c.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaints/{complaint_id}", m.Middleware(api.RequireRoles(http.HandlerFunc(c.DeleteComplaintHandler), admins...))).Methods("DELETE")
	apiCreate.Handle("/complaints/{complaint_id}/status", m.Middleware(api.RequireRoles(http.HandlerFunc(c.UpdateStatusHandler), staff...))).Methods("PUT")
	apiCreate.Handle("/complaints/{complaint_id}/assign", m.Middleware(api.RequireRoles(http.HandlerFunc(c.AssignComplaintHandler), admins...))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/vote", m.Middleware(http.HandlerFunc(c.VoteComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints/{complaint_id}/history", m.Middleware(http.HandlerFunc(c.ComplaintHistoryHandler))).Methods("GET")

	apiCreate.Handle("/dashboard/stats", m.Middleware(http.HandlerFunc(d.StatsHandler))).Methods("GET")
	apiCreate.Handle("/dashboard/map-data", m.Middleware(http.HandlerFunc(d.MapDataHandler))).Methods("GET")
	apiCreate.Handle("/dashboard/performance", m.Middleware(api.RequireRoles(http.HandlerFunc(d.PerformanceHandler), staff...))).Methods("GET")

	apiCreate.Handle("/users", m.Middleware(api.RequireRoles(http.HandlerFunc(u.ListUsersHandler), admins...))).Methods("GET")
	apiCreate.Handle("/users", m.Middleware(api.RequireRoles(http.HandlerFunc(u.CreateUserHandler), admins...))).Methods("POST")
	apiCreate.Handle("/users/officers", m.Middleware(api.RequireRoles(http.HandlerFunc(u.OfficersHandler), staff...))).Methods("GET")
	apiCreate.Handle("/users/{user_id}", m.Middleware(api.RequireRoles(http.HandlerFunc(u.UpdateUserHandler), admins...))).Methods("PUT")
	apiCreate.Handle("/users/{user_id}", m.Middleware(api.RequireRoles(http.HandlerFunc(u.DeleteUserHandler), admins...))).Methods("DELETE")
	apiCreate.Handle("/users/{user_id}/toggle-status", m.Middleware(api.RequireRoles(http.HandlerFunc(u.ToggleUserStatusHandler), admins...))).Methods("PUT")

	apiCreate.Handle("/notifications", m.Middleware(http.HandlerFunc(n.ListNotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notifications/read-all", m.Middleware(http.HandlerFunc(n.MarkAllReadHandler))).Methods("PUT")
	apiCreate.Handle("/notifications/{notification_id}/read", m.Middleware(http.HandlerFunc(n.MarkReadHandler))).Methods("PUT")

	apiCreate.Handle("/generate-signature", m.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/metrics", m.Middleware(api.RequireRoles(a.metricsHandler(), admins...))).Methods("GET")

	r.HandleFunc("/ws/notifications", hub.HandleNotificationsWebSocket)

	r.Use(api.TimeoutMiddleware(30 * time.Second))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("civic-resolve-api has connected to the database")

	if a.Blobs == nil {
		blobs, err := blobstore.NewCloudinary()
		if err != nil {
			zap.S().With(err).Error("failed to initialize blob store")
			return err
		}
		a.Blobs = blobs
	}

	a.Scheduler = scheduler.New(
		databases.NewBlobCleanupDatabase(a.dbHelper),
		a.Blobs,
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := json.Marshal(a.Metrics.Snapshot())
		if err != nil {
			config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
