package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civic-resolve/civic-resolve-api/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), models.Principal{
		ID:   primitive.NewObjectID(),
		Role: models.RoleAdmin,
	}))

	rr := httptest.NewRecorder()
	RequireRoles(okHandler(), models.RoleAdmin, models.RoleSuperAdmin).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), models.Principal{
		ID:   primitive.NewObjectID(),
		Role: models.RoleCitizen,
	}))

	rr := httptest.NewRecorder()
	RequireRoles(okHandler(), models.RoleAdmin, models.RoleSuperAdmin).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireRolesRejectsMissingPrincipal(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	rr := httptest.NewRecorder()
	RequireRoles(okHandler(), models.RoleAdmin).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := models.Principal{ID: primitive.NewObjectID(), Role: models.RoleOfficer}

	ctx := WithPrincipal(context.Background(), p)
	got, ok := PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = PrincipalFromContext(context.Background())
	assert.False(t, ok)
}

func TestTimeoutMiddlewarePassesThroughFastHandlers(t *testing.T) {
	h := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/complaints", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTimeoutMiddlewareWritesTimeoutResponse(t *testing.T) {
	release := make(chan struct{})
	handlerDone := make(chan error, 1)
	h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, err := w.Write([]byte("too late"))
		handlerDone <- err
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/complaints", nil))

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request timeout")

	// The stalled handler's write must be discarded once the timeout
	// response has gone out.
	close(release)
	assert.Equal(t, http.ErrHandlerTimeout, <-handlerDone)
	assert.NotContains(t, rr.Body.String(), "too late")
}

func TestTimeoutMiddlewareLeavesPartialResponsesAlone(t *testing.T) {
	started := make(chan struct{})
	h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		close(started)
		<-r.Context().Done()
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/complaints", nil))

	<-started
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Request timeout")
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	user := &models.User{ID: primitive.NewObjectID(), Email: "x@example.com", Role: models.RoleCitizen}
	_, err := IssueToken(user, httptest.NewRequest("POST", "/api/v1/auth/login", nil))
	assert.Error(t, err)
}
