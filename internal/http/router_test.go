package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	httpH "github.com/rameshiCode/aindependent-backend/internal/http/handlers"
	httpMW "github.com/rameshiCode/aindependent-backend/internal/http/middleware"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	auth := services.NewAuthService(db, log, userRepo, repos.NewUserTokenRepo(db, log), services.AuthConfig{
		JWTSecretKey: "router-test",
		AccessTTL:    time.Hour,
		BcryptCost:   bcrypt.MinCost,
	})
	profiles := services.NewProfileService(db, log, repos.NewProfileRepo(db, log), repos.NewInsightRepo(db, log), nil, nil)
	goals := services.NewGoalService(log, repos.NewGoalRepo(db, log))

	return NewRouter(RouterConfig{
		Log:            log,
		AuthHandler:    httpH.NewAuthHandler(auth),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		UserHandler:    httpH.NewUserHandler(services.NewUserService(log, userRepo)),
		ProfileHandler: httpH.NewProfileHandler(profiles),
		GoalHandler:    httpH.NewGoalHandler(goals),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestRouterAccountAndProfileFlow(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := do(t, r, nethttp.MethodGet, "/healthcheck", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}

	rec, _ = do(t, r, nethttp.MethodPost, "/api/register", "", gin.H{"email": "kai@example.com", "password": "recovery123", "first_name": "Kai"})
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	rec, body := do(t, r, nethttp.MethodPost, "/api/register", "", gin.H{"email": "kai@example.com", "password": "recovery123"})
	if rec.Code != nethttp.StatusConflict || errorCode(body) != "email_taken" {
		t.Fatalf("duplicate register: %d %v", rec.Code, body)
	}

	rec, body = do(t, r, nethttp.MethodPost, "/api/login", "", gin.H{"email": "kai@example.com", "password": "recovery123"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("missing access token: %v", body)
	}

	rec, _ = do(t, r, nethttp.MethodGet, "/api/profile", "", nil)
	if rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("unauthenticated profile: %d", rec.Code)
	}
	rec, body = do(t, r, nethttp.MethodGet, "/api/profile", token, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body.String())
	}
	attrs, _ := body["attributes"].(map[string]any)
	if attrs["motivation_level"] != float64(5) {
		t.Fatalf("default motivation: %v", attrs)
	}

	rec, body = do(t, r, nethttp.MethodPut, "/api/profile/attributes/motivation_level", token, gin.H{"value": 7})
	if rec.Code != nethttp.StatusOK || body["value"] != float64(7) {
		t.Fatalf("set motivation: %d %v", rec.Code, body)
	}
	rec, body = do(t, r, nethttp.MethodPut, "/api/profile/attributes/shoe_size", token, gin.H{"value": 7})
	if rec.Code != nethttp.StatusNotFound || errorCode(body) != "unknown_attribute" {
		t.Fatalf("unknown attribute: %d %v", rec.Code, body)
	}
	rec, body = do(t, r, nethttp.MethodPut, "/api/profile/attributes/abstinence_days", token, gin.H{"value": 7})
	if rec.Code != nethttp.StatusBadRequest || errorCode(body) != "invalid_attribute_value" {
		t.Fatalf("read-only attribute: %d %v", rec.Code, body)
	}

	rec, body = do(t, r, nethttp.MethodPost, "/api/goals", token, gin.H{"description": "Call my sponsor"})
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("create goal: %d %s", rec.Code, rec.Body.String())
	}
	goal, _ := body["goal"].(map[string]any)
	goalID, _ := goal["id"].(string)
	rec, _ = do(t, r, nethttp.MethodPatch, "/api/goals/"+goalID, token, gin.H{"status": "completed"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("complete goal: %d %s", rec.Code, rec.Body.String())
	}
	rec, body = do(t, r, nethttp.MethodPatch, "/api/goals/"+goalID, token, gin.H{"status": "abandoned"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("terminal goal: %d %v", rec.Code, body)
	}
	rec, _ = do(t, r, nethttp.MethodPatch, "/api/goals/not-a-uuid", token, gin.H{"status": "completed"})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad goal id: %d", rec.Code)
	}

	rec, _ = do(t, r, nethttp.MethodPost, "/api/logout", token, nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec, _ = do(t, r, nethttp.MethodGet, "/api/me", token, nil)
	if rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("me after logout: %d", rec.Code)
	}
}
