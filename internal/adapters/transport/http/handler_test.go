package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tasknest/internal/adapters/db/memory"
	pgrepo "tasknest/internal/adapters/db/postgres"
	"tasknest/internal/adapters/transport/http/dto"
	"tasknest/internal/adapters/transport/http/middleware"
	"tasknest/internal/app/auth/jwt"
	"tasknest/internal/app/auth/password"
	authsvc "tasknest/internal/app/auth/service"
	"tasknest/internal/app/task/schedule"
	tasksvc "tasknest/internal/app/task/service"
	"tasknest/internal/domain/model"
	"tasknest/internal/infra/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Task{}))

	codec, err := jwt.NewCodec(&config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, dto.RegisterValidations())

	logger := zap.NewNop()
	userRepo := pgrepo.NewUserRepo(db)
	taskRepo := pgrepo.NewTaskRepo(db)
	tokenRepo := memory.NewTokenRepo()
	hasher := password.NewHasher(4, logger)

	auth := authsvc.New(userRepo, tokenRepo, codec, hasher, logger)
	tasks := tasksvc.New(taskRepo, schedule.NewConflictDetector(taskRepo), logger)

	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandler(auth, tasks, logger).Register(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func registerBody(email, username string) gin.H {
	return gin.H{
		"email":            email,
		"password":         "Str0ng!Pass",
		"confirm_password": "Str0ng!Pass",
		"username":         username,
		"first_name":       "Alice",
		"last_name":        "Smith",
	}
}

func taskBody(name string, start, end time.Time) gin.H {
	return gin.H{
		"name":       name,
		"start_time": start.Format(time.RFC3339),
		"end_time":   end.Format(time.RFC3339),
	}
}

func hour(h, m int) time.Time {
	return time.Date(2026, time.March, 2, h, m, 0, 0, time.UTC)
}

type errorBody struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"request_id"`
	} `json:"error"`
}

func TestEndToEndScheduleFlow(t *testing.T) {
	router := newTestRouter(t)

	// register and log in
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "a@x.com", "password": "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login dto.AuthResponse
	decode(t, rec, &login)
	token := login.Tokens.AccessToken
	require.NotEmpty(t, token)

	// first task occupies nine to ten
	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("standup", hour(9, 0), hour(10, 0)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first dto.TaskResponse
	decode(t, rec, &first)

	// an overlapping task is rejected and names the blocker
	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("review", hour(9, 30), hour(10, 30)))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var conflict errorBody
	decode(t, rec, &conflict)
	require.Equal(t, "SCHEDULE_CONFLICT", conflict.Error.Code)
	require.Equal(t, first.ID, conflict.Error.Details["conflicting_task_id"])

	// moved off the busy slot it goes through
	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("review", hour(10, 0), hour(11, 0)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second dto.TaskResponse
	decode(t, rec, &second)

	// walk the first task to completed
	for _, status := range []string{"in_progress", "completed"} {
		rec = doJSON(t, router, http.MethodPatch, "/tasks/"+first.ID+"/status", token, gin.H{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// terminal state rejects reopening
	rec = doJSON(t, router, http.MethodPatch, "/tasks/"+first.ID+"/status", token, gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var invalid errorBody
	decode(t, rec, &invalid)
	require.Equal(t, "VALIDATION_ERROR", invalid.Error.Code)

	// the completed task no longer blocks its old slot
	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("retro", hour(9, 0), hour(10, 0)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegister_ValidationAndDuplicates(t *testing.T) {
	router := newTestRouter(t)

	// a weak password is rejected with every unmet rule listed at once
	body := registerBody("a@x.com", "alice")
	body["password"] = "weak"
	body["confirm_password"] = "weak"
	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var weak errorBody
	decode(t, rec, &weak)
	require.Equal(t, "VALIDATION_ERROR", weak.Error.Code)
	requirements, ok := weak.Error.Details["requirements"].([]any)
	require.True(t, ok, "expected details.requirements, got %v", weak.Error.Details)
	require.ElementsMatch(t, []any{
		"password must be at least 8 characters long",
		"password must contain at least one uppercase letter",
		"password must contain at least one number",
		"password must contain at least one special character",
	}, requirements)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "bob"))
	require.Equal(t, http.StatusConflict, rec.Code)
	var dup errorBody
	decode(t, rec, &dup)
	require.Equal(t, "EMAIL_ALREADY_EXISTS", dup.Error.Code)
}

func TestLogin_FailureEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	recUnknown := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "nobody@x.com", "password": "Str0ng!Pass",
	})
	recWrong := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "a@x.com", "password": "Wr0ng!Pass",
	})

	require.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	require.Equal(t, http.StatusUnauthorized, recWrong.Code)

	var unknown, wrong errorBody
	decode(t, recUnknown, &unknown)
	decode(t, recWrong, &wrong)
	require.Equal(t, unknown.Error.Message, wrong.Error.Message)
	require.Equal(t, "AUTHENTICATION_ERROR", unknown.Error.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg dto.AuthResponse
	decode(t, rec, &reg)

	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated dto.TokenResponse
	decode(t, rec, &rotated)
	require.NotEqual(t, reg.Tokens.RefreshToken, rotated.RefreshToken)

	// the old refresh token is burned
	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/logout", rotated.AccessToken, gin.H{"refresh_token": rotated.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the revoked access token stops working
	rec = doJSON(t, router, http.MethodGet, "/auth/me", rotated.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTasks_RequireAuthentication(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/tasks", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	require.Equal(t, "AUTHENTICATION_ERROR", body.Error.Code)

	rec = doJSON(t, router, http.MethodGet, "/tasks", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	decode(t, rec, &body)
	require.Equal(t, "INVALID_TOKEN", body.Error.Code)
}

func TestTasks_OwnershipIsolation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var alice dto.AuthResponse
	decode(t, rec, &alice)

	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("b@x.com", "bob"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var bob dto.AuthResponse
	decode(t, rec, &bob)

	rec = doJSON(t, router, http.MethodPost, "/tasks", alice.Tokens.AccessToken, taskBody("secret", hour(9, 0), hour(10, 0)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var task dto.TaskResponse
	decode(t, rec, &task)

	rec = doJSON(t, router, http.MethodGet, "/tasks/"+task.ID, bob.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/tasks/"+task.ID, bob.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// bob's calendar does not see alice's task as a conflict
	rec = doJSON(t, router, http.MethodPost, "/tasks", bob.Tokens.AccessToken, taskBody("mine", hour(9, 0), hour(10, 0)))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestTasks_ListBulkAndStatistics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg dto.AuthResponse
	decode(t, rec, &reg)
	token := reg.Tokens.AccessToken

	var ids []string
	for i := 0; i < 3; i++ {
		rec = doJSON(t, router, http.MethodPost, "/tasks", token,
			taskBody(fmt.Sprintf("task %d", i), hour(9+i, 0), hour(9+i, 30)))
		require.Equal(t, http.StatusCreated, rec.Code)
		var task dto.TaskResponse
		decode(t, rec, &task)
		ids = append(ids, task.ID)
	}

	rec = doJSON(t, router, http.MethodGet, "/tasks?limit=2&sort_by=start_time", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list dto.TaskListResponse
	decode(t, rec, &list)
	require.Equal(t, int64(3), list.TotalCount)
	require.Len(t, list.Tasks, 2)
	require.True(t, list.HasMore)

	rec = doJSON(t, router, http.MethodPost, "/tasks/bulk/status", token, gin.H{
		"task_ids": ids, "status": "in_progress",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bulk dto.BulkResponse
	decode(t, rec, &bulk)
	require.Equal(t, 3, bulk.OK)
	require.Equal(t, 0, bulk.Failed)

	rec = doJSON(t, router, http.MethodGet, "/tasks/statistics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats dto.StatsResponse
	decode(t, rec, &stats)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(3), stats.ByStatus["in_progress"])

	rec = doJSON(t, router, http.MethodPost, "/tasks/bulk/delete", token, gin.H{"task_ids": ids[:2]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &bulk)
	require.Equal(t, 2, bulk.OK)

	rec = doJSON(t, router, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	require.Equal(t, int64(1), list.TotalCount)
}

func TestTasks_RangeQuery(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("a@x.com", "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg dto.AuthResponse
	decode(t, rec, &reg)
	token := reg.Tokens.AccessToken

	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("morning", hour(9, 0), hour(10, 0)))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/tasks", token, taskBody("evening", hour(18, 0), hour(19, 0)))
	require.Equal(t, http.StatusCreated, rec.Code)

	path := fmt.Sprintf("/tasks/range?start=%s&end=%s",
		hour(8, 0).Format(time.RFC3339), hour(12, 0).Format(time.RFC3339))
	rec = doJSON(t, router, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Tasks []dto.TaskResponse `json:"tasks"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Tasks, 1)
	require.Equal(t, "morning", body.Tasks[0].Name)

	rec = doJSON(t, router, http.MethodGet, "/tasks/range?start=bogus&end=also-bogus", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
