package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	authsvc "tasknest/internal/app/auth/service"
	tasksvc "tasknest/internal/app/task/service"
	"tasknest/internal/adapters/transport/http/dto"
	"tasknest/internal/adapters/transport/http/middleware"
	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
)

type Handler struct {
	auth   authsvc.Service
	tasks  tasksvc.Service
	logger *zap.Logger
}

func NewHandler(auth authsvc.Service, tasks tasksvc.Service, logger *zap.Logger) *Handler {
	return &Handler{auth: auth, tasks: tasks, logger: logger}
}

// Register mounts all routes. Task routes and logout sit behind the auth
// middleware; the rest of /auth is public.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refresh)
		auth.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
		auth.GET("/me", middleware.RequireAuth(h.auth), h.me)
	}

	tasks := r.Group("/tasks", middleware.RequireAuth(h.auth))
	{
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.GET("/overdue", h.overdueTasks)
		tasks.GET("/range", h.tasksInRange)
		tasks.GET("/statistics", h.taskStats)
		tasks.POST("/bulk/status", h.bulkStatus)
		tasks.POST("/bulk/delete", h.bulkDelete)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
		tasks.PATCH("/:id/status", h.updateTaskStatus)
	}
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), authsvc.RegisterInput{
		Email:     body.Email,
		Password:  body.Password,
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result.User, result.Tokens))
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthResponse(result.User, result.Tokens))
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
	})
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	err := h.auth.Logout(c.Request.Context(), middleware.GetRawAccessToken(c), body.RefreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	uc, ok := middleware.GetUserContext(c)
	if !ok {
		h.handleError(c, customErrors.ErrInvalidToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":    uc.UserID.String(),
		"email":      uc.Email,
		"expires_at": uc.ExpiresAt,
	})
}

func (h *Handler) createTask(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	var body dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), uc.UserID, tasksvc.CreateInput{
		Name:        body.Name,
		Description: body.Description,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Color:       body.Color,
		Status:      model.TaskStatus(body.Status),
		Priority:    model.TaskPriority(body.Priority),
		Category:    model.TaskCategory(body.Category),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (h *Handler) getTask(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, errors.New("invalid task id"))
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), uc.UserID, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) listTasks(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	filter, err := parseTaskFilter(c)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.tasks.List(c.Request.Context(), uc.UserID, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskListResponse(result))
}

func (h *Handler) updateTask(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, errors.New("invalid task id"))
		return
	}

	var body dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	in := tasksvc.UpdateInput{
		Name:        body.Name,
		Description: body.Description,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Color:       body.Color,
	}
	if body.Status != nil {
		s := model.TaskStatus(*body.Status)
		in.Status = &s
	}
	if body.Priority != nil {
		p := model.TaskPriority(*body.Priority)
		in.Priority = &p
	}
	if body.Category != nil {
		cat := model.TaskCategory(*body.Category)
		in.Category = &cat
	}

	task, err := h.tasks.Update(c.Request.Context(), uc.UserID, taskID, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) deleteTask(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, errors.New("invalid task id"))
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), uc.UserID, taskID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateTaskStatus(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, errors.New("invalid task id"))
		return
	}

	var body dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), uc.UserID, taskID, model.TaskStatus(body.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *Handler) overdueTasks(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	tasks, err := h.tasks.Overdue(c.Request.Context(), uc.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.NewTaskResponses(tasks)})
}

func (h *Handler) tasksInRange(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		h.badRequest(c, errors.New("start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		h.badRequest(c, errors.New("end must be RFC3339"))
		return
	}

	tasks, err := h.tasks.InRange(c.Request.Context(), uc.UserID, start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.NewTaskResponses(tasks)})
}

func (h *Handler) taskStats(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	stats, err := h.tasks.Stats(c.Request.Context(), uc.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStatsResponse(stats))
}

func (h *Handler) bulkStatus(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	var body dto.BulkStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	ids, err := parseUUIDs(body.TaskIDs)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.tasks.BulkUpdateStatus(c.Request.Context(), uc.UserID, ids, model.TaskStatus(body.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBulkResponse(result))
}

func (h *Handler) bulkDelete(c *gin.Context) {
	uc, _ := middleware.GetUserContext(c)

	var body dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}

	ids, err := parseUUIDs(body.TaskIDs)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.tasks.BulkDelete(c.Request.Context(), uc.UserID, ids)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBulkResponse(result))
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.New("invalid task id: " + s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseTaskFilter(c *gin.Context) (model.TaskFilter, error) {
	var f model.TaskFilter

	if v := c.Query("status"); v != "" {
		s := model.TaskStatus(v)
		if !s.Valid() {
			return f, errors.New("unknown status filter")
		}
		f.Status = &s
	}
	if v := c.Query("priority"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || !model.TaskPriority(p).Valid() {
			return f, errors.New("priority must be between 1 and 5")
		}
		tp := model.TaskPriority(p)
		f.Priority = &tp
	}
	if v := c.Query("category"); v != "" {
		cat := model.TaskCategory(v)
		if !cat.Valid() {
			return f, errors.New("unknown category filter")
		}
		f.Category = &cat
	}
	f.NameContains = c.Query("name_contains")

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("start_date must be RFC3339")
		}
		f.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("end_date must be RFC3339")
		}
		f.EndDate = &t
	}
	if f.StartDate != nil && f.EndDate != nil && !f.EndDate.After(*f.StartDate) {
		return f, errors.New("end_date must be after start_date")
	}

	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			return f, errors.New("limit must be between 1 and 1000")
		}
		f.Limit = n
	}

	f.SortBy = c.DefaultQuery("sort_by", "start_time")
	if !model.SortableTaskFields[f.SortBy] {
		return f, errors.New("unsupported sort field")
	}
	switch c.DefaultQuery("sort_order", "asc") {
	case "asc":
	case "desc":
		f.SortDesc = true
	default:
		return f, errors.New("sort_order must be asc or desc")
	}

	return f, nil
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorEnvelope("VALIDATION_ERROR", err.Error(), nil, middleware.GetRequestID(c)))
}

// handleError maps the domain taxonomy onto HTTP statuses and the stable
// error envelope. Unexpected failures become a generic 500; the detail stays
// in the log, keyed by request id.
func (h *Handler) handleError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var scErr *customErrors.ScheduleConflictError
	var ppErr *customErrors.PasswordPolicyError
	var nfErr *customErrors.NotFoundError

	switch {
	case errors.As(err, &ppErr):
		c.JSON(http.StatusBadRequest, errorEnvelope(
			"VALIDATION_ERROR", "password does not meet requirements",
			gin.H{"requirements": ppErr.Unmet}, requestID))

	case errors.As(err, &scErr):
		c.JSON(http.StatusConflict, errorEnvelope(
			"SCHEDULE_CONFLICT", "task schedule conflicts with existing task",
			gin.H{"conflicting_task_id": scErr.ConflictingTaskID.String()}, requestID))

	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, errorEnvelope(
			"RESOURCE_NOT_FOUND", nfErr.Error(),
			gin.H{"resource": nfErr.Resource, "identifier": nfErr.ID}, requestID))

	case errors.Is(err, customErrors.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorEnvelope(
			"EMAIL_ALREADY_EXISTS", "email already registered", nil, requestID))

	case errors.Is(err, customErrors.ErrUsernameTaken):
		c.JSON(http.StatusConflict, errorEnvelope(
			"USERNAME_ALREADY_EXISTS", "username already taken", nil, requestID))

	case customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, errorEnvelope(
			"CONFLICT_ERROR", err.Error(), nil, requestID))

	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, errorEnvelope(
			"VALIDATION_ERROR", err.Error(), nil, requestID))

	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, errorEnvelope(
			"AUTHENTICATION_ERROR", customErrors.ErrInvalidCredentials.Error(), nil, requestID))

	case customErrors.IsAccountInactive(err):
		c.JSON(http.StatusUnauthorized, errorEnvelope(
			"AUTHENTICATION_ERROR", customErrors.ErrAccountInactive.Error(), nil, requestID))

	case customErrors.IsTokenExpired(err):
		c.JSON(http.StatusUnauthorized, errorEnvelope(
			"TOKEN_EXPIRED", "token has expired", nil, requestID))

	case customErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, errorEnvelope(
			"INVALID_TOKEN", "invalid token", nil, requestID))

	case customErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, errorEnvelope(
			"AUTHORIZATION_ERROR", "insufficient permissions", nil, requestID))

	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, errorEnvelope(
			"RESOURCE_NOT_FOUND", err.Error(), nil, requestID))

	case customErrors.IsRateLimited(err):
		c.JSON(http.StatusTooManyRequests, errorEnvelope(
			"RATE_LIMIT_EXCEEDED", "rate limit exceeded", nil, requestID))

	default:
		h.logger.Error("unhandled error",
			zap.String("request_id", requestID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorEnvelope(
			"INTERNAL_ERROR", "internal server error", nil, requestID))
	}
}

func errorEnvelope(code, message string, details gin.H, requestID string) gin.H {
	e := gin.H{"code": code, "message": message}
	if details != nil {
		e["details"] = details
	}
	if requestID != "" {
		e["request_id"] = requestID
	}
	return gin.H{"error": e}
}
