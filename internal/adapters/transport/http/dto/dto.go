package dto

import (
	"time"

	"tasknest/internal/app/task/service"
	"tasknest/internal/domain/model"
)

// Password strength is deliberately not a binding rule: the auth service
// checks the policy itself and reports every unmet rule at once, which a
// single binding tag cannot do.
type RegisterRequest struct {
	Email           string `json:"email"            binding:"required,email"`
	Password        string `json:"password"         binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Username        string `json:"username"         binding:"required,min=3,max=50"`
	FirstName       string `json:"first_name"       binding:"required,max=100"`
	LastName        string `json:"last_name"        binding:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type UserResponse struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

func NewAuthResponse(user model.User, pair model.TokenPair) AuthResponse {
	return AuthResponse{
		User: NewUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int(pair.AccessTTL.Seconds()),
		},
	}
}

func NewUserResponse(user model.User) UserResponse {
	return UserResponse{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
	}
}

type CreateTaskRequest struct {
	Name        string    `json:"name"        binding:"required,max=255"`
	Description string    `json:"description" binding:"max=2000"`
	StartTime   time.Time `json:"start_time"  binding:"required"`
	EndTime     time.Time `json:"end_time"    binding:"required"`
	Color       string    `json:"color"       binding:"omitempty,hexcolor"`
	Status      string    `json:"status"      binding:"omitempty,taskstatus"`
	Priority    int       `json:"priority"    binding:"omitempty,min=1,max=5"`
	Category    string    `json:"category"    binding:"omitempty,taskcategory"`
}

type UpdateTaskRequest struct {
	Name        *string    `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Color       *string    `json:"color"       binding:"omitempty,hexcolor"`
	Status      *string    `json:"status"      binding:"omitempty,taskstatus"`
	Priority    *int       `json:"priority"    binding:"omitempty,min=1,max=5"`
	Category    *string    `json:"category"    binding:"omitempty,taskcategory"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,taskstatus"`
}

type BulkStatusRequest struct {
	TaskIDs []string `json:"task_ids" binding:"required,min=1,dive,uuid"`
	Status  string   `json:"status"   binding:"required,taskstatus"`
}

type BulkDeleteRequest struct {
	TaskIDs []string `json:"task_ids" binding:"required,min=1,dive,uuid"`
}

type BulkResponse struct {
	Results map[string]bool `json:"results"`
	OK      int             `json:"ok"`
	Failed  int             `json:"failed"`
}

func NewBulkResponse(r *model.BulkResult) BulkResponse {
	out := BulkResponse{Results: make(map[string]bool, len(r.Succeeded)), OK: r.OK, Failed: r.Failed}
	for id, ok := range r.Succeeded {
		out.Results[id.String()] = ok
	}
	return out
}

type TaskResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Color           string    `json:"color"`
	Status          string    `json:"status"`
	Priority        int       `json:"priority"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	DurationMinutes int       `json:"duration_minutes"`
	IsOverdue       bool      `json:"is_overdue"`
	IsActive        bool      `json:"is_active"`
}

func NewTaskResponse(t model.Task) TaskResponse {
	return TaskResponse{
		ID:              t.ID.String(),
		UserID:          t.UserID.String(),
		Name:            t.Name,
		Description:     t.Description,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		Color:           t.Color,
		Status:          string(t.Status),
		Priority:        int(t.Priority),
		Category:        string(t.Category),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		DurationMinutes: int(t.Duration().Minutes()),
		IsOverdue:       t.IsOverdue(time.Now()),
		IsActive:        t.Status.IsActive(),
	}
}

func NewTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}

type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	TotalCount int64          `json:"total_count"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
	HasMore    bool           `json:"has_more"`
}

func NewTaskListResponse(r service.ListResult) TaskListResponse {
	return TaskListResponse{
		Tasks:      NewTaskResponses(r.Tasks),
		TotalCount: r.TotalCount,
		Offset:     r.Offset,
		Limit:      r.Limit,
		HasMore:    int64(r.Offset+r.Limit) < r.TotalCount,
	}
}

type StatsResponse struct {
	Total             int64            `json:"total"`
	ByStatus          map[string]int64 `json:"by_status"`
	ByPriority        map[int]int64    `json:"by_priority"`
	OverdueCount      int              `json:"overdue_count"`
	ActiveCount       int64            `json:"active_count"`
	ThisWeekTotal     int              `json:"this_week_tasks"`
	ThisWeekCompleted int              `json:"this_week_completed"`
}

func NewStatsResponse(s service.Statistics) StatsResponse {
	out := StatsResponse{
		Total:             s.Total,
		ByStatus:          make(map[string]int64, len(s.ByStatus)),
		ByPriority:        make(map[int]int64, len(s.ByPriority)),
		OverdueCount:      s.OverdueCount,
		ActiveCount:       s.ActiveCount,
		ThisWeekTotal:     s.ThisWeekTotal,
		ThisWeekCompleted: s.ThisWeekCompleted,
	}
	for k, v := range s.ByStatus {
		out.ByStatus[string(k)] = v
	}
	for k, v := range s.ByPriority {
		out.ByPriority[int(k)] = v
	}
	return out
}
