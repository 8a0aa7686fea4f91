package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrAlreadyExists      = errors.New("already exists")
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", ErrAlreadyExists)
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// NotFoundError names the missing resource without leaking whether it exists
// for another user.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %v", e.Resource, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NewTaskNotFound(id uuid.UUID) error {
	return &NotFoundError{Resource: "task", ID: id.String()}
}

func NewUserNotFound(id uuid.UUID) error {
	return &NotFoundError{Resource: "user", ID: id.String()}
}

// ScheduleConflictError carries the id of the first task (earliest start)
// whose time window overlaps the proposed one.
type ScheduleConflictError struct {
	ConflictingTaskID uuid.UUID
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("task schedule conflicts with existing task %s", e.ConflictingTaskID)
}

func (e *ScheduleConflictError) Unwrap() error { return ErrAlreadyExists }

func IsScheduleConflict(err error) bool {
	var sc *ScheduleConflictError
	return errors.As(err, &sc)
}

// PasswordPolicyError lists every unmet password rule so a client can render
// them all at once.
type PasswordPolicyError struct {
	Unmet []string
}

func (e *PasswordPolicyError) Error() string {
	return fmt.Sprintf("password does not meet requirements: %d rule(s) unmet", len(e.Unmet))
}

func (e *PasswordPolicyError) Unwrap() error { return ErrInvalidArgument }

func IsPasswordPolicy(err error) bool {
	var pp *PasswordPolicyError
	return errors.As(err, &pp)
}
