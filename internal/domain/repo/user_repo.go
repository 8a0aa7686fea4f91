package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tasknest/internal/domain/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user model.User) (uuid.UUID, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
