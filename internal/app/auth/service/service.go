package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasknest/internal/app/auth/jwt"
	"tasknest/internal/app/auth/password"
	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
	"tasknest/internal/domain/repo"
)

type RegisterInput struct {
	Email     string
	Password  string
	Username  string
	FirstName string
	LastName  string
}

type AuthResult struct {
	User   model.User
	Tokens model.TokenPair
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, pass string) (AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ValidateAccessToken(ctx context.Context, accessToken string) (model.UserContext, error)
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	codec     *jwt.Codec
	hasher    *password.Hasher
	logger    *zap.Logger
}

func New(ur repo.UserRepo, tr repo.TokenRepo, codec *jwt.Codec, hasher *password.Hasher, logger *zap.Logger) Service {
	return &authService{
		userRepo:  ur,
		tokenRepo: tr,
		codec:     codec,
		hasher:    hasher,
		logger:    logger,
	}
}

func (a *authService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if _, err := a.userRepo.GetUserByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, customErrors.ErrEmailTaken
	} else if !customErrors.IsNotFound(err) {
		return AuthResult{}, customErrors.WrapInternal(err, "Register")
	}
	if _, err := a.userRepo.GetUserByUsername(ctx, in.Username); err == nil {
		return AuthResult{}, customErrors.ErrUsernameTaken
	} else if !customErrors.IsNotFound(err) {
		return AuthResult{}, customErrors.WrapInternal(err, "Register")
	}

	if err := password.ValidatePolicy(in.Password); err != nil {
		return AuthResult{}, err
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}
	// No tokens unless the user actually exists; the unique indexes are the
	// backstop for a concurrent duplicate registration.
	if _, err := a.userRepo.CreateUser(ctx, user); err != nil {
		if customErrors.IsAlreadyExists(err) {
			return AuthResult{}, err
		}
		return AuthResult{}, customErrors.WrapInternal(err, "Register")
	}

	pair, err := a.issueTokens(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, err
	}

	a.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return AuthResult{User: user, Tokens: pair}, nil
}

func (a *authService) Login(ctx context.Context, email, pass string) (AuthResult, error) {
	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case customErrors.IsNotFound(err):
		// Same failure as a wrong password so the response cannot be used
		// to enumerate accounts.
		return AuthResult{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return AuthResult{}, customErrors.WrapInternal(err, "Login")
	}

	if !a.hasher.Verify(pass, user.PasswordHash) {
		return AuthResult{}, customErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return AuthResult{}, customErrors.ErrAccountInactive
	}

	pair, err := a.issueTokens(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, err
	}

	// Best effort: a failed last-login write never fails the login itself.
	now := time.Now()
	if err := a.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		a.logger.Warn("update last login failed",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	return AuthResult{User: user, Tokens: pair}, nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := a.codec.ValidateRefresh(refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	if revoked {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	// Rotation: the presented refresh token is burned before a new pair is
	// minted, so each refresh token is good exactly once.
	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	uid, _ := uuid.Parse(claims.Subject)
	return a.issueTokens(uid, claims.Email)
}

func (a *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	// Idempotent: expired or already-revoked tokens are fine, malformed
	// ones simply have no jti to revoke.
	if jti := a.codec.ExtractJTI(refreshToken); jti != "" {
		exp := time.Now().Add(a.codec.RefreshTTL())
		if claims, err := a.codec.ValidateRefresh(refreshToken); err == nil {
			exp = claims.ExpiresAt.Time
		}
		if err := a.tokenRepo.Revoke(ctx, jti, exp); err != nil {
			return customErrors.WrapInternal(err, "Logout")
		}
	}
	if jti := a.codec.ExtractJTI(accessToken); jti != "" {
		exp := time.Now().Add(a.codec.AccessTTL())
		if claims, err := a.codec.ValidateAccess(accessToken); err == nil {
			exp = claims.ExpiresAt.Time
		}
		if err := a.tokenRepo.Revoke(ctx, jti, exp); err != nil {
			return customErrors.WrapInternal(err, "Logout")
		}
	}
	return nil
}

func (a *authService) ValidateAccessToken(ctx context.Context, accessToken string) (model.UserContext, error) {
	claims, err := a.codec.ValidateAccess(accessToken)
	if err != nil {
		return model.UserContext{}, err
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.UserContext{}, customErrors.WrapInternal(err, "ValidateAccessToken")
	}
	if revoked {
		return model.UserContext{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.UserContext{}, customErrors.ErrInvalidToken
	}

	return model.UserContext{
		UserID:    uid,
		Email:     claims.Email,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *authService) issueTokens(uid uuid.UUID, email string) (model.TokenPair, error) {
	at, atExp, _, err := a.codec.IssueAccess(uid, email)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, rtExp, jti, err := a.codec.IssueRefresh(uid, email)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:     at,
		RefreshToken:    rt,
		AccessTTL:       atExp.Sub(now),
		RefreshTTL:      rtExp.Sub(now),
		UserID:          uid,
		RefreshTokenJTI: jti,
	}, nil
}
