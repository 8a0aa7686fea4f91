package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/infra/config"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the payload of both token kinds; Kind discriminates them so an
// access token can never pass where a refresh token is required.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Kind  string `json:"kind"`
}

// Codec signs access and refresh tokens with separate secrets. Key
// separation keeps an access token from being replayed as a refresh token
// even if the verifier is confused about which kind it holds.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(cfg *config.Config) (*Codec, error) {
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, customErrors.NewInvalidArgument("jwt secrets must be set")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, customErrors.NewInvalidArgument("access and refresh secrets must differ")
	}
	return &Codec{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) IssueAccess(userID uuid.UUID, email string) (token string, exp time.Time, jti string, err error) {
	return c.issue(userID, email, KindAccess, c.accessTTL, c.accessSecret)
}

func (c *Codec) IssueRefresh(userID uuid.UUID, email string) (token string, exp time.Time, jti string, err error) {
	return c.issue(userID, email, KindRefresh, c.refreshTTL, c.refreshSecret)
}

func (c *Codec) issue(userID uuid.UUID, email, kind string, ttl time.Duration, secret []byte) (string, time.Time, string, error) {
	jti, err := newJTI()
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "generate jti")
	}
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Email: email,
		Kind:  kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign "+kind+" token")
	}

	return signed, claims.ExpiresAt.Time, jti, nil
}

func (c *Codec) ValidateAccess(raw string) (Claims, error) {
	return c.validate(raw, KindAccess, c.accessSecret)
}

func (c *Codec) ValidateRefresh(raw string) (Claims, error) {
	return c.validate(raw, KindRefresh, c.refreshSecret)
}

// validate verifies the signature before any claim is trusted; only then is
// the kind discriminator checked.
func (c *Codec) validate(raw, kind string, secret []byte) (Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, customErrors.ErrTokenExpired
		}
		return Claims{}, customErrors.ErrInvalidToken
	}
	if !token.Valid {
		return Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, customErrors.ErrInvalidToken
	}
	if claims.Kind != kind {
		return Claims{}, customErrors.ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return Claims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}

// ExtractJTI decodes without verification. Revocation bookkeeping only;
// nothing returned here may authorize an action.
func (c *Codec) ExtractJTI(raw string) string {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return ""
	}
	return claims.ID
}

// newJTI draws 32 bytes from crypto/rand; long enough that revoked ids
// cannot be guessed.
func newJTI() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
