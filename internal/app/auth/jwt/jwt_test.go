package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	}
}

func TestCodec_IssueValidateAccess(t *testing.T) {
	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	uid := uuid.New()
	token, exp, jti, err := codec.IssueAccess(uid, "a@x.com")
	if err != nil || exp.IsZero() || jti == "" {
		t.Fatalf("bad issue: %v", err)
	}
	claims, err := codec.ValidateAccess(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != uid.String() {
		t.Fatalf("want %s got %s", uid, claims.Subject)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("email not carried: %q", claims.Email)
	}
	if claims.ID != jti {
		t.Fatal("jti mismatch")
	}
}

func TestCodec_RefreshCycle(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	uid := uuid.New()
	token, exp, jti, err := codec.IssueRefresh(uid, "a@x.com")
	if err != nil || exp.IsZero() || jti == "" {
		t.Fatalf("bad issue: %v", err)
	}
	claims, err := codec.ValidateRefresh(token)
	if err != nil || claims.Subject != uid.String() {
		t.Fatalf("validate error: %v", err)
	}
}

func TestCodec_KindsDoNotCross(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	access, _, _, _ := codec.IssueAccess(uuid.New(), "a@x.com")
	refresh, _, _, _ := codec.IssueRefresh(uuid.New(), "a@x.com")

	if _, err := codec.ValidateRefresh(access); err == nil {
		t.Fatal("access token accepted as refresh")
	}
	if _, err := codec.ValidateAccess(refresh); err == nil {
		t.Fatal("refresh token accepted as access")
	}
}

func TestCodec_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	codec, _ := NewCodec(cfg)

	token, _, _, err := codec.IssueAccess(uuid.New(), "a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	_, err = codec.ValidateAccess(token)
	if !customErrors.IsTokenExpired(err) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestCodec_WrongSecret(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	other, _ := NewCodec(&config.Config{
		JWTAccessSecret:  "some-other-access-secret",
		JWTRefreshSecret: "some-other-refresh-secret",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	})

	token, _, _, _ := other.IssueAccess(uuid.New(), "a@x.com")
	_, err := codec.ValidateAccess(token)
	if !customErrors.IsInvalidToken(err) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestCodec_RejectsUnsignedAlg(t *testing.T) {
	codec, _ := NewCodec(testConfig())

	unsigned, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{
		"sub":  uuid.NewString(),
		"kind": KindAccess,
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := codec.ValidateAccess(unsigned); err == nil {
		t.Fatal("alg none accepted")
	}
}

func TestCodec_GarbageToken(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	if _, err := codec.ValidateAccess("not-a-token"); !customErrors.IsInvalidToken(err) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestCodec_ExtractJTI(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	token, _, jti, _ := codec.IssueAccess(uuid.New(), "a@x.com")

	if got := codec.ExtractJTI(token); got != jti {
		t.Fatalf("want %s got %s", jti, got)
	}
	if got := codec.ExtractJTI("garbage"); got != "" {
		t.Fatalf("want empty jti, got %q", got)
	}
}

func TestCodec_JTIsAreUnique(t *testing.T) {
	codec, _ := NewCodec(testConfig())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, _, jti, err := codec.IssueAccess(uuid.New(), "a@x.com")
		if err != nil {
			t.Fatal(err)
		}
		if seen[jti] {
			t.Fatal("duplicate jti")
		}
		seen[jti] = true
	}
}

func TestNewCodec_RejectsSharedSecret(t *testing.T) {
	_, err := NewCodec(&config.Config{
		JWTAccessSecret:  "same",
		JWTRefreshSecret: "same",
		AccessTokenTTL:   time.Minute,
		RefreshTokenTTL:  time.Hour,
	})
	if err == nil {
		t.Fatal("shared secret accepted")
	}
	if _, err := NewCodec(&config.Config{}); err == nil {
		t.Fatal("empty secrets accepted")
	}
}
