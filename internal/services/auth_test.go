package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/ctxutil"
)

func newAuth(t *testing.T) AuthService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(db, log, repos.NewUserRepo(db, log), repos.NewUserTokenRepo(db, log), AuthConfig{
		JWTSecretKey: "test-secret",
		AccessTTL:    time.Hour,
		BcryptCost:   bcrypt.MinCost,
	})
}

func TestRegisterLoginLogout(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	u, err := auth.Register(ctx, RegisterInput{Email: " Sam@Example.com ", Password: "correct horse", FirstName: "Sam"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "sam@example.com" || u.Password == "correct horse" {
		t.Fatalf("unexpected stored user: %+v", u)
	}

	if _, err := auth.Login(ctx, "sam@example.com", "wrong password"); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	token, err := auth.Login(ctx, "SAM@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	authed, err := auth.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.UserID(authed); got != u.ID {
		t.Fatalf("user id: got %s want %s", got, u.ID)
	}

	if err := auth.Logout(authed); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.SetContextFromToken(ctx, token); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("revoked token should be rejected, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()
	if _, err := auth.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := auth.Register(ctx, RegisterInput{Email: "DUP@example.com", Password: "password1"})
	if got := apierr.From(err); got == nil || got.Status != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := auth.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password1"}); !errors.Is(err, apierr.ErrInvalidArgument) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := auth.Register(ctx, RegisterInput{Email: "short@example.com", Password: "pw"}); !errors.Is(err, apierr.ErrInvalidArgument) {
		t.Fatalf("expected short password rejection, got %v", err)
	}
}

func TestSetContextFromTokenRejectsUnissuedTokens(t *testing.T) {
	auth := newAuth(t)
	other := newAuth(t)
	ctx := context.Background()
	if _, err := other.Register(ctx, RegisterInput{Email: "x@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := other.Login(ctx, "x@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	// Same secret, but the token was never issued by this service's store.
	if _, err := auth.SetContextFromToken(ctx, token); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := auth.SetContextFromToken(ctx, "garbage"); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for garbage, got %v", err)
	}
}
