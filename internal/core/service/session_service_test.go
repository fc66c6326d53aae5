package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/hash"
	"github.com/veriton/identity-system/internal/core/ports"
	"github.com/veriton/identity-system/internal/core/token"
)

// stubUserRepo is an in-memory ports.UserRepository shared by the service
// tests in this package.
type stubUserRepo struct {
	users map[string]*domain.User // keyed by id
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByRefreshToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != "" && u.RefreshToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, token string) error {
	for _, u := range r.users {
		if u.RefreshToken == token {
			u.RefreshToken = ""
			u.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *stubUserRepo) FindSafeByID(_ context.Context, id string) (*domain.SafeUser, error) {
	if u, ok := r.users[id]; ok {
		return u.Safe(), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, in ports.UpdateUserInput) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if in.Email != "" {
		for otherID, other := range r.users {
			if otherID != id && other.Email == in.Email {
				return domain.ErrUserExists
			}
		}
		u.Email = in.Email
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) Search(_ context.Context, name, email string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if name != "" && u.Name != name {
			continue
		}
		if email != "" && u.Email != email {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func newSessionService(repo ports.UserRepository) (*SessionService, *token.Service) {
	tokens := token.NewService("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewSessionService(repo, tokens, hash.NewBcryptHasher(), zerolog.Nop()), tokens
}

func register(t *testing.T, svc *SessionService, username, email, password string) {
	t.Helper()
	if err := svc.Register(context.Background(), ports.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	}); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func TestSessionService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)

	register(t, svc, "alice", "alice@example.com", "pass123")

	user, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role %s, got %s", domain.RoleUser, user.Role)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Name == "" {
		t.Fatalf("expected placeholder name for empty input")
	}
	if user.IsVerified {
		t.Fatalf("expected unverified account")
	}
}

func TestSessionService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)

	register(t, svc, "bob", "bob@example.com", "pass")

	err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob", Email: "other@example.com", Password: "pass2",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}

	err = svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob2", Email: "bob@example.com", Password: "pass2",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestSessionService_Login_ByUsernameAndEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newSessionService(repo)
	register(t, svc, "carol", "carol@example.com", "s3cret")

	pair, err := svc.Login(context.Background(), ports.LoginInput{Username: "carol", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login by username failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	claims, err := tokens.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	user, _ := repo.FindByUsername(context.Background(), "carol")
	if claims.Subject != user.ID || claims.Username != "carol" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Refresh token must be persisted onto the account.
	if user.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token not persisted")
	}

	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "carol@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestSessionService_Login_Failures(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)
	register(t, svc, "dave", "dave@example.com", "goodpass")

	if _, err := svc.Login(context.Background(), ports.LoginInput{Username: "dave", Password: "badpass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Email: "ghost@example.com", Password: "pass"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionService_Login_SupersedesRefreshToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)
	register(t, svc, "erin", "erin@example.com", "pw")

	first, err := svc.Login(context.Background(), ports.LoginInput{Username: "erin", Password: "pw"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(context.Background(), ports.LoginInput{Username: "erin", Password: "pw"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	// The earlier token is superseded: well-formed, but no account holds it.
	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for superseded token, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("current token should refresh: %v", err)
	}
}

func TestSessionService_Refresh_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc, tokens := newSessionService(repo)
	register(t, svc, "frank", "frank@example.com", "pw")

	pair, err := svc.Login(context.Background(), ports.LoginInput{Username: "frank", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := tokens.VerifyAccess(access)
	if err != nil {
		t.Fatalf("refreshed access token invalid: %v", err)
	}
	user, _ := repo.FindByUsername(context.Background(), "frank")
	if claims.Subject != user.ID {
		t.Fatalf("subject mismatch: got %s want %s", claims.Subject, user.ID)
	}

	// No rotation: the stored refresh token is unchanged and still usable.
	if user.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token should not rotate")
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second refresh with same token: %v", err)
	}
}

func TestSessionService_Refresh_Failures(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("refresh-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), signed); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSessionService_LogoutThenRefresh(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)
	register(t, svc, "grace", "grace@example.com", "pw")

	pair, err := svc.Login(context.Background(), ports.LoginInput{Username: "grace", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	user, _ := repo.FindByUsername(context.Background(), "grace")
	if user.RefreshToken != "" {
		t.Fatalf("refresh token not cleared")
	}

	// The signature still verifies, but no account holds the token anymore.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after logout, got %v", err)
	}
}

func TestSessionService_Logout_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := newSessionService(repo)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("empty token logout should succeed: %v", err)
	}
	if err := svc.Logout(context.Background(), "unknown-token"); err != nil {
		t.Fatalf("unknown token logout should succeed: %v", err)
	}
	if err := svc.Logout(context.Background(), "unknown-token"); err != nil {
		t.Fatalf("repeated logout should succeed: %v", err)
	}
}
