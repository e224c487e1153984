package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/crypto/bcrypt"

	"github.com/kabilangimba/team-task-management-system/database"
	domain "github.com/kabilangimba/team-task-management-system/domain/user"
)

// nopLogger implements types.Logger for testing.
type nopLogger struct{}

func (l *nopLogger) Debug(_ string, _ ...any) {}
func (l *nopLogger) Info(_ string, _ ...any)  {}
func (l *nopLogger) Warn(_ string, _ ...any)  {}
func (l *nopLogger) Error(_ string, _ ...any) {}
func (l *nopLogger) With(_ ...any) types.Logger {
	return l
}
func (l *nopLogger) WithModule(_ string) types.Logger {
	return l
}
func (l *nopLogger) WithError(_ error) types.Logger {
	return l
}

// setupTestService creates an AuthService over an in-memory SQLite database.
func setupTestService(t *testing.T, opts ...Option) *AuthService {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath}, Models()...)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	return NewAuthService(
		NewUserRepository(db),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		NewJWTManager(testJWTConfig()),
		&nopLogger{},
		opts...,
	)
}

func TestAuthService_RegisterAlwaysCreatesMembers(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "alice@example.com", "password123", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Role != domain.RoleMember {
		t.Errorf("Role = %v, want member", user.Role)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plain text")
	}

	if _, err := s.Register(ctx, "alice@example.com", "password123", "Alice"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate Register() error = %v, want ErrUserExists", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	s := setupTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "bad email", email: "not-an-email", password: "password123", wantErr: ErrInvalidEmail},
		{name: "short password", email: "bob@example.com", password: "short", wantErr: ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tt.email, tt.password, ""); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	created, err := s.Bootstrap(ctx, NewUser{Email: "boss@example.com", Password: "password123", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if _, err := s.Login(ctx, "boss@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() for unknown user error = %v, want ErrInvalidCredentials", err)
	}

	tokens, err := s.Login(ctx, "boss@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tokens.TokenType)
	}

	claims, err := s.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Principal() != created.Principal() {
		t.Errorf("Principal() = %+v, want %+v", claims.Principal(), created.Principal())
	}

	refreshed, err := s.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if _, err := s.ValidateToken(ctx, refreshed.AccessToken); err != nil {
		t.Errorf("ValidateToken(refreshed) error = %v", err)
	}
	if _, err := s.RefreshTokens(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("RefreshTokens(access token) error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthService_CreateUserRequiresAdmin(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	in := NewUser{Email: "m@example.com", Password: "password123", Role: domain.RoleManager}

	for _, role := range []domain.Role{domain.RoleManager, domain.RoleMember} {
		actor := domain.Principal{ID: "x", Role: role}
		if _, err := s.CreateUser(ctx, actor, in); !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("CreateUser() by %s error = %v, want ErrPermissionDenied", role, err)
		}
	}

	admin := domain.Principal{ID: "a", Role: domain.RoleAdmin}
	user, err := s.CreateUser(ctx, admin, in)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Role != domain.RoleManager {
		t.Errorf("Role = %v, want manager", user.Role)
	}

	bad := NewUser{Email: "x@example.com", Password: "password123", Role: "owner"}
	if _, err := s.CreateUser(ctx, admin, bad); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("CreateUser() with unknown role error = %v, want ErrInvalidRole", err)
	}
}

func TestAuthService_ListUsers(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	for _, in := range []NewUser{
		{Email: "b@example.com", Password: "password123", Role: domain.RoleMember},
		{Email: "a@example.com", Password: "password123", Role: domain.RoleManager},
		{Email: "c@example.com", Password: "password123", Role: domain.RoleAdmin},
	} {
		if _, err := s.Bootstrap(ctx, in); err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
	}

	if _, err := s.ListUsers(ctx, domain.Principal{ID: "m", Role: domain.RoleMember}, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("ListUsers() by member error = %v, want ErrPermissionDenied", err)
	}

	manager := domain.Principal{ID: "m", Role: domain.RoleManager}
	all, err := s.ListUsers(ctx, manager, nil)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(all) != 3 || all[0].Email != "a@example.com" {
		t.Errorf("ListUsers() = %d users starting with %q, want 3 ordered by email", len(all), all[0].Email)
	}

	member := domain.RoleMember
	members, err := s.ListUsers(ctx, manager, &member)
	if err != nil {
		t.Fatalf("ListUsers(member) error = %v", err)
	}
	if len(members) != 1 || members[0].Role != domain.RoleMember {
		t.Errorf("ListUsers(member) = %+v", members)
	}
}

func TestAuthService_Seed(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	seed, err := ParseSeed([]byte(`
users:
  - email: admin@example.com
    password: admin-password
    name: Admin
    role: admin
  - email: lead@example.com
    password: lead-password
    role: manager
`))
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}

	n, err := s.Seed(ctx, seed)
	if err != nil || n != 2 {
		t.Fatalf("Seed() = %d, %v, want 2, nil", n, err)
	}

	n, err = s.Seed(ctx, seed)
	if err != nil || n != 0 {
		t.Fatalf("second Seed() = %d, %v, want 0, nil", n, err)
	}

	if _, err := ParseSeed([]byte("users:\n  - email: x@example.com\n    role: root\n")); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseSeed() with unknown role error = %v, want ErrInvalidRole", err)
	}
}

// recordingEvents remembers every account change.
type recordingEvents struct {
	updated [][2]domain.Role
	deleted []string
}

func (e *recordingEvents) UserUpdated(_ context.Context, _ domain.Principal, before, after *domain.User) {
	e.updated = append(e.updated, [2]domain.Role{before.Role, after.Role})
}

func (e *recordingEvents) UserDeleted(_ context.Context, _ domain.Principal, u *domain.User) {
	e.deleted = append(e.deleted, u.ID)
}

func mustBootstrap(t *testing.T, s *AuthService, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := s.Bootstrap(context.Background(), NewUser{Email: email, Password: "password123", Role: role})
	if err != nil {
		t.Fatalf("Bootstrap(%s) error = %v", email, err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestAuthService_ViewUser(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	member := mustBootstrap(t, s, "m@example.com", domain.RoleMember)
	other := mustBootstrap(t, s, "o@example.com", domain.RoleMember)
	manager := mustBootstrap(t, s, "boss@example.com", domain.RoleManager)

	if got, err := s.ViewUser(ctx, member.Principal(), member.ID); err != nil || got.ID != member.ID {
		t.Errorf("ViewUser(self) = %v, %v", got, err)
	}
	if _, err := s.ViewUser(ctx, member.Principal(), other.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("ViewUser(other) by member error = %v, want ErrPermissionDenied", err)
	}
	if _, err := s.ViewUser(ctx, manager.Principal(), other.ID); err != nil {
		t.Errorf("ViewUser(other) by manager error = %v", err)
	}
	if _, err := s.ViewUser(ctx, manager.Principal(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ViewUser(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestAuthService_UpdateUser(t *testing.T) {
	events := &recordingEvents{}
	s := setupTestService(t, WithUserEvents(events))
	ctx := context.Background()
	admin := mustBootstrap(t, s, "admin@example.com", domain.RoleAdmin)
	member := mustBootstrap(t, s, "m@example.com", domain.RoleMember)
	other := mustBootstrap(t, s, "o@example.com", domain.RoleMember)
	promote := domain.RoleManager

	updated, err := s.UpdateUser(ctx, member.Principal(), member.ID, UserUpdate{Name: strPtr(" Mia "), Email: strPtr("mia@example.com")})
	if err != nil {
		t.Fatalf("UpdateUser(self) error = %v", err)
	}
	if updated.Name != "Mia" || updated.Email != "mia@example.com" || updated.Role != domain.RoleMember {
		t.Errorf("UpdateUser(self) = %+v", updated)
	}
	if _, err := s.Login(ctx, "mia@example.com", "password123"); err != nil {
		t.Errorf("Login() with the new email error = %v", err)
	}

	tests := []struct {
		name    string
		actor   domain.Principal
		target  string
		in      UserUpdate
		wantErr error
	}{
		{"member edits another account", member.Principal(), other.ID, UserUpdate{Name: strPtr("x")}, ErrPermissionDenied},
		{"member promotes themselves", member.Principal(), member.ID, UserUpdate{Role: &promote}, ErrPermissionDenied},
		{"email already taken", member.Principal(), member.ID, UserUpdate{Email: strPtr("o@example.com")}, ErrUserExists},
		{"malformed email", member.Principal(), member.ID, UserUpdate{Email: strPtr("nope")}, ErrInvalidEmail},
		{"unknown role", admin.Principal(), other.ID, UserUpdate{Role: (*domain.Role)(strPtr("owner"))}, ErrInvalidRole},
		{"missing account", admin.Principal(), "missing", UserUpdate{Name: strPtr("x")}, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.UpdateUser(ctx, tt.actor, tt.target, tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateUser() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	promoted, err := s.UpdateUser(ctx, admin.Principal(), other.ID, UserUpdate{Role: &promote})
	if err != nil {
		t.Fatalf("UpdateUser(role) by admin error = %v", err)
	}
	if promoted.Role != domain.RoleManager {
		t.Errorf("Role = %v, want manager", promoted.Role)
	}

	want := [][2]domain.Role{
		{domain.RoleMember, domain.RoleMember},
		{domain.RoleMember, domain.RoleManager},
	}
	if len(events.updated) != len(want) || events.updated[0] != want[0] || events.updated[1] != want[1] {
		t.Errorf("UserUpdated events = %v, want %v", events.updated, want)
	}
}

func TestAuthService_DeleteUser(t *testing.T) {
	events := &recordingEvents{}
	s := setupTestService(t, WithUserEvents(events))
	ctx := context.Background()
	admin := mustBootstrap(t, s, "admin@example.com", domain.RoleAdmin)
	manager := mustBootstrap(t, s, "boss@example.com", domain.RoleManager)
	member := mustBootstrap(t, s, "m@example.com", domain.RoleMember)

	if err := s.DeleteUser(ctx, manager.Principal(), member.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("DeleteUser() by manager error = %v, want ErrPermissionDenied", err)
	}
	if err := s.DeleteUser(ctx, admin.Principal(), member.ID); err != nil {
		t.Fatalf("DeleteUser() by admin error = %v", err)
	}
	if _, err := s.GetUser(ctx, member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() after delete error = %v, want ErrUserNotFound", err)
	}
	if err := s.DeleteUser(ctx, admin.Principal(), member.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrUserNotFound", err)
	}

	tokens, err := s.Login(ctx, "boss@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := s.DeleteUser(ctx, manager.Principal(), manager.ID); err != nil {
		t.Fatalf("DeleteUser(self) error = %v", err)
	}
	if _, err := s.RefreshTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("RefreshTokens() for a deleted user error = %v, want ErrInvalidCredentials", err)
	}

	if len(events.deleted) != 2 || events.deleted[0] != member.ID || events.deleted[1] != manager.ID {
		t.Errorf("UserDeleted events = %v, want [%s %s]", events.deleted, member.ID, manager.ID)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	member := mustBootstrap(t, s, "m@example.com", domain.RoleMember)

	if err := s.ChangePassword(ctx, member.Principal(), "wrong-password", "new-password"); !errors.Is(err, ErrIncorrectPassword) {
		t.Errorf("ChangePassword() with wrong current password error = %v, want ErrIncorrectPassword", err)
	}
	if err := s.ChangePassword(ctx, member.Principal(), "password123", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("ChangePassword() to a short password error = %v, want ErrWeakPassword", err)
	}
	if err := s.ChangePassword(ctx, member.Principal(), "password123", "new-password"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := s.Login(ctx, "m@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with the old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Login(ctx, "m@example.com", "new-password"); err != nil {
		t.Errorf("Login() with the new password error = %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	member := mustBootstrap(t, s, "m@example.com", domain.RoleMember)
	other := mustBootstrap(t, s, "o@example.com", domain.RoleMember)

	tokens, err := s.Login(ctx, "m@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	second, err := s.Login(ctx, "m@example.com", "password123")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	if err := s.Logout(ctx, other.Principal(), tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Logout() with someone else's token error = %v, want ErrInvalidToken", err)
	}
	if err := s.Logout(ctx, member.Principal(), tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Logout() with an access token error = %v, want ErrInvalidToken", err)
	}

	if err := s.Logout(ctx, member.Principal(), tokens.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := s.Logout(ctx, member.Principal(), tokens.RefreshToken); err != nil {
		t.Errorf("repeated Logout() error = %v", err)
	}
	if _, err := s.RefreshTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("RefreshTokens() after logout error = %v, want ErrInvalidToken", err)
	}

	// Only the logged-out session ends.
	if _, err := s.RefreshTokens(ctx, second.RefreshToken); err != nil {
		t.Errorf("RefreshTokens() for another session error = %v", err)
	}
	if _, err := s.ValidateToken(ctx, tokens.AccessToken); err != nil {
		t.Errorf("ValidateToken() after logout error = %v, want the access token to stay valid", err)
	}
}

func TestFailure_RoundTrip(t *testing.T) {
	for _, c := range errorCodes {
		f, ok := failure(c.err)
		if !ok {
			t.Fatalf("failure(%v) not ok", c.err)
		}
		if got := f.Err(); !errors.Is(got, c.err) {
			t.Errorf("Err() = %v, want %v", got, c.err)
		}
	}

	if _, ok := failure(errors.New("disk I/O error")); ok {
		t.Error("failure() should not encode infrastructure errors")
	}
	if (Failure{}).Err() != nil {
		t.Error("empty Failure should not be an error")
	}
}
