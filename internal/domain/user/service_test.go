package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"github.com/your-org/farmmarket-backend/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:            "test-secret-key-that-is-long-enough-123",
			AccessTokenExpiry: 30 * time.Minute,
		},
		Security: config.SecurityConfig{
			BcryptCost: bcrypt.MinCost,
		},
	}
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.NewPasswordManager(testConfig()).HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestLoginSuccess(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE username =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "role", "is_active"}).
			AddRow(1, "alice", hashFor(t, "secret123"), "buyer", true))

	tokens, err := svc.Login(context.Background(), &LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownUser(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE username =`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE username =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "role", "is_active"}).
			AddRow(1, "alice", hashFor(t, "secret123"), "buyer", true))

	_, err := svc.Login(context.Background(), &LoginRequest{Username: "alice", Password: "not-it"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLoginWithPhone(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE phone =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "phone", "role", "is_active"}).
			AddRow(2, "farmer-bob", hashFor(t, "bobpass"), "9876543210", "farmer", true))

	tokens, err := svc.LoginWithPhone(context.Background(), &PhoneLoginRequest{Phone: "9876543210", Password: "bobpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestSignupDuplicateUsername(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE username =`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.Signup(context.Background(), &SignupRequest{
		Username: "alice",
		Password: "secret123",
		FullName: "Alice",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSignupUnknownRole(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db, testConfig())

	_, err := svc.Signup(context.Background(), &SignupRequest{
		Username: "mallory",
		Password: "secret123",
		FullName: "Mallory",
		UserType: "superuser",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSignupSuccess(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE username =`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	resp, err := svc.Signup(context.Background(), &SignupRequest{
		Username: "carol",
		Password: "secret123",
		FullName: "Carol",
		UserType: "farmer",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), resp.ID)
	assert.Equal(t, RoleFarmer, resp.UserType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupConcurrentDuplicateHitsUniqueIndex(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, testConfig())

	// The pre-check passes but a concurrent signup wins the race; the insert
	// lands on the unique index and must surface as Conflict, not Internal.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE username =`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	_, err := svc.Signup(context.Background(), &SignupRequest{
		Username: "alice",
		Password: "secret123",
		FullName: "Alice",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db, _ := newTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)

	access, err := auth.NewJWTManager(cfg).GenerateAccessToken(1)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshDeactivatedUser(t *testing.T) {
	db, mock := newTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)

	refresh, err := auth.NewJWTManager(cfg).GenerateRefreshToken(1)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE id =`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err = svc.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
