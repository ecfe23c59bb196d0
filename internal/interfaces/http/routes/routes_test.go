package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/pkg/auth"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *config.Config) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:            "test-secret-key-that-is-long-enough-123",
			AccessTokenExpiry: 30 * time.Minute,
		},
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetupRoutes(engine.Group("/api/v1"), gdb, cfg)

	return engine, mock, cfg
}

func TestListingAdminSeesPastApprovalFilter(t *testing.T) {
	engine, mock, cfg := newTestRouter(t)

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(1)
	require.NoError(t, err)

	// Principal resolution for the bearer token.
	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "is_active"}).
			AddRow(1, "admin", "admin", true))

	// Anchored patterns assert the approval filter is absent.
	mock.ExpectQuery(`^SELECT count\(\*\) FROM "products"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`^SELECT \* FROM "products" ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?include_pending=true", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAnonymousKeepsApprovalFilter(t *testing.T) {
	engine, mock, _ := newTestRouter(t)

	// No principal, so include_pending is ignored and the filter stays on.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE approval_status`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE approval_status`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?include_pending=true", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingFarmerTokenKeepsApprovalFilter(t *testing.T) {
	engine, mock, cfg := newTestRouter(t)

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(7)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM "users" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "is_active"}).
			AddRow(7, "mei", "farmer", true))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE approval_status`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE approval_status`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?include_pending=true", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
