package product

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
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

// expectProductLookup arranges the product fetch with its category preload.
func expectProductLookup(mock sqlmock.Sqlmock, id uint, status ApprovalStatus) {
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "category_id", "approval_status"}).
			AddRow(id, "Raw Honey", 300, 1, string(status)))
	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Honey & Preserves"))
}

func TestCreateBuyerForbidden(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Vegetables"))

	_, err := svc.Create(context.Background(), &CreateProductRequest{
		Title:       "Tomatoes",
		Description: "Fresh",
		Price:       120,
		CategoryID:  1,
	}, 7, user.RoleBuyer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateUnknownCategory(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.Create(context.Background(), &CreateProductRequest{
		Title:       "Tomatoes",
		Description: "Fresh",
		Price:       120,
		CategoryID:  42,
	}, 7, user.RoleFarmer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApproveAlreadyApproved(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectProductLookup(mock, 9, ApprovalApproved)

	_, err := svc.Approve(context.Background(), 9, 1)
	assert.ErrorIs(t, err, apperr.ErrAlreadyApproved)
}

func TestApproveRejectedProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectProductLookup(mock, 9, ApprovalRejected)

	_, err := svc.Approve(context.Background(), 9, 1)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRejectNonPendingProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	for _, status := range []ApprovalStatus{ApprovalApproved, ApprovalRejected} {
		expectProductLookup(mock, 9, status)

		_, err := svc.Reject(context.Background(), 9, 1)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "status %s", status)
	}
}

func expectOwnedProductLookup(mock sqlmock.Sqlmock, id uint, farmerID interface{}) {
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "category_id", "approval_status", "farmer_id"}).
			AddRow(id, "Raw Honey", 300, 1, "approved", farmerID))
	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Honey & Preserves"))
}

func TestUpdateOtherFarmersProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOwnedProductLookup(mock, 9, 8)

	_, err := svc.Update(context.Background(), 9, &CreateProductRequest{
		Title:       "Raw Honey",
		Description: "Half price",
		Price:       1,
		CategoryID:  1,
	}, 7, user.RoleFarmer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAdminListedProductAsFarmer(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	// Admin-created listings carry no farmer; no farmer owns them.
	expectOwnedProductLookup(mock, 9, nil)

	_, err := svc.Update(context.Background(), 9, &CreateProductRequest{
		Title:       "Raw Honey",
		Description: "Rebranded",
		Price:       250,
		CategoryID:  1,
	}, 7, user.RoleFarmer)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateOwnProductAsFarmer(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOwnedProductLookup(mock, 9, 7)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectOwnedProductLookup(mock, 9, 7)

	p, err := svc.Update(context.Background(), 9, &CreateProductRequest{
		Title:       "Raw Honey",
		Description: "New harvest",
		Price:       280,
		CategoryID:  1,
	}, 7, user.RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, uint(9), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetProductsEmptyCatalog(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .+ FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	resp, err := svc.GetProducts(context.Background(), &ListRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateRequiresListingRole(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db, &config.Config{})

	_, err := svc.BulkCreate(context.Background(), []BulkProductRequest{
		{Title: "Apples", Description: "Crisp", Price: 90, Category: "Fruits"},
	}, 7, user.RoleBuyer, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestBulkCreateRollsBackOnBadItem(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	// Category resolution fails mid-batch; the whole transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE name =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Fruits"))
	mock.ExpectQuery(`SELECT .+ FROM "categories" WHERE name =`).
		WillReturnError(gorm.ErrInvalidDB)
	mock.ExpectRollback()

	_, err := svc.BulkCreate(context.Background(), []BulkProductRequest{
		{Title: "Apples", Description: "Crisp", Price: 90, Category: "Fruits"},
		{Title: "Pears", Description: "Sweet", Price: 110, Category: "Fruits"},
	}, 7, user.RoleFarmer, false)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
