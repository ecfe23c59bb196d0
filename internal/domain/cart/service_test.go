package cart

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/farmmarket-backend/internal/config"
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

func TestGetCartCreatesWhenMissing(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id =`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "carts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	c, err := svc.GetCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(5), c.ID)
	assert.Equal(t, uint(7), c.UserID)
	assert.True(t, c.IsActive)
	assert.Zero(t, c.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db, &config.Config{})

	for _, qty := range []int{0, -3} {
		_, err := svc.AddItem(context.Background(), 1, &AddItemRequest{ProductID: 1, Quantity: qty})
		assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 7, &AddItemRequest{ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemRejectsUnapprovedProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "approval_status"}).
			AddRow(99, "Raw Honey", 300, "pending"))
	mock.ExpectRollback()

	_, err := svc.AddItem(context.Background(), 7, &AddItemRequest{ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveItemNotInCart(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectExec(`DELETE FROM "cart_items"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.RemoveItem(context.Background(), 7, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemVanishedProduct(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	// The line exists but its product was deleted from the catalog.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "cart_items" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "product_id", "quantity", "subtotal"}).
			AddRow(11, 5, 99, 2, 160.0))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := svc.UpdateItem(context.Background(), 7, 99, &UpdateItemRequest{Quantity: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceItemsRejectsDuplicateLines(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "approval_status"}).
			AddRow(3, "Carrots", 80, "approved"))
	mock.ExpectRollback()

	_, err := svc.ReplaceItems(context.Background(), 7, &ReplaceItemsRequest{
		Items: []AddItemRequest{
			{ProductID: 3, Quantity: 1},
			{ProductID: 3, Quantity: 2},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestReplaceItemsValidatesBeforeTouchingCart(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	// Second line fails validation; no DELETE or INSERT may run.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "approval_status"}).
			AddRow(3, "Carrots", 80, "approved"))
	mock.ExpectQuery(`SELECT .+ FROM "products" WHERE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := svc.ReplaceItems(context.Background(), 7, &ReplaceItemsRequest{
		Items: []AddItemRequest{
			{ProductID: 3, Quantity: 1},
			{ProductID: 404, Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
