package order

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

// expectOrderLookup arranges the order fetch with its (empty) item preload.
func expectOrderLookup(mock sqlmock.Sqlmock, id, userID uint, status Status) {
	mock.ExpectQuery(`SELECT .+ FROM "orders" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total_amount", "status"}).
			AddRow(id, userID, 100.0, string(status)))
	mock.ExpectQuery(`SELECT .+ FROM "order_items" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}))
}

func TestCreateFromCartNoActiveCart(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := svc.CreateFromCart(context.Background(), 7, &CreateOrderRequest{
		PaymentMethod:   "COD",
		DeliveryAddress: "12 Market Lane",
	})
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "carts" WHERE user_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "is_active"}).AddRow(5, 7, true))
	mock.ExpectQuery(`SELECT .+ FROM "cart_items" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cart_id", "product_id", "quantity", "subtotal"}))
	mock.ExpectRollback()

	_, err := svc.CreateFromCart(context.Background(), 7, &CreateOrderRequest{
		PaymentMethod:   "COD",
		DeliveryAddress: "12 Market Lane",
	})
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderOwner(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusPending)

	o, err := svc.GetOrder(context.Background(), 1, 7, false)
	require.NoError(t, err)
	assert.Equal(t, uint(7), o.UserID)
}

func TestGetOrderStrangerSeesNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusPending)

	_, err := svc.GetOrder(context.Background(), 1, 8, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetOrderAdminSeesAny(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusPending)

	o, err := svc.GetOrder(context.Background(), 1, 99, true)
	require.NoError(t, err)
	assert.Equal(t, uint(1), o.ID)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db, &config.Config{})

	_, err := svc.UpdateStatus(context.Background(), 1, Status("Shipped"))
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestUpdateStatusGuardedTransition(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusDelivered)

	_, err := svc.UpdateStatus(context.Background(), 1, StatusPending)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancelNonPendingOrder(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusConfirmed)

	_, err := svc.Cancel(context.Background(), 1, 7)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancelSomeoneElsesOrder(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewService(db, &config.Config{})

	expectOrderLookup(mock, 1, 7, StatusPending)

	_, err := svc.Cancel(context.Background(), 1, 8)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetAllOrdersRejectsUnknownStatusFilter(t *testing.T) {
	db, _ := newTestDB(t)
	svc := NewService(db, &config.Config{})

	_, err := svc.GetAllOrders(context.Background(), 1, 20, Status("Shipped"))
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}
