// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/cart"
	"github.com/your-org/farmmarket-backend/internal/domain/pricing"
	"github.com/your-org/farmmarket-backend/internal/domain/product"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles order conversion and lifecycle business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateOrderRequest represents checkout data
type CreateOrderRequest struct {
	PaymentMethod   string `json:"payment_method" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
}

// UpdateStatusRequest represents a lifecycle transition request
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// ListResponse represents a paginated order listing
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// CreateFromCart converts the user's active cart into an order atomically.
// The cart is locked for the duration; each line is frozen with the product's
// current undiscounted price as price_at_purchase while the charged subtotal
// keeps the cart-time discount. On success the cart is emptied and zeroed in
// the same transaction, so checkout either fully happens or not at all.
func (s *Service) CreateFromCart(ctx context.Context, userID uint, req *CreateOrderRequest) (*Order, error) {
	var orderID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c cart.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND is_active = ?", userID, true).
			First(&c).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrEmptyCart
			}
			return err
		}

		var items []cart.CartItem
		if err := tx.Where("cart_id = ?", c.ID).Order("id asc").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.ErrEmptyCart
		}

		o := Order{
			UserID:          userID,
			PaymentMethod:   req.PaymentMethod,
			DeliveryAddress: req.DeliveryAddress,
			Status:          StatusPending,
		}

		var total float64
		orderItems := make([]OrderItem, 0, len(items))
		for _, item := range items {
			var p product.Product
			if err := tx.First(&p, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d: %w", item.ProductID, apperr.ErrNotFound)
				}
				return err
			}

			orderItems = append(orderItems, OrderItem{
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				PriceAtPurchase: float64(p.Price),
				Subtotal:        item.Subtotal,
			})
			total += item.Subtotal
		}
		o.TotalAmount = pricing.Round2(total)

		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range orderItems {
			orderItems[i].OrderID = o.ID
			if err := tx.Create(&orderItems[i]).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&cart.Cart{}).Where("id = ?", c.ID).Update("total_amount", 0).Error; err != nil {
			return err
		}

		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"user_id":  userID,
	}).Info("order created from cart")

	return s.getByID(ctx, orderID)
}

// GetMyOrders lists the caller's orders, newest first.
func (s *Service) GetMyOrders(ctx context.Context, userID uint, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	var orders []Order
	err := query.Preload("Items").Preload("Items.Product").
		Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return &ListResponse{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// GetOrder retrieves a single order. Owners see their own orders; admins see
// any. Everyone else gets NotFound rather than Forbidden so order IDs do not
// leak existence.
func (s *Service) GetOrder(ctx context.Context, orderID, callerID uint, isAdmin bool) (*Order, error) {
	o, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != callerID && !isAdmin {
		return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	return o, nil
}

// GetAllOrders lists every order in the system (admin view), newest first,
// optionally filtered by status.
func (s *Service) GetAllOrders(ctx context.Context, page, limit int, status Status) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", status, apperr.ErrInvalidTransition)
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return &ListResponse{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

// UpdateStatus moves an order along the guarded lifecycle. Transitions not
// permitted by the state machine are rejected, including any move out of the
// terminal Delivered and Cancelled states.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", next, apperr.ErrInvalidTransition)
	}

	o, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", o.Status, next, apperr.ErrInvalidTransition)
	}

	if err := s.db.WithContext(ctx).Model(o).Update("status", next).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to update order status: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     o.Status,
		"to":       next,
	}).Info("order status updated")

	return s.getByID(ctx, orderID)
}

// ForceSetStatus writes a status without consulting the state machine. This
// is the admin escape hatch for correcting records; routine transitions go
// through UpdateStatus.
func (s *Service) ForceSetStatus(ctx context.Context, orderID uint, next Status, adminID uint) (*Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", next, apperr.ErrInvalidTransition)
	}

	o, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(o).Update("status", next).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to set order status: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     o.Status,
		"to":       next,
		"admin_id": adminID,
	}).Warn("order status force-set")

	return s.getByID(ctx, orderID)
}

// Cancel lets an owner cancel their own order while it is still Pending.
func (s *Service) Cancel(ctx context.Context, orderID, userID uint) (*Order, error) {
	o, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if !o.CanBeCancelledBy(userID) {
		return nil, fmt.Errorf("order in status %s cannot be cancelled: %w", o.Status, apperr.ErrInvalidTransition)
	}

	if err := s.db.WithContext(ctx).Model(o).Update("status", StatusCancelled).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to cancel order: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"order_id": orderID,
		"user_id":  userID,
	}).Info("order cancelled")

	return s.getByID(ctx, orderID)
}

// Delete removes an order and its items (admin only). Item rows go first so
// the delete also works without database-level cascade.
func (s *Service) Delete(ctx context.Context, orderID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
			}
			return err
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&o).Error
	})
	return apperr.FromContext(ctx, err)
}

func (s *Service) getByID(ctx context.Context, orderID uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("Items.Product").
		First(&o, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
		}
		return nil, apperr.FromContext(ctx, err)
	}
	return &o, nil
}
