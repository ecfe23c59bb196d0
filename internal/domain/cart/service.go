// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/pricing"
	"github.com/your-org/farmmarket-backend/internal/domain/product"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles cart business logic. Every mutation runs inside a
// transaction that takes a row lock on the active cart, so concurrent
// requests against the same cart serialize instead of clobbering the
// persisted subtotals.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddItemRequest represents adding an item to cart
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest replaces a line's quantity outright.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ReplaceItemsRequest swaps the entire cart contents in one call.
type ReplaceItemsRequest struct {
	Items []AddItemRequest `json:"items" binding:"required,dive"`
}

// GetCart returns the user's active cart with items and products preloaded,
// creating an empty one if none exists yet.
func (s *Service) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id asc") }).
		Preload("Items.Product").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.FromContext(ctx, err)
	}

	c = Cart{UserID: userID, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to create cart: %w", err))
	}
	return &c, nil
}

// AddItem adds a product to the user's active cart. Adding a product already
// in the cart increments its quantity; the line subtotal and cart total are
// recomputed from the product's current price and discount before commit.
func (s *Service) AddItem(ctx context.Context, userID uint, req *AddItemRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockActiveCart(tx, userID)
		if err != nil {
			return err
		}

		var p product.Product
		if err := tx.First(&p, req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", req.ProductID, apperr.ErrNotFound)
			}
			return err
		}
		if !p.IsApproved() {
			return fmt.Errorf("product %d is not approved for sale: %w", p.ID, apperr.ErrNotFound)
		}

		quote := pricing.Quote{UnitPrice: p.Price, DiscountPercent: p.DiscountPercentage}

		var item CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", c.ID, req.ProductID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += req.Quantity
			item.Subtotal, err = quote.LineSubtotal(item.Quantity)
			if err != nil {
				return err
			}
			if err := tx.Model(&item).Updates(map[string]interface{}{
				"quantity": item.Quantity,
				"subtotal": item.Subtotal,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			subtotal, serr := quote.LineSubtotal(req.Quantity)
			if serr != nil {
				return serr
			}
			item = CartItem{
				CartID:    c.ID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Subtotal:  subtotal,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return s.recomputeTotal(tx, c.ID)
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	}).Info("cart item added")

	return s.GetCart(ctx, userID)
}

// UpdateItem sets a cart line's quantity to an absolute value and recomputes
// the subtotal from the product's current price and discount.
func (s *Service) UpdateItem(ctx context.Context, userID, productID uint, req *UpdateItemRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockActiveCart(tx, userID)
		if err != nil {
			return err
		}

		var item CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d not in cart: %w", productID, apperr.ErrNotFound)
			}
			return err
		}

		var p product.Product
		if err := tx.First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", productID, apperr.ErrNotFound)
			}
			return err
		}

		quote := pricing.Quote{UnitPrice: p.Price, DiscountPercent: p.DiscountPercentage}
		subtotal, err := quote.LineSubtotal(req.Quantity)
		if err != nil {
			return err
		}

		if err := tx.Model(&item).Updates(map[string]interface{}{
			"quantity": req.Quantity,
			"subtotal": subtotal,
		}).Error; err != nil {
			return err
		}

		return s.recomputeTotal(tx, c.ID)
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line from the active cart and recomputes the total.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockActiveCart(tx, userID)
		if err != nil {
			return err
		}

		result := tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).Delete(&CartItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("product %d not in cart: %w", productID, apperr.ErrNotFound)
		}

		return s.recomputeTotal(tx, c.ID)
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return s.GetCart(ctx, userID)
}

// ReplaceItems swaps the entire cart contents using two-phase
// validate-then-commit: every requested product is resolved and priced before
// the existing lines are touched, so a bad line leaves the cart unchanged.
func (s *Service) ReplaceItems(ctx context.Context, userID uint, req *ReplaceItemsRequest) (*Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockActiveCart(tx, userID)
		if err != nil {
			return err
		}

		// Phase 1: validate every line against the live catalog.
		newItems := make([]CartItem, 0, len(req.Items))
		seen := make(map[uint]bool, len(req.Items))
		for _, line := range req.Items {
			if line.Quantity < 1 {
				return apperr.ErrInvalidQuantity
			}
			if seen[line.ProductID] {
				return fmt.Errorf("duplicate product %d in replacement: %w", line.ProductID, apperr.ErrConflict)
			}
			seen[line.ProductID] = true

			var p product.Product
			if err := tx.First(&p, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d: %w", line.ProductID, apperr.ErrNotFound)
				}
				return err
			}
			if !p.IsApproved() {
				return fmt.Errorf("product %d is not approved for sale: %w", p.ID, apperr.ErrNotFound)
			}

			quote := pricing.Quote{UnitPrice: p.Price, DiscountPercent: p.DiscountPercentage}
			subtotal, err := quote.LineSubtotal(line.Quantity)
			if err != nil {
				return err
			}
			newItems = append(newItems, CartItem{
				CartID:    c.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Subtotal:  subtotal,
			})
		}

		// Phase 2: commit the swap.
		if err := tx.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		for i := range newItems {
			if err := tx.Create(&newItems[i]).Error; err != nil {
				return err
			}
		}

		return s.recomputeTotal(tx, c.ID)
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return s.GetCart(ctx, userID)
}

// Clear removes all lines from the active cart and zeroes its total.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.lockActiveCart(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", c.ID).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&Cart{}).Where("id = ?", c.ID).Update("total_amount", 0).Error
	})
	return apperr.FromContext(ctx, err)
}

// lockActiveCart fetches the user's active cart under FOR UPDATE, creating it
// first if the user has never carted. Must be called inside a transaction.
func (s *Service) lockActiveCart(tx *gorm.DB, userID uint) (*Cart, error) {
	var c Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = Cart{UserID: userID, IsActive: true}
	if err := tx.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &c, nil
}

// recomputeTotal re-derives the cart total as the sum of persisted line
// subtotals and writes it back.
func (s *Service) recomputeTotal(tx *gorm.DB, cartID uint) error {
	var items []CartItem
	if err := tx.Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return err
	}

	var total float64
	for _, item := range items {
		total += item.Subtotal
	}
	total = pricing.Round2(total)

	return tx.Model(&Cart{}).Where("id = ?", cartID).Update("total_amount", total).Error
}
