// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/farmmarket-backend/internal/domain/product"
)

// Cart is a principal's mutable set of line items. Exactly one cart per user
// is active at a time (enforced by a partial unique index on user_id); the
// active cart is created lazily on first add and survives checkout with its
// items cleared and total zeroed.
type Cart struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	TotalAmount float64    `gorm:"not null;default:0" json:"total_amount"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Items       []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cart_items"`
}

// CartItem is a (product, quantity, subtotal) tuple inside a cart. The
// subtotal is recomputed and persisted on every mutation of the cart, never
// derived lazily.
type CartItem struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CartID    uint             `gorm:"not null;index" json:"cart_id"`
	ProductID uint             `gorm:"not null;index" json:"product_id"`
	Quantity  int              `gorm:"not null;default:1" json:"quantity"`
	Subtotal  float64          `gorm:"not null" json:"subtotal"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Product   *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }
