// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/your-org/farmmarket-backend/internal/domain/product"
)

// Status represents the order status
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the four order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the guarded state machine permits moving
// from s to next. Forward path: Pending -> Confirmed -> Delivered; Pending
// may also move to Cancelled. Delivered and Cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusDelivered
	default:
		return false
	}
}

// Order is an immutable snapshot of a cart at conversion time. Only the
// status field changes after creation; item rows never reference cart rows,
// so later price or discount changes cannot alter an existing order.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"not null;index" json:"user_id"`
	TotalAmount     float64     `gorm:"not null" json:"total_amount"`
	PaymentMethod   string      `gorm:"not null;size:50" json:"payment_method"` // opaque, e.g. COD or UPI
	DeliveryAddress string      `gorm:"not null;size:500" json:"delivery_address"`
	Status          Status      `gorm:"not null;default:'Pending';index" json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"order_items"`
}

// OrderItem freezes a cart line at conversion time. PriceAtPurchase is the
// product's undiscounted unit price when the order was created.
type OrderItem struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	OrderID         uint             `gorm:"not null;index" json:"order_id"`
	ProductID       uint             `gorm:"not null;index" json:"product_id"`
	Quantity        int              `gorm:"not null" json:"quantity"`
	PriceAtPurchase float64          `gorm:"not null" json:"price_at_purchase"`
	Subtotal        float64          `gorm:"not null" json:"subtotal"`
	CreatedAt       time.Time        `json:"created_at"`
	Product         *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// CanBeCancelledBy reports whether the guarded cancel path is open for the
// given principal: owners may cancel only while the order is still Pending.
func (o *Order) CanBeCancelledBy(userID uint) bool {
	return o.UserID == userID && o.Status == StatusPending
}
