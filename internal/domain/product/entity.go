// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/lib/pq"
)

// ApprovalStatus gates whether a listed product is sellable and visible.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Product represents a catalog entry. Price is in whole currency units; the
// discount percentage applies at cart time, never to price_at_purchase.
type Product struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"not null;size:255" json:"title"`
	Description        string         `gorm:"type:text;not null" json:"description"`
	Price              int64          `gorm:"not null" json:"price"`
	DiscountPercentage float64        `gorm:"not null;default:0" json:"discount_percentage"`
	Rating             float64        `gorm:"not null;default:0" json:"rating"`
	Stock              int            `gorm:"not null;default:0" json:"stock"`
	Brand              string         `gorm:"size:255" json:"brand"`
	Thumbnail          string         `gorm:"size:500" json:"thumbnail"`
	Images             pq.StringArray `gorm:"type:text[]" json:"images"`
	IsPublished        bool           `gorm:"default:true" json:"is_published"`

	CategoryID uint     `gorm:"not null;index" json:"category_id"`
	Category   Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`

	// Approval workflow: farmer-created products start pending, admin-created
	// products start approved with approver and timestamp stamped.
	ApprovalStatus ApprovalStatus `gorm:"not null;default:'pending';index;size:20" json:"approval_status"`
	FarmerID       *uint          `gorm:"index" json:"farmer_id,omitempty"`
	ApprovedBy     *uint          `gorm:"index" json:"approved_by,omitempty"`
	ApprovalDate   *time.Time     `json:"approval_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category represents product categories
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// IsApproved reports whether the product may appear in default listings and
// be added to carts.
func (p *Product) IsApproved() bool {
	return p.ApprovalStatus == ApprovalApproved
}
