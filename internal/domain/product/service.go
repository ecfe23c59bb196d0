// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles product catalog and approval business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        string   `json:"description" binding:"required"`
	Price              int64    `json:"price" binding:"required,min=0"`
	DiscountPercentage float64  `json:"discount_percentage" binding:"min=0,max=100"`
	Rating             float64  `json:"rating" binding:"min=0,max=5"`
	Stock              int      `json:"stock" binding:"min=0"`
	Brand              string   `json:"brand"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
	IsPublished        *bool    `json:"is_published"`
	CategoryID         uint     `json:"category_id" binding:"required"`
}

// BulkProductRequest is the flattened payload used by bulk creation; the
// category is referenced by name and created on demand.
type BulkProductRequest struct {
	Title              string  `json:"title" binding:"required"`
	Description        string  `json:"description" binding:"required"`
	Price              int64   `json:"price" binding:"required,min=0"`
	DiscountPercentage float64 `json:"discount_percentage" binding:"min=0,max=100"`
	Rating             float64 `json:"rating" binding:"min=0,max=5"`
	Stock              int     `json:"stock" binding:"min=0"`
	Brand              string  `json:"brand"`
	Image              string  `json:"image"`
	IsPublished        bool    `json:"is_published"`
	Category           string  `json:"category" binding:"required"`
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page           int    `form:"page,default=1"`
	Limit          int    `form:"limit,default=20"`
	Search         string `form:"search"`
	IncludePending bool   `form:"include_pending"`
}

// ListResponse represents a paginated product listing
type ListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// GetProducts lists catalog entries with title substring search and
// pagination. Default listings are restricted to approved products; only the
// admin view may request the unfiltered set via IncludePending.
func (s *Service) GetProducts(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Product{}).Preload("Category")

	if req.Search != "" {
		query = query.Where("title ILIKE ?", "%"+req.Search+"%")
	}
	if !req.IncludePending {
		query = query.Where("approval_status = ?", ApprovalApproved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("id asc").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return &ListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.FromContext(ctx, err)
	}
	return &p, nil
}

// Create creates a product on behalf of a principal. The creator's role
// decides the initial approval state: farmer listings await review, admin
// listings go live immediately. Buyers cannot list products.
func (s *Service) Create(ctx context.Context, req *CreateProductRequest, creatorID uint, role user.Role) (*Product, error) {
	var category Category
	err := s.db.WithContext(ctx).First(&category, req.CategoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", req.CategoryID, apperr.ErrNotFound)
		}
		return nil, apperr.FromContext(ctx, err)
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	p := Product{
		Title:              req.Title,
		Description:        req.Description,
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		Rating:             req.Rating,
		Stock:              req.Stock,
		Brand:              req.Brand,
		Thumbnail:          req.Thumbnail,
		Images:             req.Images,
		IsPublished:        published,
		CategoryID:         req.CategoryID,
	}

	switch role {
	case user.RoleFarmer:
		p.ApprovalStatus = ApprovalPending
		p.FarmerID = &creatorID
	case user.RoleAdmin:
		now := time.Now().UTC()
		p.ApprovalStatus = ApprovalApproved
		p.ApprovedBy = &creatorID
		p.ApprovalDate = &now
	case user.RoleBuyer:
		return nil, fmt.Errorf("buyers cannot list products: %w", apperr.ErrForbidden)
	default:
		return nil, fmt.Errorf("unknown role %q: %w", role, apperr.ErrForbidden)
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to create product: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"product_id":      p.ID,
		"approval_status": p.ApprovalStatus,
		"creator_id":      creatorID,
	}).Info("product created")

	return &p, nil
}

// Update replaces the mutable catalog fields of a product. Admins may update
// any listing; farmers only listings they created.
func (s *Service) Update(ctx context.Context, id uint, req *CreateProductRequest, callerID uint, role user.Role) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	switch role {
	case user.RoleAdmin:
	case user.RoleFarmer:
		if p.FarmerID == nil || *p.FarmerID != callerID {
			return nil, fmt.Errorf("product %d belongs to another seller: %w", id, apperr.ErrForbidden)
		}
	default:
		return nil, fmt.Errorf("role %q cannot update products: %w", role, apperr.ErrForbidden)
	}

	updates := map[string]interface{}{
		"title":               req.Title,
		"description":         req.Description,
		"price":               req.Price,
		"discount_percentage": req.DiscountPercentage,
		"rating":              req.Rating,
		"stock":               req.Stock,
		"brand":               req.Brand,
		"thumbnail":           req.Thumbnail,
		"category_id":         req.CategoryID,
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to update product: %w", err))
	}

	return s.GetProduct(ctx, id)
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return apperr.FromContext(ctx, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// BulkCreateResult summarizes a bulk creation run.
type BulkCreateResult struct {
	Created []Product `json:"created"`
	Skipped int       `json:"skipped"`
	Total   int       `json:"total"`
}

// BulkCreate inserts a batch of products in one transaction using a two-phase
// validate-all-then-commit-all protocol: every payload and category is
// resolved before the first row is written, and any failure rolls the whole
// batch back. Farmer batches start pending, admin batches start approved.
func (s *Service) BulkCreate(ctx context.Context, items []BulkProductRequest, creatorID uint, role user.Role, skipDuplicates bool) (*BulkCreateResult, error) {
	if role != user.RoleFarmer && role != user.RoleAdmin {
		return nil, fmt.Errorf("bulk creation requires farmer or admin role: %w", apperr.ErrForbidden)
	}

	result := &BulkCreateResult{Total: len(items)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Phase 1: validate every item and resolve every category before any
		// product row is written.
		type staged struct {
			item     BulkProductRequest
			category uint
		}
		var toCreate []staged

		for _, item := range items {
			if skipDuplicates {
				var count int64
				if err := tx.Model(&Product{}).Where("title = ?", item.Title).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					result.Skipped++
					continue
				}
			}

			var category Category
			err := tx.Where("name = ?", item.Category).First(&category).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				category = Category{Name: item.Category}
				if err := tx.Create(&category).Error; err != nil {
					return fmt.Errorf("failed to create category %q: %w", item.Category, err)
				}
			} else if err != nil {
				return err
			}

			toCreate = append(toCreate, staged{item: item, category: category.ID})
		}

		// Phase 2: commit the whole batch.
		for _, st := range toCreate {
			p := Product{
				Title:              st.item.Title,
				Description:        st.item.Description,
				Price:              st.item.Price,
				DiscountPercentage: st.item.DiscountPercentage,
				Rating:             st.item.Rating,
				Stock:              st.item.Stock,
				Brand:              st.item.Brand,
				Thumbnail:          st.item.Image,
				Images:             []string{st.item.Image},
				IsPublished:        st.item.IsPublished,
				CategoryID:         st.category,
			}

			if role == user.RoleFarmer {
				p.ApprovalStatus = ApprovalPending
				p.FarmerID = &creatorID
			} else {
				now := time.Now().UTC()
				p.ApprovalStatus = ApprovalApproved
				p.ApprovedBy = &creatorID
				p.ApprovalDate = &now
			}

			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to create product %q: %w", p.Title, err)
			}
			result.Created = append(result.Created, p)
		}

		return nil
	})
	if err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return result, nil
}

// GetPending lists products awaiting admin review, newest first.
func (s *Service) GetPending(ctx context.Context, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Model(&Product{}).
		Where("approval_status = ?", ApprovalPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	var products []Product
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		return nil, apperr.FromContext(ctx, err)
	}

	return &ListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

// Approve moves a pending product to approved and stamps the approver and
// time. Approved and rejected are terminal states.
func (s *Service) Approve(ctx context.Context, productID, adminID uint) (*Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	switch p.ApprovalStatus {
	case ApprovalApproved:
		return nil, apperr.ErrAlreadyApproved
	case ApprovalRejected:
		return nil, fmt.Errorf("rejected product cannot be approved: %w", apperr.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"approval_status": ApprovalApproved,
		"approved_by":     adminID,
		"approval_date":   now,
	}
	if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to approve product: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"admin_id":   adminID,
	}).Info("product approved")

	return s.GetProduct(ctx, productID)
}

// Reject moves a pending product to rejected and stamps the reviewer.
func (s *Service) Reject(ctx context.Context, productID, adminID uint) (*Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if p.ApprovalStatus != ApprovalPending {
		return nil, fmt.Errorf("only pending products can be rejected: %w", apperr.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"approval_status": ApprovalRejected,
		"approved_by":     adminID,
		"approval_date":   now,
	}
	if err := s.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
		return nil, apperr.FromContext(ctx, fmt.Errorf("failed to reject product: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"admin_id":   adminID,
	}).Info("product rejected")

	return s.GetProduct(ctx, productID)
}
