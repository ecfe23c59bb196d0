// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/farmmarket-backend/internal/domain/product"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/interfaces/http/middleware"
)

// ProductHandler handles product catalog and approval endpoints
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts lists approved products with search and pagination
// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only admins may see past the approval filter.
	if req.IncludePending {
		u, ok := middleware.GetCurrentUser(c)
		if !ok || !u.IsAdmin() {
			req.IncludePending = false
		}
	}

	result, err := h.productService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct returns a single product
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Create lists a new product; the caller's role decides the approval state
// POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	u, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.productService.Create(c.Request.Context(), &req, u.ID, u.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// Update replaces a product's catalog fields; farmers may only touch their
// own listings
// PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	u, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.productService.Update(c.Request.Context(), uint(id), &req, u.ID, u.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// Delete removes a product
// DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.productService.Delete(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// BulkCreateRequest wraps the bulk creation payload
type BulkCreateRequest struct {
	Products       []product.BulkProductRequest `json:"products" binding:"required,dive"`
	SkipDuplicates bool                         `json:"skip_duplicates"`
}

// BulkCreate inserts a batch of products atomically
// POST /api/v1/products/bulk
func (h *ProductHandler) BulkCreate(c *gin.Context) {
	u, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.productService.BulkCreate(c.Request.Context(), req.Products, u.ID, u.Role, req.SkipDuplicates)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetPending lists products awaiting review (admin)
// GET /api/v1/admin/products/pending
func (h *ProductHandler) GetPending(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.productService.GetPending(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Approve approves a pending product (admin)
// POST /api/v1/admin/products/:id/approve
func (h *ProductHandler) Approve(c *gin.Context) {
	h.review(c, true)
}

// Reject rejects a pending product (admin)
// POST /api/v1/admin/products/:id/reject
func (h *ProductHandler) Reject(c *gin.Context) {
	h.review(c, false)
}

func (h *ProductHandler) review(c *gin.Context, approve bool) {
	u, ok := middleware.GetCurrentUser(c)
	if !ok || u.Role != user.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var p *product.Product
	if approve {
		p, err = h.productService.Approve(c.Request.Context(), uint(id), u.ID)
	} else {
		p, err = h.productService.Reject(c.Request.Context(), uint(id), u.ID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
