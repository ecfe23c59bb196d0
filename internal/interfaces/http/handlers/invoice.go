// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/farmmarket-backend/internal/domain/order"
	"github.com/your-org/farmmarket-backend/internal/interfaces/http/middleware"
	"github.com/your-org/farmmarket-backend/internal/pkg/pdf"
)

// InvoiceHandler handles invoice download endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, pdfService *pdf.Service) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		pdfService:   pdfService,
	}
}

// Download streams a PDF invoice for an order (owner or admin)
// GET /api/v1/orders/:id/invoice
func (h *InvoiceHandler) Download(c *gin.Context) {
	u, ok := middleware.GetCurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), uint(id), u.ID, u.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}

	buf, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("invoice-%06d.pdf", o.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
