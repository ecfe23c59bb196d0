// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/cart"
	"github.com/your-org/farmmarket-backend/internal/domain/order"
	"github.com/your-org/farmmarket-backend/internal/domain/product"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/interfaces/http/handlers"
	"github.com/your-org/farmmarket-backend/internal/interfaces/http/middleware"
	"github.com/your-org/farmmarket-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// SetupRoutes wires every API route onto the given group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	userService := user.NewService(db, cfg)
	productService := product.NewService(db, cfg)
	categoryService := product.NewCategoryService(db)
	cartService := cart.NewService(db, cfg)
	orderService := order.NewService(db, cfg)
	pdfService := pdf.NewService(cfg)

	authHandler := handlers.NewAuthHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	invoiceHandler := handlers.NewInvoiceHandler(orderService, pdfService)

	authn := middleware.AuthMiddleware(cfg)
	resolve := middleware.RequireUser(userService)
	optional := middleware.OptionalAuth(cfg, userService)

	// Public auth endpoints
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/login/phone", authHandler.LoginWithPhone)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Profile endpoints
	users := rg.Group("/users")
	users.Use(authn, resolve)
	{
		users.GET("/me", authHandler.GetProfile)
		users.PUT("/me", authHandler.UpdateProfile)
	}

	// Public catalog reads; the listing takes optional auth so an admin's
	// include_pending flag can take effect
	products := rg.Group("/products")
	{
		products.GET("", optional, productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)

		protected := products.Group("")
		protected.Use(authn, resolve)
		{
			protected.POST("", middleware.RequireRole(user.RoleFarmer, user.RoleAdmin), productHandler.Create)
			protected.POST("/bulk", middleware.RequireRole(user.RoleFarmer, user.RoleAdmin), productHandler.BulkCreate)
			protected.PUT("/:id", middleware.RequireRole(user.RoleFarmer, user.RoleAdmin), productHandler.Update)
			protected.DELETE("/:id", middleware.RequireAdmin(), productHandler.Delete)
		}
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)
	}

	// Cart endpoints
	cartGroup := rg.Group("/cart")
	cartGroup.Use(authn, resolve)
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.PUT("", cartHandler.ReplaceItems)
		cartGroup.DELETE("", cartHandler.Clear)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PUT("/items/:product_id", cartHandler.UpdateItem)
		cartGroup.DELETE("/items/:product_id", cartHandler.RemoveItem)
	}

	// Order endpoints
	orders := rg.Group("/orders")
	orders.Use(authn, resolve)
	{
		orders.POST("", orderHandler.Create)
		orders.GET("", orderHandler.GetMyOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.Cancel)
		orders.GET("/:id/invoice", invoiceHandler.Download)
	}

	// Admin endpoints
	admin := rg.Group("/admin")
	admin.Use(authn, resolve, middleware.RequireAdmin())
	{
		admin.GET("/products/pending", productHandler.GetPending)
		admin.POST("/products/:id/approve", productHandler.Approve)
		admin.POST("/products/:id/reject", productHandler.Reject)

		admin.POST("/categories", categoryHandler.Create)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.GET("/orders", orderHandler.GetAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
		admin.PUT("/orders/:id/status/force", orderHandler.ForceSetStatus)
		admin.DELETE("/orders/:id", orderHandler.Delete)
	}
}
