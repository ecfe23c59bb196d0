// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/farmmarket-backend/internal/config"
	"github.com/your-org/farmmarket-backend/internal/domain/cart"
	"github.com/your-org/farmmarket-backend/internal/domain/order"
	"github.com/your-org/farmmarket-backend/internal/domain/product"
	"github.com/your-org/farmmarket-backend/internal/domain/user"
	"github.com/your-org/farmmarket-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	config *config.Config
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, cfg *config.Config) *Migration {
	return &Migration{
		db:     db,
		config: cfg,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: referenced tables first
	models := []interface{}{
		&user.User{},

		&product.Category{},
		&product.Product{},

		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes beyond what the model tags declare.
// The partial unique index on carts is load-bearing: it is what makes "one
// active cart per user" a database guarantee rather than a convention.
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// One active cart per user
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active ON carts(user_id) WHERE is_active",

		// Cart indexes
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items(cart_id, product_id)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_approval_created ON products(approval_status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_approval ON products(category_id, approval_status)",
		"CREATE INDEX IF NOT EXISTS idx_products_title ON products(title)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Printf("✅ Created %d indexes successfully", len(indexes))
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedCategories(); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedCategories creates default product categories
func (m *Migration) seedCategories() error {
	categories := []string{
		"Vegetables",
		"Fruits",
		"Dairy",
		"Grains",
		"Honey & Preserves",
	}

	for _, name := range categories {
		var existing product.Category
		result := m.db.Where("name = ?", name).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&product.Category{Name: name}).Error; err != nil {
				return err
			}
			log.Printf("✅ Created category: %s", name)
		}
	}

	return nil
}

// seedAdminUser creates the bootstrap admin account if it does not exist.
func (m *Migration) seedAdminUser() error {
	var existing user.User
	result := m.db.Where("username = ?", m.config.App.AdminUsername).First(&existing)
	if result.Error == nil {
		return nil
	}

	pm := auth.NewPasswordManager(m.config)
	hashedPassword, err := pm.HashPassword(m.config.App.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	adminUser := user.User{
		Username: m.config.App.AdminUsername,
		Password: hashedPassword,
		FullName: "Administrator",
		Role:     user.RoleAdmin,
		IsActive: true,
	}

	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("✅ Created admin user: %s", adminUser.Username)
	return nil
}
