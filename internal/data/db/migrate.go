package db

import (
	"fmt"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureIndexes adds the constraints AutoMigrate cannot express. Postgres only.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	stmts := []struct {
		name string
		sql  string
	}{
		{"chk_product_price", `DO $$ BEGIN
			ALTER TABLE product ADD CONSTRAINT chk_product_price CHECK (price >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`},
		{"chk_product_quantity_bounds", `DO $$ BEGIN
			ALTER TABLE product ADD CONSTRAINT chk_product_quantity_bounds CHECK (min_quantity >= 1 AND max_quantity > min_quantity);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`},
		{"chk_tax_policy_singleton", `DO $$ BEGIN
			ALTER TABLE tax_policy ADD CONSTRAINT chk_tax_policy_singleton CHECK (id = 1 AND tax_rate >= 0 AND tax_rate <= 1);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`},
		{"fk_order_item_product", `DO $$ BEGIN
			ALTER TABLE order_item ADD CONSTRAINT fk_order_item_product FOREIGN KEY (product_id) REFERENCES product(id) ON DELETE RESTRICT;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`},
		{"idx_cart_item_cart_position", `CREATE INDEX IF NOT EXISTS idx_cart_item_cart_position ON cart_item(cart_id, position);`},
		{"idx_order_item_order_position", `CREATE INDEX IF NOT EXISTS idx_order_item_order_position ON order_item(order_id, position);`},
		{"idx_customer_order_user_created", `CREATE INDEX IF NOT EXISTS idx_customer_order_user_created ON customer_order(user_id, created_at DESC);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
