package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is immutable after placement apart from its status columns.
// Prices and the tax rate are snapshots taken at checkout.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string          `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Status      string          `gorm:"column:status;not null;index" json:"status"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null" json:"tax_rate"`
	TaxAmount   decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null" json:"tax_amount"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	ItemCount   int             `gorm:"column:item_count;not null" json:"item_count"`

	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
	StatusChangedAt time.Time  `gorm:"column:status_changed_at;not null" json:"status_changed_at"`
	ProcessingAt    *time.Time `gorm:"column:processing_at" json:"processing_at,omitempty"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "customer_order" }

// OrderItem keeps product_id for history lookups; name, category and price are copies.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName   string          `gorm:"column:product_name;not null" json:"product_name"`
	Category      string          `gorm:"column:category;not null" json:"category"`
	SubCategory   string          `gorm:"column:sub_category;not null" json:"sub_category"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Quantity      int             `gorm:"column:quantity;not null" json:"quantity"`
	LineTotal     decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null" json:"line_total"`
	AuxiliaryData datatypes.JSON  `gorm:"column:auxiliary_data;type:jsonb;not null" json:"auxiliary_data"`
	Position      int             `gorm:"column:position;not null" json:"position"`
}

func (OrderItem) TableName() string { return "order_item" }
