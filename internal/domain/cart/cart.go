package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Cart is created lazily on the first add; one per user.
type Cart struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Cart) TableName() string { return "cart" }

// CartItem stores the normalized auxiliary payload produced by the line item validator.
// The same product may appear in several items with different payloads.
type CartItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CartID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"cart_id"`
	ProductID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity      int            `gorm:"column:quantity;not null" json:"quantity"`
	AuxiliaryData datatypes.JSON `gorm:"column:auxiliary_data;type:jsonb;not null" json:"auxiliary_data"`
	Position      int            `gorm:"column:position;not null" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_item" }
