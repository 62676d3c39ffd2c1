package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPlatformA Category = "platformA"
	CategoryPlatformB Category = "platformB"
)

// SubCategory decides which auxiliary payload a line item must carry.
type SubCategory string

const (
	SubCategoryFollowers SubCategory = "followers"
	SubCategoryLikes     SubCategory = "likes"
	SubCategoryViews     SubCategory = "views"
	SubCategoryComments  SubCategory = "comments"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(strings.TrimSpace(s)) {
	case CategoryPlatformA:
		return CategoryPlatformA, true
	case CategoryPlatformB:
		return CategoryPlatformB, true
	}
	return "", false
}

func ParseSubCategory(s string) (SubCategory, bool) {
	switch sc := SubCategory(strings.ToLower(strings.TrimSpace(s))); sc {
	case SubCategoryFollowers, SubCategoryLikes, SubCategoryViews, SubCategoryComments:
		return sc, true
	}
	return "", false
}

// Product is a purchasable package. Rows referenced by an order item are
// deactivated instead of deleted.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Category    Category        `gorm:"column:category;not null;index" json:"category"`
	SubCategory SubCategory     `gorm:"column:sub_category;not null;index" json:"sub_category"`
	MinQuantity int             `gorm:"column:min_quantity;not null" json:"min_quantity"`
	MaxQuantity int             `gorm:"column:max_quantity;not null" json:"max_quantity"`
	Active      bool            `gorm:"column:active;not null;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) AcceptsQuantity(q int) bool {
	return p != nil && q >= p.MinQuantity && q <= p.MaxQuantity
}
