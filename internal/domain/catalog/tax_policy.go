package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxPolicyID is the primary key of the only tax_policy row.
const TaxPolicyID = 1

// TaxPolicy holds the global tax rate, a fraction in [0,1].
type TaxPolicy struct {
	ID      int             `gorm:"primaryKey;autoIncrement:false" json:"-"`
	TaxRate decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null" json:"tax_rate"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TaxPolicy) TableName() string { return "tax_policy" }

func ValidTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(1))
}
