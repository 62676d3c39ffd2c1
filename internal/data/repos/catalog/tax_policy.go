package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type TaxPolicyRepo interface {
	// GetOrCreate inserts the singleton with defaultRate if absent, then reads it.
	GetOrCreate(dbc dbctx.Context, defaultRate decimal.Decimal) (*types.TaxPolicy, error)
	// Set upserts the singleton rate.
	Set(dbc dbctx.Context, rate decimal.Decimal) (*types.TaxPolicy, error)
	Count(dbc dbctx.Context) (int64, error)
}

type taxPolicyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxPolicyRepo(db *gorm.DB, baseLog *logger.Logger) TaxPolicyRepo {
	return &taxPolicyRepo{db: db, log: baseLog.With("repo", "TaxPolicyRepo")}
}

func (r *taxPolicyRepo) GetOrCreate(dbc dbctx.Context, defaultRate decimal.Decimal) (*types.TaxPolicy, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	row := &types.TaxPolicy{
		ID:        types.TaxPolicyID,
		TaxRate:   defaultRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.read(dbc, t)
}

func (r *taxPolicyRepo) Set(dbc dbctx.Context, rate decimal.Decimal) (*types.TaxPolicy, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	row := &types.TaxPolicy{
		ID:        types.TaxPolicyID,
		TaxRate:   rate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tax_rate", "updated_at"}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.read(dbc, t)
}

func (r *taxPolicyRepo) Count(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).Model(&types.TaxPolicy{}).Count(&n).Error
	return n, err
}

func (r *taxPolicyRepo) read(dbc dbctx.Context, t *gorm.DB) (*types.TaxPolicy, error) {
	var out types.TaxPolicy
	if err := t.WithContext(dbc.Ctx).Where("id = ?", types.TaxPolicyID).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
