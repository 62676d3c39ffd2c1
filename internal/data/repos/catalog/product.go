package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type ProductFilter struct {
	Category    string
	SubCategory string
	ActiveOnly  bool
	Limit       int
	Offset      int
}

type ProductRepo interface {
	Create(dbc dbctx.Context, rows []*types.Product) ([]*types.Product, error)

	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	// LockByIDs takes FOR SHARE locks in id order. Rows deleted by a
	// concurrent writer are simply absent from the result.
	LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, rows []*types.Product) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Product{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = now
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *productRepo) List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Product{})
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.SubCategory != "" {
		q = q.Where("sub_category = ?", f.SubCategory)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []*types.Product
	if err := q.Order("category ASC, sub_category ASC, price ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Product
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productRepo) LockByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	if len(ids) == 0 {
		return out, nil
	}
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *productRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Product{})
	return res.RowsAffected, res.Error
}
