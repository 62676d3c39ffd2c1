package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type CartItemRepo interface {
	// Create appends items after the cart's current last position.
	Create(dbc dbctx.Context, rows []*types.CartItem) ([]*types.CartItem, error)

	GetByID(dbc dbctx.Context, cartID, id uuid.UUID) (*types.CartItem, error)
	ListByCartID(dbc dbctx.Context, cartID uuid.UUID) ([]*types.CartItem, error)
	CountByCartID(dbc dbctx.Context, cartID uuid.UUID) (int64, error)

	UpdateFields(dbc dbctx.Context, cartID, id uuid.UUID, updates map[string]interface{}) (int64, error)

	DeleteByIDs(dbc dbctx.Context, cartID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteByCartID(dbc dbctx.Context, cartID uuid.UUID) (int64, error)
	DeleteByProductID(dbc dbctx.Context, productID uuid.UUID) (int64, error)
}

type cartItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartItemRepo(db *gorm.DB, baseLog *logger.Logger) CartItemRepo {
	return &cartItemRepo{db: db, log: baseLog.With("repo", "CartItemRepo")}
}

func (r *cartItemRepo) Create(dbc dbctx.Context, rows []*types.CartItem) ([]*types.CartItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CartItem{}, nil
	}
	next := map[uuid.UUID]int{}
	now := time.Now().UTC()
	for _, row := range rows {
		pos, ok := next[row.CartID]
		if !ok {
			var maxPos int64
			if err := t.WithContext(dbc.Ctx).
				Model(&types.CartItem{}).
				Select("COALESCE(MAX(position), -1)").
				Where("cart_id = ?", row.CartID).
				Scan(&maxPos).Error; err != nil {
				return nil, err
			}
			pos = int(maxPos) + 1
		}
		next[row.CartID] = pos + 1
		row.Position = pos
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

func (r *cartItemRepo) GetByID(dbc dbctx.Context, cartID, id uuid.UUID) (*types.CartItem, error) {
	if cartID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.CartItem
	if err := t.WithContext(dbc.Ctx).Where("id = ? AND cart_id = ?", id, cartID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *cartItemRepo) ListByCartID(dbc dbctx.Context, cartID uuid.UUID) ([]*types.CartItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CartItem
	if cartID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cartItemRepo) CountByCartID(dbc dbctx.Context, cartID uuid.UUID) (int64, error) {
	if cartID == uuid.Nil {
		return 0, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).Model(&types.CartItem{}).Where("cart_id = ?", cartID).Count(&n).Error
	return n, err
}

func (r *cartItemRepo) UpdateFields(dbc dbctx.Context, cartID, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if cartID == uuid.Nil || id == uuid.Nil {
		return 0, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.CartItem{}).
		Where("id = ? AND cart_id = ?", id, cartID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *cartItemRepo) DeleteByIDs(dbc dbctx.Context, cartID uuid.UUID, ids []uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if cartID == uuid.Nil || len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("cart_id = ? AND id IN ?", cartID, ids).Delete(&types.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartItemRepo) DeleteByCartID(dbc dbctx.Context, cartID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if cartID == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("cart_id = ?", cartID).Delete(&types.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *cartItemRepo) DeleteByProductID(dbc dbctx.Context, productID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if productID == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("product_id = ?", productID).Delete(&types.CartItem{})
	return res.RowsAffected, res.Error
}
