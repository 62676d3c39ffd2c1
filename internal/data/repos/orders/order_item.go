package orders

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type OrderItemRepo interface {
	Create(dbc dbctx.Context, rows []*types.OrderItem) ([]*types.OrderItem, error)
	ListByOrderIDs(dbc dbctx.Context, orderIDs []uuid.UUID) ([]*types.OrderItem, error)
	// CountByProductID is the hasOrders check for product deletion.
	CountByProductID(dbc dbctx.Context, productID uuid.UUID) (int64, error)
}

type orderItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderItemRepo(db *gorm.DB, baseLog *logger.Logger) OrderItemRepo {
	return &orderItemRepo{db: db, log: baseLog.With("repo", "OrderItemRepo")}
}

func (r *orderItemRepo) Create(dbc dbctx.Context, rows []*types.OrderItem) ([]*types.OrderItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.OrderItem{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *orderItemRepo) ListByOrderIDs(dbc dbctx.Context, orderIDs []uuid.UUID) ([]*types.OrderItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.OrderItem
	if len(orderIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id ASC, position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderItemRepo) CountByProductID(dbc dbctx.Context, productID uuid.UUID) (int64, error) {
	if productID == uuid.Nil {
		return 0, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).Model(&types.OrderItem{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}
