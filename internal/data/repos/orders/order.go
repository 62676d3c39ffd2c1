package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

// OrderFilter drives the admin order listing. Zero values mean "any".
type OrderFilter struct {
	UserID   uuid.UUID
	Statuses []string
	From     *time.Time
	To       *time.Time
	// Query matches order number, user id, product name or auxiliary data (usernames, links).
	Query  string
	Limit  int
	Offset int
}

type OrderRepo interface {
	Create(dbc dbctx.Context, row *types.Order) (*types.Order, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	GetWithItems(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	List(dbc dbctx.Context, f OrderFilter) ([]*types.Order, int64, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

// Create writes the order row only; items go through OrderItemRepo.
func (r *orderRepo) Create(dbc dbctx.Context, row *types.Order) (*types.Order, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if row.StatusChangedAt.IsZero() {
		row.StatusChangedAt = row.CreatedAt
	}
	if err := t.WithContext(dbc.Ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Order
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *orderRepo) GetWithItems(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Order
	err := t.WithContext(dbc.Ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
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

func (r *orderRepo) List(dbc dbctx.Context, f OrderFilter) ([]*types.Order, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Order{})
	if f.UserID != uuid.Nil {
		q = q.Where("customer_order.user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("customer_order.status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("customer_order.created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("customer_order.created_at < ?", f.To.UTC())
	}
	if needle := strings.ToLower(strings.TrimSpace(f.Query)); needle != "" {
		like := "%" + escapeLike(needle) + "%"
		items := t.Session(&gorm.Session{NewDB: true}).
			Model(&types.OrderItem{}).
			Select("order_id").
			Where("LOWER(product_name) LIKE ? ESCAPE '\\' OR LOWER(CAST(auxiliary_data AS TEXT)) LIKE ? ESCAPE '\\'", like, like)
		q = q.Where(
			"LOWER(customer_order.order_number) LIKE ? ESCAPE '\\' OR LOWER(CAST(customer_order.user_id AS TEXT)) LIKE ? ESCAPE '\\' OR customer_order.id IN (?)",
			like, like, items,
		)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []*types.Order
	if err := q.Order("customer_order.created_at DESC, customer_order.id ASC").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *orderRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Order
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

func (r *orderRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
