package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/boostcart-backend/internal/domain"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type CartRepo interface {
	// GetOrCreateByUserID is safe under concurrent first access for the same user.
	GetOrCreateByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error)
	LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error)
	Touch(dbc dbctx.Context, id uuid.UUID) error
}

type cartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo {
	return &cartRepo{db: db, log: baseLog.With("repo", "CartRepo")}
}

func (r *cartRepo) GetOrCreateByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	row := &types.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserID(dbc, userID)
}

func (r *cartRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Cart
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *cartRepo) LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Cart, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Cart
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
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

func (r *cartRepo) Touch(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Cart{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}
