package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
)

// CASGuard applies status-guarded updates so two admins racing on the same
// order cannot both win.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Context()), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Context()), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByStatus writes updates to the row only while its status is one of
// fromStatuses. The bool is false when another writer moved the row first.
func (g CASGuard) UpdateByStatus(dbc dbctx.Context, table string, id uuid.UUID, fromStatuses []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required")
	}
	if len(fromStatuses) == 0 {
		// nothing can reach the target status
		return false, nil
	}
	if len(updates) == 0 {
		return false, ValidationError("no columns to update")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
