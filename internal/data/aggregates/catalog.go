package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yungbote/boostcart-backend/internal/data/repos"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
)

type ProductAggregateDeps struct {
	Base BaseDeps

	Products   repos.ProductRepo
	CartItems  repos.CartItemRepo
	OrderItems repos.OrderItemRepo
}

type productAggregate struct {
	deps ProductAggregateDeps
}

func NewProductAggregate(deps ProductAggregateDeps) domainagg.ProductAggregate {
	deps.Base = deps.Base.withDefaults()
	return &productAggregate{deps: deps}
}

func (a *productAggregate) Contract() domainagg.Contract {
	return domainagg.ProductAggregateContract
}

// DeleteOrDeactivate keeps order history resolvable: a product referenced by
// any order item is only deactivated. Otherwise cart items pointing at it are
// removed together with the product.
func (a *productAggregate) DeleteOrDeactivate(ctx context.Context, in domainagg.DeleteProductInput) (domainagg.DeleteProductResult, error) {
	const op = "Commerce.Product.DeleteOrDeactivate"
	var out domainagg.DeleteProductResult
	if in.ProductID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing product_id", nil)
	}
	if a.deps.Products == nil || a.deps.CartItems == nil || a.deps.OrderItems == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "product aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Products.LockByID(dbc, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("product not found: %s", in.ProductID.String()), nil)
		}

		refs, err := a.deps.OrderItems.CountByProductID(dbc, p.ID)
		if err != nil {
			return err
		}
		if refs > 0 {
			if p.Active {
				if err := a.deps.Products.UpdateFields(dbc, p.ID, map[string]interface{}{
					"active":     false,
					"updated_at": a.deps.Base.Now(),
				}); err != nil {
					return err
				}
			}
			out = domainagg.DeleteProductResult{
				ProductID:         p.ID,
				Outcome:           domainagg.DeleteOutcomeDeactivated,
				Reason:            domainagg.ReasonProductHasOrders,
				ReferencingOrders: refs,
			}
			return nil
		}

		pruned, err := a.deps.CartItems.DeleteByProductID(dbc, p.ID)
		if err != nil {
			return err
		}
		n, err := a.deps.Products.Delete(dbc, p.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ConflictError("product deleted concurrently")
		}
		out = domainagg.DeleteProductResult{
			ProductID:       p.ID,
			Outcome:         domainagg.DeleteOutcomeDeleted,
			PrunedCartItems: pruned,
		}
		return nil
	})
	return out, err
}
