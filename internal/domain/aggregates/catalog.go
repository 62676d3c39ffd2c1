package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var ProductAggregateContract = Contract{
	Name:             "Commerce.ProductAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Owns:             []string{"product"},
	LockOrder:        []string{"product", "cart_item"},
	Notes:            "Decides hard delete vs deactivation from order references; prunes cart items on hard delete.",
}

type DeleteOutcome string

const (
	DeleteOutcomeDeleted     DeleteOutcome = "deleted"
	DeleteOutcomeDeactivated DeleteOutcome = "deactivated"
)

type ProductAggregate interface {
	Aggregate

	// DeleteOrDeactivate hard-deletes a product nobody ordered, otherwise deactivates it.
	DeleteOrDeactivate(ctx context.Context, in DeleteProductInput) (DeleteProductResult, error)
}

type DeleteProductInput struct {
	ProductID uuid.UUID
}

type DeleteProductResult struct {
	ProductID         uuid.UUID
	Outcome           DeleteOutcome
	Reason            Reason
	PrunedCartItems   int64
	ReferencingOrders int64
}
