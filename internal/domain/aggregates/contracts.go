package aggregates

import "strings"

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	WriteTxOwnedByCaller    WriteTxOwnership = "caller_owned"
)

// Contract documents what an aggregate writes and in which order it takes
// row locks. Two aggregates touching the same tables must agree on LockOrder.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	// Tables the aggregate is the only writer of, besides plain inserts.
	Owns []string
	// Tables locked with SELECT ... FOR UPDATE, outermost first.
	LockOrder []string
	Notes     string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

func (c Contract) OwnsTable(table string) bool {
	table = strings.TrimSpace(table)
	for _, t := range c.Owns {
		if t == table {
			return true
		}
	}
	return false
}

// LocksBefore reports whether a is locked before b. Tables missing from
// LockOrder are never ordered.
func (c Contract) LocksBefore(a, b string) bool {
	ia, ib := -1, -1
	for i, t := range c.LockOrder {
		switch t {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	return ia >= 0 && ib >= 0 && ia < ib
}
