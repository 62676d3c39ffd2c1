// Package ordernumber issues the short, human readable identifiers printed on
// orders. They are unique per snowflake node and roughly time ordered.
package ordernumber

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const Prefix = "BC-"

type Generator interface {
	Next() string
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for the given node id (0..1023). Replicas
// sharing a database must use distinct node ids.
func NewSnowflake(nodeID int64) (Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &snowflakeGenerator{node: node}, nil
}

// MustSnowflake panics on an out of range node id.
func MustSnowflake(nodeID int64) Generator {
	g, err := NewSnowflake(nodeID)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *snowflakeGenerator) Next() string {
	return Prefix + strings.ToUpper(g.node.Generate().Base36())
}

// Valid reports whether s looks like an order number issued here.
func Valid(s string) bool {
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
