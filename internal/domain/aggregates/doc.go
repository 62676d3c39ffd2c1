// Package aggregates defines the write boundaries of the commerce core.
//
// Contracts here stay free of persistence and transport details. Each one names
// an operation whose invariants must hold atomically: placing an order from a
// cart, moving an order along its status graph, and deleting or retiring a
// catalog product.
package aggregates
