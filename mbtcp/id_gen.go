package mbtcp

import "sync/atomic"

// transactionIDGenerator issues the 16-bit MBAP transaction identifiers for a
// single connection.
//
// Identifiers start at zero on a freshly created connection, increment once
// per exchange and wrap modulo 2^16. They are never persisted; recreating the
// connection restarts the sequence.
type transactionIDGenerator struct {
	next atomic.Uint32
}

// nextID returns the current identifier and advances the counter.
func (g *transactionIDGenerator) nextID() uint16 {
	return uint16(g.next.Add(1) - 1)
}
