package mbtcp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionIDSequence(t *testing.T) {
	require := require.New(t)

	var gen transactionIDGenerator
	require.Equal(uint16(0), gen.nextID())
	require.Equal(uint16(1), gen.nextID())
	require.Equal(uint16(2), gen.nextID())
}

// TestTransactionIDWrap verifies that after 65536 exchanges the identifier
// wraps back to 0.
func TestTransactionIDWrap(t *testing.T) {
	require := require.New(t)

	var gen transactionIDGenerator
	for i := 0; i < 1<<16; i++ {
		require.Equal(uint16(i), gen.nextID())
	}
	require.Equal(uint16(0), gen.nextID())
	require.Equal(uint16(1), gen.nextID())
}
