package mbtcp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDiscoverFindsListener(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.5:0")
	require.NoError(err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	// Probing starts below the listener and walks up to it.
	addr, err := Discover("127.0.0.2", port, 200*time.Millisecond)
	require.NoError(err)
	require.Equal("127.0.0.5", addr)
}

// TestDiscoverWrapsFinalOctet verifies that the scan wraps past .255 back to
// .0 instead of stopping at the end of the range.
func TestDiscoverWrapsFinalOctet(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	addr, err := Discover("127.0.0.250", port, 200*time.Millisecond)
	require.NoError(err)
	require.Equal("127.0.0.1", addr)
}

func TestDiscoverNotFound(t *testing.T) {
	require := require.New(t)

	// Reserve a port with nothing listening on any loopback address.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(ln.Close())

	_, err = Discover("127.0.0.2", port, 50*time.Millisecond)
	require.ErrorIs(err, ErrDeviceNotFound)
}

func TestDiscoverInvalidAddress(t *testing.T) {
	require := require.New(t)

	_, err := Discover("not an address", DefaultPort, time.Second)
	require.Error(err)

	_, err = Discover("::1", DefaultPort, time.Second)
	require.Error(err)
}
