package mbtcp

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/arloliu/go-mbtcp/logger"
)

// ErrDeviceNotFound indicates that no address in the probed range accepted a
// TCP connection.
var ErrDeviceNotFound = errors.New("no device found")

// Discover probes for a listening Modbus TCP device near startAddr.
//
// Starting at startAddr, only the final IPv4 octet is incremented, modulo 256,
// and each candidate is probed sequentially with a short-timeout TCP dial.
// The first address that accepts the connection is returned and the probe
// connection is closed immediately; exhausting the range yields
// ErrDeviceNotFound.
//
// This is a best-effort scan, not part of the exchange protocol: it proves
// only that something listens on the port, not that it speaks Modbus.
//
// A port of 0 selects the well-known Modbus TCP port 502; a probeTimeout of 0
// defaults to 500ms.
func Discover(startAddr string, port int, probeTimeout time.Duration) (string, error) {
	ip := net.ParseIP(startAddr)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("invalid IPv4 address: %q", startAddr)
	}
	ip = ip.To4()

	if port <= 0 {
		port = DefaultPort
	}
	if probeTimeout <= 0 {
		probeTimeout = 500 * time.Millisecond
	}

	log := logger.GetLogger()

	for i := 0; i < 256; i++ {
		candidate := net.IPv4(ip[0], ip[1], ip[2], ip[3]+byte(i)).String()
		address := net.JoinHostPort(candidate, strconv.Itoa(port))

		conn, err := net.DialTimeout("tcp", address, probeTimeout)
		if err != nil {
			log.Debug("discovery probe failed", "address", address, "error", err)
			continue
		}
		_ = conn.Close()

		log.Info("device discovered", "address", candidate, "port", port)

		return candidate, nil
	}

	return "", ErrDeviceNotFound
}
