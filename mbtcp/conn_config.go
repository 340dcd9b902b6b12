package mbtcp

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/arloliu/go-mbtcp/logger"
)

// ErrConnConfigNil indicates that a nil ConnectionConfig was provided.
var ErrConnConfigNil = errors.New("connection config is nil")

// ConnectionPolicy selects how Send manages the underlying TCP connection.
type ConnectionPolicy int

const (
	// ConnectOnDemand dials on the first send and keeps the connection open
	// across exchanges. This is the default.
	ConnectOnDemand ConnectionPolicy = iota

	// ConnectPerExchange dials on each send and disconnects once the exchange
	// resolves.
	ConnectPerExchange

	// ConnectManual never dials implicitly. Send resolves with
	// ResponseConnectionFailed unless the caller connected beforehand.
	ConnectManual
)

func (p ConnectionPolicy) String() string {
	switch p {
	case ConnectOnDemand:
		return "connect on demand"
	case ConnectPerExchange:
		return "connect per exchange"
	case ConnectManual:
		return "manual connect"
	default:
		return "unknown"
	}
}

// ConnectionConfig represents the configuration parameters for a Modbus TCP
// connection. It is immutable once NewConnectionConfig returns.
type ConnectionConfig struct {
	// host specifies the host of the remote Modbus TCP device or gateway.
	host string

	// port specifies the TCP port number. Defaults to 502.
	port int

	// unitID addresses the logical target device behind the connection, e.g.
	// one of several serial slaves behind a TCP gateway.
	// Defaults to 1.
	unitID byte

	// connectTimeout bounds the TCP dial. Defaults to 3 seconds.
	connectTimeout time.Duration

	// responseTimeout bounds the wait for a complete reply frame after a
	// request has been written. A request may override it per exchange.
	// Defaults to 2 seconds.
	responseTimeout time.Duration

	// settleDelay suspends Connect after the dial succeeds before the first
	// request is sent. Some serial gateways drop requests arriving immediately
	// after accept. Defaults to 0 (disabled).
	settleDelay time.Duration

	// policy selects how Send manages the connection.
	// Defaults to ConnectOnDemand.
	policy ConnectionPolicy

	// logger provides a logger instance for connection events and errors.
	logger logger.Logger
}

// NewConnectionConfig creates a connection configuration for the device at
// host:port with default values, then applies the given options.
//
// A port of 0 selects the well-known Modbus TCP port 502.
//
// Returns a pointer to the initialized ConnectionConfig and an error if any
// option fails to validate.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		port:            DefaultPort,
		unitID:          1,
		connectTimeout:  3 * time.Second,
		responseTimeout: 2 * time.Second,
		policy:          ConnectOnDemand,
		logger:          logger.GetLogger(),
	}

	if err := withRemoteHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func (cfg *ConnectionConfig) UnitID() byte {
	return cfg.unitID
}

func (cfg *ConnectionConfig) ResponseTimeout() time.Duration {
	return cfg.responseTimeout
}

func (cfg *ConnectionConfig) Policy() ConnectionPolicy {
	return cfg.policy
}

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error {
	if err := c.applyFunc(cfg); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	return nil
}

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{
		name:      name,
		applyFunc: f,
	}
}

// withRemoteHost sets the host of the remote device.
// It accepts an IP address or a resolvable domain name.
func withRemoteHost(host string) ConnOption {
	return newConnOptFunc("withRemoteHost", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		// Check if it's a valid IP address
		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		// If not an IP, check if it's a valid domain name
		host = strings.TrimPrefix(host, ".")
		host = strings.TrimSuffix(host, ".")
		if _, err := net.LookupHost(host); err == nil {
			cfg.host = host
			return nil
		}

		return errors.New("invalid host")
	})
}

// withPort sets the TCP port number. A port of 0 selects the default port.
func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if port < 0 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		if port != 0 {
			cfg.port = port
		}

		return nil
	})
}

// WithUnitID sets the unit identifier carried in every request frame.
// It addresses the logical target device behind the connection; 0 is the
// broadcast address and 255 means "no particular unit".
//
// The default value is 1.
func WithUnitID(id byte) ConnOption {
	return newConnOptFunc("WithUnitID", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		cfg.unitID = id

		return nil
	})
}

// WithConnectTimeout sets the timeout for establishing the TCP connection.
// An error is returned if the timeout is outside the valid range
// (0.1-30 seconds) or if the configuration is nil.
//
// The default value is 3 seconds.
func WithConnectTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if val < 100*time.Millisecond || val > 30*time.Second {
			return errors.New("connect timeout out of range [0.1, 30]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithResponseTimeout sets the default reply timeout for exchanges.
// A request may override it per exchange via SetResponseTimeout.
// An error is returned if the timeout is outside the valid range
// (1ms-120 seconds) or if the configuration is nil.
//
// The default value is 2 seconds.
func WithResponseTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithResponseTimeout", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if val < time.Millisecond || val > 120*time.Second {
			return errors.New("response timeout out of range [0.001, 120]")
		}
		cfg.responseTimeout = val

		return nil
	})
}

// WithSettleDelay sets a delay between a successful dial and the first
// request, for gateways that need a moment after accepting a connection.
// An error is returned if the delay is negative, longer than 10 seconds, or
// if the configuration is nil.
//
// The default value is 0 (no delay).
func WithSettleDelay(val time.Duration) ConnOption {
	return newConnOptFunc("WithSettleDelay", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if val < 0 || val > 10*time.Second {
			return errors.New("settle delay out of range [0, 10]")
		}
		cfg.settleDelay = val

		return nil
	})
}

// WithConnectionPolicy selects how Send manages the underlying connection.
//
// The default value is ConnectOnDemand.
func WithConnectionPolicy(policy ConnectionPolicy) ConnOption {
	return newConnOptFunc("WithConnectionPolicy", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		switch policy {
		case ConnectOnDemand, ConnectPerExchange, ConnectManual:
			cfg.policy = policy
		default:
			return errors.New("unknown connection policy")
		}

		return nil
	})
}

// WithLogger sets the logger for the connection.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		cfg.logger = l

		return nil
	})
}
