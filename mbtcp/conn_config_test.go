package mbtcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbtcp/logger"
)

func TestNewConnectionConfigDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConnectionConfig("127.0.0.1", 0)
	require.NoError(err)
	require.Equal("127.0.0.1", cfg.host)
	require.Equal(DefaultPort, cfg.port)
	require.Equal(byte(1), cfg.UnitID())
	require.Equal(3*time.Second, cfg.connectTimeout)
	require.Equal(2*time.Second, cfg.ResponseTimeout())
	require.Zero(cfg.settleDelay)
	require.Equal(ConnectOnDemand, cfg.Policy())
	require.NotNil(cfg.logger)
}

func TestNewConnectionConfigOptions(t *testing.T) {
	require := require.New(t)

	mockLogger := logger.NewMockLogger()
	cfg, err := NewConnectionConfig("10.1.2.3", 1502,
		WithUnitID(47),
		WithConnectTimeout(5*time.Second),
		WithResponseTimeout(500*time.Millisecond),
		WithSettleDelay(100*time.Millisecond),
		WithConnectionPolicy(ConnectPerExchange),
		WithLogger(mockLogger),
	)
	require.NoError(err)
	require.Equal("10.1.2.3", cfg.host)
	require.Equal(1502, cfg.port)
	require.Equal(byte(47), cfg.UnitID())
	require.Equal(5*time.Second, cfg.connectTimeout)
	require.Equal(500*time.Millisecond, cfg.ResponseTimeout())
	require.Equal(100*time.Millisecond, cfg.settleDelay)
	require.Equal(ConnectPerExchange, cfg.Policy())
	require.Same(mockLogger, cfg.logger)
}

func TestNewConnectionConfigInvalid(t *testing.T) {
	require := require.New(t)

	_, err := NewConnectionConfig("not a host name", DefaultPort)
	require.Error(err)

	_, err = NewConnectionConfig("127.0.0.1", 65536)
	require.Error(err)

	_, err = NewConnectionConfig("127.0.0.1", -1)
	require.Error(err)

	// Option errors name the offending option.
	_, err = NewConnectionConfig("127.0.0.1", DefaultPort, WithConnectTimeout(time.Millisecond))
	require.ErrorContains(err, "WithConnectTimeout")

	_, err = NewConnectionConfig("127.0.0.1", DefaultPort, WithResponseTimeout(121*time.Second))
	require.Error(err)

	_, err = NewConnectionConfig("127.0.0.1", DefaultPort, WithSettleDelay(-time.Second))
	require.Error(err)

	_, err = NewConnectionConfig("127.0.0.1", DefaultPort, WithConnectionPolicy(ConnectionPolicy(99)))
	require.Error(err)
}

func TestConnectionPolicyString(t *testing.T) {
	require := require.New(t)

	require.Equal("connect on demand", ConnectOnDemand.String())
	require.Equal("connect per exchange", ConnectPerExchange.String())
	require.Equal("manual connect", ConnectManual.String())
}
