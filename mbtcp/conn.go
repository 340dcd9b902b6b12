package mbtcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-mbtcp/internal/pool"
	"github.com/arloliu/go-mbtcp/logger"
	"github.com/arloliu/go-mbtcp/modbus"
)

// Connection is a Modbus TCP client transport to a single remote device or
// gateway.
//
// A Connection performs one exchange at a time: concurrent Send callers are
// serialized, and each caller's connect+send+await sequence begins only after
// the previous caller's exchange fully resolves. The single inbound byte
// stream is therefore always attributable to the one in-flight exchange; no
// table of concurrently pending transactions exists.
type Connection struct {
	pctx   context.Context
	cfg    *ConnectionConfig
	logger logger.Logger

	// sendMu serializes exchanges. It is held for the full duration of
	// connect + send + await-result.
	sendMu sync.Mutex

	connMu    sync.Mutex // guards conn
	conn      net.Conn
	connected atomic.Bool

	// pending holds the one in-flight exchange, nil otherwise.
	pending atomic.Pointer[pendingRequest]
	tidGen  transactionIDGenerator

	metrics *ConnectionMetrics
}

// NewConnection creates a Modbus TCP connection with the given context and
// configuration. The context bounds the lifetime of every exchange; canceling
// it fails in-flight and future sends.
//
// The connection is not dialed yet; the configured connection policy decides
// whether Send dials implicitly or Connect must be called first.
func NewConnection(ctx context.Context, cfg *ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return &Connection{
		pctx:    ctx,
		cfg:     cfg,
		logger:  cfg.logger,
		metrics: newConnectionMetrics(),
	}, nil
}

// GetLogger returns the logger associated with the connection.
func (c *Connection) GetLogger() logger.Logger {
	return c.logger
}

// GetMetrics returns the metrics associated with the connection.
func (c *Connection) GetMetrics() *ConnectionMetrics {
	return c.metrics
}

// IsConnected reports whether a live TCP connection exists. It is a plain
// handle check; there is no richer connection state machine and no reconnect
// policy, reconnection is driven entirely by the next Send.
func (c *Connection) IsConnected() bool {
	return c.connected.Load()
}

// Connect establishes the TCP connection. If already connected it is a no-op.
//
// On success the receiver goroutine starts listening for inbound bytes, and
// the configured settle delay, if any, elapses before Connect returns.
func (c *Connection) Connect() error {
	c.connMu.Lock()
	if c.conn != nil {
		c.connMu.Unlock()
		return nil
	}

	address := net.JoinHostPort(c.cfg.host, strconv.Itoa(c.cfg.port))
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}

	dialCtx, cancel := context.WithTimeout(c.pctx, c.cfg.connectTimeout)
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	cancel()
	if err != nil {
		c.connMu.Unlock()
		return fmt.Errorf("dial %s: %w", address, err)
	}

	c.conn = conn
	c.connected.Store(true)
	go c.receiverLoop(conn)
	c.connMu.Unlock()

	c.logger.Info("connected to the remote",
		"remote_addr", conn.RemoteAddr().String(),
		"local_addr", conn.LocalAddr().String(),
	)

	if d := c.cfg.settleDelay; d > 0 {
		timer := pool.GetTimer(d)
		select {
		case <-timer.C:
		case <-c.pctx.Done():
		}
		pool.PutTimer(timer)
	}

	return nil
}

// Disconnect tears down the active connection, if any, and clears the
// connectivity state. It is idempotent and always safe to call, including
// when not connected and from the receiver's error path.
func (c *Connection) Disconnect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.connected.Store(false)
	err := c.conn.Close()
	c.conn = nil

	if err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Error("failed to close TCP connection", "error", err)
		return err
	}

	c.logger.Info("disconnected", "host", c.cfg.host, "port", c.cfg.port)

	return nil
}

// Send performs one request/reply exchange and returns its outcome.
//
// Send never returns an error and never panics: every outcome, including
// connect failures and timeouts, is represented as a response code, which is
// also recorded on the request. Connect faults are logged and converted, not
// propagated.
//
// Concurrent callers block in arrival order until the previous exchange
// resolves.
func (c *Connection) Send(req modbus.Request) modbus.ResponseCode {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	code := c.exchange(req)

	// The per-exchange teardown stays inside the exclusive section so the
	// next caller cannot begin an exchange on a socket about to close.
	if c.cfg.policy == ConnectPerExchange {
		_ = c.Disconnect()
	}

	return code
}

func (c *Connection) exchange(req modbus.Request) modbus.ResponseCode {
	if c.cfg.policy != ConnectManual {
		if err := c.Connect(); err != nil {
			c.logger.Error("connect failed", "error", err)
			c.metrics.incConnectFailCount()
			req.Reset()
			req.SetResponseCode(modbus.ResponseConnectionFailed)

			return modbus.ResponseConnectionFailed
		}
	}

	// Snapshot the socket this exchange rides on. Everything downstream,
	// including failure teardown, targets this handle only, never whatever
	// connection happens to be current later.
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		c.metrics.incConnectFailCount()
		req.Reset()
		req.SetResponseCode(modbus.ResponseConnectionFailed)

		return modbus.ResponseConnectionFailed
	}

	tid := c.tidGen.nextID()

	timeout := req.ResponseTimeout()
	if timeout <= 0 {
		timeout = c.cfg.responseTimeout
	}

	// Re-arm the request so stale data from a prior use cannot leak into the
	// new result.
	req.Reset()

	p := newPendingRequest(req, tid, conn, c.logger)
	c.pending.Store(p)
	defer c.pending.Store(nil)

	var code modbus.ResponseCode

	frame := buildFrame(tid, c.cfg.unitID, req.PDU())
	if err := write(conn, frame, timeout); err != nil {
		c.logger.Error("failed to write request frame", "tid", tid, "error", err)
		p.resolve(modbus.ResponseConnectionFailed)
		c.dropConn(conn)
		// The receiver may have resolved concurrently; done carries the
		// winning code either way.
		code = <-p.done
	} else {
		c.metrics.incRequestSendCount()

		timer := pool.GetTimer(timeout)
		select {
		case code = <-p.done:

		case <-timer.C:
			c.logger.Warn("response timeout", "tid", tid, "timeout", timeout)
			// The receive path may resolve concurrently; the one-shot cell
			// guarantees done carries the winning code either way.
			p.resolve(modbus.ResponseTimeout)
			code = <-p.done

		case <-c.pctx.Done():
			p.resolve(modbus.ResponseConnectionFailed)
			code = <-p.done
		}
		pool.PutTimer(timer)
	}

	switch code {
	case modbus.ResponseSuccess:
		c.metrics.incReplyRecvCount()
	case modbus.ResponseTimeout:
		c.metrics.incTimeoutCount()
	case modbus.ResponseRxFailed:
		c.metrics.incRxFailedCount()
	case modbus.ResponseConnectionFailed:
		c.metrics.incConnectFailCount()
	}

	return code
}

// write sends one frame over conn with a bounded write deadline.
func write(conn net.Conn, frame []byte, timeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	_, err := conn.Write(frame)

	return err
}

// dropConn tears down conn if it is still the connection's active socket.
// A newer socket established after conn broke is left alone.
func (c *Connection) dropConn(conn net.Conn) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != conn {
		return
	}

	c.connected.Store(false)
	_ = c.conn.Close()
	c.conn = nil
}

// receiverLoop reads raw chunks from the socket and forwards them to the
// in-flight exchange, if any. Chunks arriving with no pending exchange, for
// example a late reply after its timeout already resolved, are discarded, and
// an exchange riding a newer socket is never fed or failed by this receiver.
//
// On a read error or peer close it fails the in-flight exchange of its own
// socket, drops that socket and exits; there is no reconnect here, the next
// Send dials again.
func (c *Connection) receiverLoop(conn net.Conn) {
	buf := make([]byte, maxFrameLen)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if p := c.pending.Load(); p != nil && p.conn == conn {
				p.feed(buf[:n])
			} else {
				c.logger.Debug("discarding bytes with no exchange in flight", "bytes", n)
			}
		}

		if err != nil {
			if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
				c.logger.Debug("connection closed", "error", err)
			} else {
				c.logger.Error("socket read error", "error", err)
			}

			// A broken stream can no longer complete the outstanding
			// exchange; fail it now instead of waiting for its timeout.
			if p := c.pending.Load(); p != nil && p.conn == conn {
				p.resolve(modbus.ResponseRxFailed)
			}

			c.dropConn(conn)

			return
		}
	}
}
