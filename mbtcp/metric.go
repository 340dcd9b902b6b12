package mbtcp

import "github.com/puzpuzpuz/xsync/v3"

// ConnectionMetrics contains counters for a connection.
// Counter values can back a prometheus CounterFunc.
type ConnectionMetrics struct {
	// RequestSendCount counts request frames written to the connection.
	RequestSendCount *xsync.Counter
	// ReplyRecvCount counts exchanges resolved with a validated reply.
	ReplyRecvCount *xsync.Counter
	// TimeoutCount counts exchanges resolved by the response timeout.
	TimeoutCount *xsync.Counter
	// RxFailedCount counts exchanges resolved by a correlation or framing
	// failure, or by the connection breaking mid-exchange.
	RxFailedCount *xsync.Counter
	// ConnectFailCount counts exchanges that could not obtain or use a
	// connection.
	ConnectFailCount *xsync.Counter
}

func newConnectionMetrics() *ConnectionMetrics {
	return &ConnectionMetrics{
		RequestSendCount: xsync.NewCounter(),
		ReplyRecvCount:   xsync.NewCounter(),
		TimeoutCount:     xsync.NewCounter(),
		RxFailedCount:    xsync.NewCounter(),
		ConnectFailCount: xsync.NewCounter(),
	}
}

func (m *ConnectionMetrics) incRequestSendCount() { m.RequestSendCount.Inc() }
func (m *ConnectionMetrics) incReplyRecvCount()   { m.ReplyRecvCount.Inc() }
func (m *ConnectionMetrics) incTimeoutCount()     { m.TimeoutCount.Inc() }
func (m *ConnectionMetrics) incRxFailedCount()    { m.RxFailedCount.Inc() }
func (m *ConnectionMetrics) incConnectFailCount() { m.ConnectFailCount.Inc() }
