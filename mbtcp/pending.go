package mbtcp

import (
	"net"
	"sync"

	"github.com/valyala/bytebufferpool"

	"github.com/arloliu/go-mbtcp/logger"
	"github.com/arloliu/go-mbtcp/modbus"
)

// pendingRequest tracks the single in-flight exchange of a connection.
//
// It accumulates reply bytes as they arrive from the socket, validates the
// MBAP header against the expected transaction identifier, and resolves the
// originating request exactly once. The reply path, the response timeout and
// the socket error path all funnel into the same one-shot resolution; only
// the first caller wins, later resolutions are no-ops.
//
// At most one pendingRequest exists per connection at any instant; the
// exchange serialization in Connection.Send enforces that, not this type.
type pendingRequest struct {
	mu  sync.Mutex
	req modbus.Request
	tid uint16
	// conn is the socket the request frame was written to; receivers of any
	// other socket must not feed or resolve this exchange.
	conn   net.Conn
	logger logger.Logger

	buf *bytebufferpool.ByteBuffer
	// bodyLen is the declared length from the MBAP header: the unit
	// identifier byte plus the reply PDU. -1 until the header is parsed.
	bodyLen  int
	resolved bool

	// done receives the final response code exactly once.
	done chan modbus.ResponseCode
}

func newPendingRequest(req modbus.Request, tid uint16, conn net.Conn, l logger.Logger) *pendingRequest {
	return &pendingRequest{
		req:     req,
		tid:     tid,
		conn:    conn,
		logger:  l,
		buf:     bytebufferpool.Get(),
		bodyLen: -1,
		done:    make(chan modbus.ResponseCode, 1),
	}
}

// feed appends one chunk of reply bytes and advances frame assembly.
//
// Chunks may be arbitrarily small; the header and body need not arrive
// together. Data arriving after resolution is ignored.
func (p *pendingRequest) feed(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolved {
		return
	}

	_, _ = p.buf.Write(data)
	b := p.buf.B

	if p.bodyLen < 0 {
		if len(b) < mbapHeaderLen {
			return
		}

		hdr := parseMBAPHeader(b)

		if hdr.transactionID != p.tid {
			p.logger.Warn("reply transaction identifier mismatch", "got", hdr.transactionID, "want", p.tid)
			p.resolveLocked(modbus.ResponseRxFailed, nil)

			return
		}

		if hdr.protocolID != protocolID {
			p.logger.Warn("reply protocol identifier is nonzero", "got", hdr.protocolID, "tid", p.tid)
			p.resolveLocked(modbus.ResponseRxFailed, nil)

			return
		}

		if hdr.length < 1 || hdr.length > maxPDULen+1 {
			p.logger.Warn("declared reply length out of range", "length", hdr.length, "tid", p.tid)
			p.resolveLocked(modbus.ResponseRxFailed, nil)

			return
		}

		p.bodyLen = int(hdr.length)
	}

	// The complete frame spans the 6-byte MBAP header plus the declared
	// length (unit identifier byte + PDU).
	if len(b) >= mbapHeaderLen+p.bodyLen {
		pdu := make([]byte, p.bodyLen-1)
		copy(pdu, b[frameHeaderLen:mbapHeaderLen+p.bodyLen])
		p.resolveLocked(modbus.ResponseSuccess, pdu)
	}
}

// resolve settles the exchange with code. The first resolution wins.
func (p *pendingRequest) resolve(code modbus.ResponseCode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolveLocked(code, nil)
}

func (p *pendingRequest) resolveLocked(code modbus.ResponseCode, pdu []byte) {
	if p.resolved {
		return
	}
	p.resolved = true

	if code == modbus.ResponseSuccess {
		// Decode failures stay on the request; the transport outcome is
		// still a successful exchange.
		if err := p.req.SetPDUResponse(pdu); err != nil {
			p.logger.Warn("reply PDU decode failed", "tid", p.tid, "error", err)
		}
	}
	p.req.SetResponseCode(code)

	bytebufferpool.Put(p.buf)
	p.buf = nil

	p.done <- code
}
