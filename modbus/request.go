package modbus

import "time"

// Request is the unit of work consumed by a go-mbtcp transport.
//
// A Request carries the function-specific PDU to transmit and a mutable result
// slot. The transport re-arms the request with Reset before each send, hands
// the reply PDU to SetPDUResponse on a validated reply, and records the
// exchange outcome with SetResponseCode. The request is never retained by the
// transport beyond one exchange.
type Request interface {
	// PDU returns the protocol data unit to transmit: function code plus data,
	// without any framing.
	PDU() []byte

	// ResponseTimeout returns the per-request reply timeout.
	// Zero means "use the connection's configured response timeout".
	ResponseTimeout() time.Duration

	// Reset clears the result slot so stale data from a prior exchange cannot
	// leak into a new one.
	Reset()

	// ResponseCode returns the outcome of the most recent exchange, or
	// ResponseUndefined if none completed since the last Reset.
	ResponseCode() ResponseCode

	// SetResponseCode records the outcome of an exchange.
	SetResponseCode(code ResponseCode)

	// SetPDUResponse decodes the reply PDU into the request's typed result.
	// A decode error does not change the transport outcome; it is the
	// collaborator's concern and is surfaced via Err.
	SetPDUResponse(pdu []byte) error

	// Err returns the decode error of the most recent exchange, if any.
	Err() error
}

// baseRequest carries the result slot and timeout override shared by all
// request implementations.
type baseRequest struct {
	code    ResponseCode
	err     error
	timeout time.Duration
}

func (r *baseRequest) ResponseCode() ResponseCode { return r.code }

func (r *baseRequest) SetResponseCode(code ResponseCode) { r.code = code }

func (r *baseRequest) ResponseTimeout() time.Duration { return r.timeout }

// SetResponseTimeout overrides the connection's response timeout for this
// request. A zero duration restores the connection default.
func (r *baseRequest) SetResponseTimeout(timeout time.Duration) { r.timeout = timeout }

func (r *baseRequest) Err() error { return r.err }

func (r *baseRequest) resetBase() {
	r.code = ResponseUndefined
	r.err = nil
}

// RawRequest transmits a caller-supplied PDU verbatim and retains the raw
// reply PDU without interpretation. It is the escape hatch for function codes
// the typed requests do not cover.
type RawRequest struct {
	baseRequest
	pdu      []byte
	response []byte
}

var _ Request = (*RawRequest)(nil)

// NewRawRequest creates a request that transmits pdu as-is.
// The caller keeps ownership of pdu and must not mutate it while a send is
// in flight.
func NewRawRequest(pdu []byte) *RawRequest {
	return &RawRequest{pdu: pdu}
}

func (r *RawRequest) PDU() []byte { return r.pdu }

func (r *RawRequest) Reset() {
	r.resetBase()
	r.response = nil
}

func (r *RawRequest) SetPDUResponse(pdu []byte) error {
	r.response = make([]byte, len(pdu))
	copy(r.response, pdu)

	return nil
}

// Response returns the raw reply PDU of the most recent successful exchange,
// or nil.
func (r *RawRequest) Response() []byte { return r.response }
