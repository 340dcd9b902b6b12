package modbus

// ResponseCode reports the outcome of one request/reply exchange.
//
// The transport never surfaces exchange failures as errors; every send
// resolves to exactly one ResponseCode, stored on the request and returned
// to the caller.
type ResponseCode uint8

const (
	// ResponseUndefined indicates that no exchange has completed for the
	// request yet. It is the state of a freshly created or reset request.
	ResponseUndefined ResponseCode = iota

	// ResponseSuccess indicates that a validated reply frame arrived in time
	// and its payload was handed to the request's decoder.
	ResponseSuccess

	// ResponseConnectionFailed indicates that no connection could be
	// established, the connection policy forbade connecting, or the request
	// could not be transmitted.
	ResponseConnectionFailed

	// ResponseTimeout indicates that no complete, validated reply arrived
	// within the response timeout.
	ResponseTimeout

	// ResponseRxFailed indicates that a reply arrived but failed transaction
	// correlation or frame validation, or that the connection broke while the
	// reply was outstanding.
	ResponseRxFailed
)

func (c ResponseCode) String() string {
	switch c {
	case ResponseUndefined:
		return "undefined"
	case ResponseSuccess:
		return "success"
	case ResponseConnectionFailed:
		return "connection failed"
	case ResponseTimeout:
		return "request timeout"
	case ResponseRxFailed:
		return "request rx failed"
	default:
		return "unknown"
	}
}
