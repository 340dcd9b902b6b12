package modbus

import "errors"

var (
	// ErrShortResponse indicates that a reply PDU is too short for its function.
	ErrShortResponse = errors.New("response PDU too short")

	// ErrFunctionMismatch indicates that the echoed function code of a reply
	// does not match the function code of the request.
	ErrFunctionMismatch = errors.New("response function code mismatch")

	// ErrResponseMismatch indicates that an echoed field of a write reply
	// (address, value or quantity) does not match the request.
	ErrResponseMismatch = errors.New("response echo mismatch")

	// ErrByteCount indicates that the byte-count field of a read reply does
	// not cover the requested quantity or disagrees with the PDU length.
	ErrByteCount = errors.New("invalid response byte count")
)
