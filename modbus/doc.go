// Package modbus defines the protocol object model shared by the go-mbtcp
// transports: response codes, the Request interface consumed by the transport,
// raw and typed function-code requests, and Modbus exception replies.
//
// A Request owns the pure protocol data unit (PDU) of one Modbus function:
// the function code and its data, independent of any framing. The transport
// wraps the PDU in the transport-specific frame, performs the exchange and
// hands the reply PDU back to the request for decoding.
//
// Requests are reusable: the transport re-arms them via Reset before every
// send, so the same request value can be polled in a loop.
package modbus
