package mbtcp

import "encoding/binary"

// DefaultPort is the well-known Modbus TCP port.
const DefaultPort = 502

const (
	// mbapHeaderLen is the size of the MBAP header proper: transaction
	// identifier, protocol identifier and length, 2 bytes each.
	mbapHeaderLen = 6

	// frameHeaderLen is the size of everything preceding the PDU on the wire:
	// the MBAP header plus the unit identifier byte.
	frameHeaderLen = 7

	// protocolID is the MBAP protocol identifier; always zero for Modbus.
	protocolID uint16 = 0

	// maxPDULen is the largest PDU the protocol allows.
	maxPDULen = 253

	// maxFrameLen is the largest complete frame: header plus maximum PDU.
	maxFrameLen = frameHeaderLen + maxPDULen
)

// buildFrame wraps a PDU in an MBAP frame. The length field counts the unit
// identifier byte plus the PDU, so a PDU of N bytes yields a frame of N+7
// bytes with length field N+1.
func buildFrame(tid uint16, unitID byte, pdu []byte) []byte {
	frame := make([]byte, frameHeaderLen+len(pdu))
	binary.BigEndian.PutUint16(frame[0:2], tid)
	binary.BigEndian.PutUint16(frame[2:4], protocolID)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(pdu)+1))
	frame[6] = unitID
	copy(frame[frameHeaderLen:], pdu)

	return frame
}

// mbapHeader is the parsed form of the 6-byte MBAP header of a reply frame.
type mbapHeader struct {
	transactionID uint16
	protocolID    uint16
	// length declares the number of bytes following the length field:
	// the unit identifier byte plus the reply PDU.
	length uint16
}

// parseMBAPHeader decodes the first 6 bytes of b.
// The caller must guarantee len(b) >= mbapHeaderLen.
func parseMBAPHeader(b []byte) mbapHeader {
	return mbapHeader{
		transactionID: binary.BigEndian.Uint16(b[0:2]),
		protocolID:    binary.BigEndian.Uint16(b[2:4]),
		length:        binary.BigEndian.Uint16(b[4:6]),
	}
}
