package mbtcp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbtcp/logger"
	"github.com/arloliu/go-mbtcp/modbus"
)

var testLogger = logger.NewSlog(logger.ErrorLevel, false)

// buildReplyFrame builds a raw reply frame with an arbitrary protocol
// identifier, so tests can forge invalid framing.
func buildReplyFrame(tid, proto uint16, unit byte, pdu []byte) []byte {
	frame := make([]byte, frameHeaderLen+len(pdu))
	binary.BigEndian.PutUint16(frame[0:2], tid)
	binary.BigEndian.PutUint16(frame[2:4], proto)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(pdu)+1))
	frame[6] = unit
	copy(frame[frameHeaderLen:], pdu)

	return frame
}

func takeCode(t *testing.T, p *pendingRequest) modbus.ResponseCode {
	t.Helper()

	select {
	case code := <-p.done:
		return code
	default:
		t.Fatal("pending request not resolved")
		return modbus.ResponseUndefined
	}
}

// TestPendingRequestChunking verifies that the same reply assembles correctly
// regardless of how the bytes are fragmented, including one byte at a time.
func TestPendingRequestChunking(t *testing.T) {
	require := require.New(t)

	pdu := []byte{0x03, 0x02, 0xBE, 0xEF}
	frame := buildReplyFrame(42, 0, 1, pdu)

	for _, chunkSize := range []int{1, 3, len(frame)} {
		req := modbus.NewRawRequest([]byte{0x03})
		p := newPendingRequest(req, 42, nil, testLogger)

		for off := 0; off < len(frame); off += chunkSize {
			end := off + chunkSize
			if end > len(frame) {
				end = len(frame)
			}
			p.feed(frame[off:end])
		}

		require.Equal(modbus.ResponseSuccess, takeCode(t, p), "chunk size %d", chunkSize)
		require.Equal(modbus.ResponseSuccess, req.ResponseCode())
		require.Equal(pdu, req.Response())
	}
}

// TestPendingRequestSplitHeader verifies that nothing resolves before the
// 6-byte header is complete, and that header and body may arrive separately.
func TestPendingRequestSplitHeader(t *testing.T) {
	require := require.New(t)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 7, nil, testLogger)

	frame := buildReplyFrame(7, 0, 1, []byte{0x03, 0x02, 0x00, 0x0A})

	p.feed(frame[:5]) // one byte short of the header
	require.Equal(modbus.ResponseUndefined, req.ResponseCode())

	p.feed(frame[5:6]) // header complete, body missing
	require.Equal(modbus.ResponseUndefined, req.ResponseCode())

	p.feed(frame[6:])
	require.Equal(modbus.ResponseSuccess, takeCode(t, p))
}

func TestPendingRequestTransactionIDMismatch(t *testing.T) {
	require := require.New(t)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 10, nil, testLogger)

	p.feed(buildReplyFrame(11, 0, 1, []byte{0x03, 0x02, 0x00, 0x0A}))

	require.Equal(modbus.ResponseRxFailed, takeCode(t, p))
	require.Equal(modbus.ResponseRxFailed, req.ResponseCode())
	// The payload decoder must never run on a mismatched reply.
	require.Nil(req.Response())
}

func TestPendingRequestNonzeroProtocolID(t *testing.T) {
	require := require.New(t)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 10, nil, testLogger)

	p.feed(buildReplyFrame(10, 1, 1, []byte{0x03, 0x02, 0x00, 0x0A}))

	require.Equal(modbus.ResponseRxFailed, takeCode(t, p))
	require.Nil(req.Response())
}

func TestPendingRequestDeclaredLengthOutOfRange(t *testing.T) {
	require := require.New(t)

	for _, length := range []uint16{0, maxPDULen + 2} {
		req := modbus.NewRawRequest([]byte{0x03})
		p := newPendingRequest(req, 10, nil, testLogger)

		hdr := make([]byte, mbapHeaderLen)
		binary.BigEndian.PutUint16(hdr[0:2], 10)
		binary.BigEndian.PutUint16(hdr[4:6], length)
		p.feed(hdr)

		require.Equal(modbus.ResponseRxFailed, takeCode(t, p), "declared length %d", length)
	}
}

// TestPendingRequestLateData verifies that bytes arriving after resolution are
// ignored: a reply landing after the timeout already resolved the request must
// not invoke the decoder or change the outcome.
func TestPendingRequestLateData(t *testing.T) {
	require := require.New(t)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 10, nil, testLogger)

	p.resolve(modbus.ResponseTimeout)
	p.feed(buildReplyFrame(10, 0, 1, []byte{0x03, 0x02, 0x00, 0x0A}))

	require.Equal(modbus.ResponseTimeout, takeCode(t, p))
	require.Equal(modbus.ResponseTimeout, req.ResponseCode())
	require.Nil(req.Response())
}

// TestPendingRequestSingleResolution verifies the one-shot guard: the first
// resolution wins and exactly one code is ever delivered.
func TestPendingRequestSingleResolution(t *testing.T) {
	require := require.New(t)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 10, nil, testLogger)

	p.resolve(modbus.ResponseTimeout)
	p.resolve(modbus.ResponseRxFailed)

	require.Equal(modbus.ResponseTimeout, takeCode(t, p))
	require.Equal(modbus.ResponseTimeout, req.ResponseCode())

	select {
	case code := <-p.done:
		require.Fail("second resolution delivered", "code %v", code)
	default:
	}
}

// TestPendingRequestTrailingBytes verifies that bytes beyond the declared
// frame length do not leak into the decoded payload.
func TestPendingRequestTrailingBytes(t *testing.T) {
	require := require.New(t)

	pdu := []byte{0x03, 0x02, 0x00, 0x0A}
	frame := buildReplyFrame(10, 0, 1, pdu)
	frame = append(frame, 0xDE, 0xAD)

	req := modbus.NewRawRequest([]byte{0x03})
	p := newPendingRequest(req, 10, nil, testLogger)
	p.feed(frame)

	require.Equal(modbus.ResponseSuccess, takeCode(t, p))
	require.Equal(pdu, req.Response())
}
