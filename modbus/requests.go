package modbus

import (
	"encoding/binary"
	"fmt"
)

// checkResponse validates the echoed function code of a reply PDU and converts
// exception replies into an *ExceptionError.
func checkResponse(fn byte, pdu []byte) error {
	if len(pdu) == 0 {
		return fmt.Errorf("%w: empty PDU", ErrShortResponse)
	}

	if pdu[0] == fn|exceptionFlag {
		if len(pdu) < 2 {
			return fmt.Errorf("%w: exception reply without exception code", ErrShortResponse)
		}

		return &ExceptionError{Function: fn, Code: ExceptionCode(pdu[1])}
	}

	if pdu[0] != fn {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrFunctionMismatch, pdu[0], fn)
	}

	return nil
}

// encodeAddrQuantity builds the 5-byte PDU shared by all read functions:
// function code, start address and quantity, both big-endian.
func encodeAddrQuantity(fn byte, address, quantity uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = fn
	binary.BigEndian.PutUint16(pdu[1:3], address)
	binary.BigEndian.PutUint16(pdu[3:5], quantity)

	return pdu
}

// decodeBits decodes the packed-bit reply of Read Coils / Read Discrete Inputs
// into quantity booleans, least significant bit first.
func decodeBits(fn byte, quantity uint16, pdu []byte) ([]bool, error) {
	if err := checkResponse(fn, pdu); err != nil {
		return nil, err
	}

	if len(pdu) < 2 {
		return nil, fmt.Errorf("%w: missing byte count", ErrShortResponse)
	}

	byteCount := int(pdu[1])
	if byteCount != (int(quantity)+7)/8 {
		return nil, fmt.Errorf("%w: got %d bytes for %d bits", ErrByteCount, byteCount, quantity)
	}
	if len(pdu) != 2+byteCount {
		return nil, fmt.Errorf("%w: byte count %d, PDU data length %d", ErrByteCount, byteCount, len(pdu)-2)
	}

	values := make([]bool, quantity)
	for i := range values {
		values[i] = pdu[2+i/8]&(1<<(i%8)) != 0
	}

	return values, nil
}

// decodeRegisters decodes the reply of Read Holding / Input Registers into
// quantity big-endian 16-bit values.
func decodeRegisters(fn byte, quantity uint16, pdu []byte) ([]uint16, error) {
	if err := checkResponse(fn, pdu); err != nil {
		return nil, err
	}

	if len(pdu) < 2 {
		return nil, fmt.Errorf("%w: missing byte count", ErrShortResponse)
	}

	byteCount := int(pdu[1])
	if byteCount != 2*int(quantity) {
		return nil, fmt.Errorf("%w: got %d bytes for %d registers", ErrByteCount, byteCount, quantity)
	}
	if len(pdu) != 2+byteCount {
		return nil, fmt.Errorf("%w: byte count %d, PDU data length %d", ErrByteCount, byteCount, len(pdu)-2)
	}

	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(pdu[2+2*i:])
	}

	return values, nil
}

// ReadCoilsRequest reads quantity coils starting at address (function 0x01).
type ReadCoilsRequest struct {
	baseRequest
	Address  uint16
	Quantity uint16
	values   []bool
}

var _ Request = (*ReadCoilsRequest)(nil)

func NewReadCoilsRequest(address, quantity uint16) *ReadCoilsRequest {
	return &ReadCoilsRequest{Address: address, Quantity: quantity}
}

func (r *ReadCoilsRequest) PDU() []byte {
	return encodeAddrQuantity(FuncReadCoils, r.Address, r.Quantity)
}

func (r *ReadCoilsRequest) Reset() {
	r.resetBase()
	r.values = nil
}

func (r *ReadCoilsRequest) SetPDUResponse(pdu []byte) error {
	r.values, r.err = decodeBits(FuncReadCoils, r.Quantity, pdu)
	return r.err
}

// Coils returns the decoded coil states of the most recent successful exchange.
func (r *ReadCoilsRequest) Coils() []bool { return r.values }

// ReadDiscreteInputsRequest reads quantity discrete inputs starting at address
// (function 0x02).
type ReadDiscreteInputsRequest struct {
	baseRequest
	Address  uint16
	Quantity uint16
	values   []bool
}

var _ Request = (*ReadDiscreteInputsRequest)(nil)

func NewReadDiscreteInputsRequest(address, quantity uint16) *ReadDiscreteInputsRequest {
	return &ReadDiscreteInputsRequest{Address: address, Quantity: quantity}
}

func (r *ReadDiscreteInputsRequest) PDU() []byte {
	return encodeAddrQuantity(FuncReadDiscreteInputs, r.Address, r.Quantity)
}

func (r *ReadDiscreteInputsRequest) Reset() {
	r.resetBase()
	r.values = nil
}

func (r *ReadDiscreteInputsRequest) SetPDUResponse(pdu []byte) error {
	r.values, r.err = decodeBits(FuncReadDiscreteInputs, r.Quantity, pdu)
	return r.err
}

// Inputs returns the decoded input states of the most recent successful exchange.
func (r *ReadDiscreteInputsRequest) Inputs() []bool { return r.values }

// ReadHoldingRegistersRequest reads quantity holding registers starting at
// address (function 0x03).
type ReadHoldingRegistersRequest struct {
	baseRequest
	Address  uint16
	Quantity uint16
	values   []uint16
}

var _ Request = (*ReadHoldingRegistersRequest)(nil)

func NewReadHoldingRegistersRequest(address, quantity uint16) *ReadHoldingRegistersRequest {
	return &ReadHoldingRegistersRequest{Address: address, Quantity: quantity}
}

func (r *ReadHoldingRegistersRequest) PDU() []byte {
	return encodeAddrQuantity(FuncReadHoldingRegisters, r.Address, r.Quantity)
}

func (r *ReadHoldingRegistersRequest) Reset() {
	r.resetBase()
	r.values = nil
}

func (r *ReadHoldingRegistersRequest) SetPDUResponse(pdu []byte) error {
	r.values, r.err = decodeRegisters(FuncReadHoldingRegisters, r.Quantity, pdu)
	return r.err
}

// Registers returns the decoded register values of the most recent successful
// exchange.
func (r *ReadHoldingRegistersRequest) Registers() []uint16 { return r.values }

// ReadInputRegistersRequest reads quantity input registers starting at address
// (function 0x04).
type ReadInputRegistersRequest struct {
	baseRequest
	Address  uint16
	Quantity uint16
	values   []uint16
}

var _ Request = (*ReadInputRegistersRequest)(nil)

func NewReadInputRegistersRequest(address, quantity uint16) *ReadInputRegistersRequest {
	return &ReadInputRegistersRequest{Address: address, Quantity: quantity}
}

func (r *ReadInputRegistersRequest) PDU() []byte {
	return encodeAddrQuantity(FuncReadInputRegisters, r.Address, r.Quantity)
}

func (r *ReadInputRegistersRequest) Reset() {
	r.resetBase()
	r.values = nil
}

func (r *ReadInputRegistersRequest) SetPDUResponse(pdu []byte) error {
	r.values, r.err = decodeRegisters(FuncReadInputRegisters, r.Quantity, pdu)
	return r.err
}

// Registers returns the decoded register values of the most recent successful
// exchange.
func (r *ReadInputRegistersRequest) Registers() []uint16 { return r.values }

// WriteSingleCoilRequest writes one coil at address (function 0x05).
type WriteSingleCoilRequest struct {
	baseRequest
	Address uint16
	Value   bool
}

var _ Request = (*WriteSingleCoilRequest)(nil)

func NewWriteSingleCoilRequest(address uint16, value bool) *WriteSingleCoilRequest {
	return &WriteSingleCoilRequest{Address: address, Value: value}
}

func (r *WriteSingleCoilRequest) PDU() []byte {
	// Coil ON is encoded as 0xFF00, OFF as 0x0000.
	var v uint16
	if r.Value {
		v = 0xFF00
	}

	pdu := make([]byte, 5)
	pdu[0] = FuncWriteSingleCoil
	binary.BigEndian.PutUint16(pdu[1:3], r.Address)
	binary.BigEndian.PutUint16(pdu[3:5], v)

	return pdu
}

func (r *WriteSingleCoilRequest) Reset() { r.resetBase() }

func (r *WriteSingleCoilRequest) SetPDUResponse(pdu []byte) error {
	r.err = r.checkEcho(pdu)
	return r.err
}

func (r *WriteSingleCoilRequest) checkEcho(pdu []byte) error {
	if err := checkResponse(FuncWriteSingleCoil, pdu); err != nil {
		return err
	}

	want := r.PDU()
	if len(pdu) != len(want) {
		return fmt.Errorf("%w: echo length %d, want %d", ErrShortResponse, len(pdu), len(want))
	}
	for i := range want {
		if pdu[i] != want[i] {
			return fmt.Errorf("%w: write single coil echo differs at offset %d", ErrResponseMismatch, i)
		}
	}

	return nil
}

// WriteSingleRegisterRequest writes one holding register at address
// (function 0x06).
type WriteSingleRegisterRequest struct {
	baseRequest
	Address uint16
	Value   uint16
}

var _ Request = (*WriteSingleRegisterRequest)(nil)

func NewWriteSingleRegisterRequest(address, value uint16) *WriteSingleRegisterRequest {
	return &WriteSingleRegisterRequest{Address: address, Value: value}
}

func (r *WriteSingleRegisterRequest) PDU() []byte {
	pdu := make([]byte, 5)
	pdu[0] = FuncWriteSingleRegister
	binary.BigEndian.PutUint16(pdu[1:3], r.Address)
	binary.BigEndian.PutUint16(pdu[3:5], r.Value)

	return pdu
}

func (r *WriteSingleRegisterRequest) Reset() { r.resetBase() }

func (r *WriteSingleRegisterRequest) SetPDUResponse(pdu []byte) error {
	r.err = r.checkEcho(pdu)
	return r.err
}

func (r *WriteSingleRegisterRequest) checkEcho(pdu []byte) error {
	if err := checkResponse(FuncWriteSingleRegister, pdu); err != nil {
		return err
	}

	if len(pdu) != 5 {
		return fmt.Errorf("%w: echo length %d, want 5", ErrShortResponse, len(pdu))
	}
	if binary.BigEndian.Uint16(pdu[1:3]) != r.Address || binary.BigEndian.Uint16(pdu[3:5]) != r.Value {
		return fmt.Errorf("%w: write single register echo differs", ErrResponseMismatch)
	}

	return nil
}

// WriteMultipleRegistersRequest writes consecutive holding registers starting
// at address (function 0x10).
type WriteMultipleRegistersRequest struct {
	baseRequest
	Address uint16
	Values  []uint16
}

var _ Request = (*WriteMultipleRegistersRequest)(nil)

func NewWriteMultipleRegistersRequest(address uint16, values []uint16) *WriteMultipleRegistersRequest {
	return &WriteMultipleRegistersRequest{Address: address, Values: values}
}

func (r *WriteMultipleRegistersRequest) PDU() []byte {
	quantity := len(r.Values)
	pdu := make([]byte, 6+2*quantity)
	pdu[0] = FuncWriteMultipleRegisters
	binary.BigEndian.PutUint16(pdu[1:3], r.Address)
	binary.BigEndian.PutUint16(pdu[3:5], uint16(quantity))
	pdu[5] = byte(2 * quantity)
	for i, v := range r.Values {
		binary.BigEndian.PutUint16(pdu[6+2*i:], v)
	}

	return pdu
}

func (r *WriteMultipleRegistersRequest) Reset() { r.resetBase() }

func (r *WriteMultipleRegistersRequest) SetPDUResponse(pdu []byte) error {
	r.err = r.checkEcho(pdu)
	return r.err
}

func (r *WriteMultipleRegistersRequest) checkEcho(pdu []byte) error {
	if err := checkResponse(FuncWriteMultipleRegisters, pdu); err != nil {
		return err
	}

	if len(pdu) != 5 {
		return fmt.Errorf("%w: echo length %d, want 5", ErrShortResponse, len(pdu))
	}
	if binary.BigEndian.Uint16(pdu[1:3]) != r.Address {
		return fmt.Errorf("%w: write multiple registers address echo differs", ErrResponseMismatch)
	}
	if int(binary.BigEndian.Uint16(pdu[3:5])) != len(r.Values) {
		return fmt.Errorf("%w: write multiple registers quantity echo differs", ErrResponseMismatch)
	}

	return nil
}
