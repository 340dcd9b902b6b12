package modbus

import "fmt"

// Modbus public function codes implemented by the typed requests.
const (
	FuncReadCoils              byte = 0x01
	FuncReadDiscreteInputs     byte = 0x02
	FuncReadHoldingRegisters   byte = 0x03
	FuncReadInputRegisters     byte = 0x04
	FuncWriteSingleCoil        byte = 0x05
	FuncWriteSingleRegister    byte = 0x06
	FuncWriteMultipleRegisters byte = 0x10
)

// exceptionFlag is OR-ed into the echoed function code of an exception reply.
const exceptionFlag byte = 0x80

// ExceptionCode is the one-byte code carried by a Modbus exception reply.
type ExceptionCode byte

// Standard Modbus exception codes.
const (
	ExceptionIllegalFunction              ExceptionCode = 0x01
	ExceptionIllegalDataAddress           ExceptionCode = 0x02
	ExceptionIllegalDataValue             ExceptionCode = 0x03
	ExceptionServerDeviceFailure          ExceptionCode = 0x04
	ExceptionAcknowledge                  ExceptionCode = 0x05
	ExceptionServerDeviceBusy             ExceptionCode = 0x06
	ExceptionMemoryParityError            ExceptionCode = 0x08
	ExceptionGatewayPathUnavailable       ExceptionCode = 0x0A
	ExceptionGatewayTargetFailedToRespond ExceptionCode = 0x0B
)

func (c ExceptionCode) String() string {
	switch c {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionServerDeviceFailure:
		return "server device failure"
	case ExceptionAcknowledge:
		return "acknowledge"
	case ExceptionServerDeviceBusy:
		return "server device busy"
	case ExceptionMemoryParityError:
		return "memory parity error"
	case ExceptionGatewayPathUnavailable:
		return "gateway path unavailable"
	case ExceptionGatewayTargetFailedToRespond:
		return "gateway target device failed to respond"
	default:
		return fmt.Sprintf("exception code 0x%02x", byte(c))
	}
}

// ExceptionError is returned by a request decoder when the device answered
// with a Modbus exception reply instead of a normal response.
type ExceptionError struct {
	Function byte
	Code     ExceptionCode
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception for function 0x%02x: %s", e.Function, e.Code)
}
