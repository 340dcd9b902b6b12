// Package mbtcp implements the client side of the Modbus TCP protocol: it
// frames requests from the modbus package into MBAP frames, exchanges them
// with a remote device or gateway over a persistent TCP connection, and
// correlates replies with requests by transaction identifier.
//
// Key Features:
//   - Connection Management: Dials on demand, per exchange, or only on
//     explicit Connect, depending on the configured connection policy.
//   - Exchange Serialization: At most one exchange is in flight at a time;
//     concurrent Send callers are serialized for the full
//     connect+send+await-reply lifetime.
//   - Reply Assembly: Tolerates arbitrary TCP chunking of reply frames and
//     validates the transaction identifier, protocol identifier and declared
//     length before handing the payload to the request's decoder.
//   - Failure Model: Send never returns an error; connect failures, response
//     timeouts and framing failures all resolve to a modbus.ResponseCode.
//   - Endpoint Discovery: Discover scans ascending IPv4 addresses for a
//     device accepting TCP connections.
//
// Usage Example:
//
//	func main() {
//	    cfg, err := mbtcp.NewConnectionConfig("192.168.1.40", 0,
//	        mbtcp.WithUnitID(3),
//	        mbtcp.WithResponseTimeout(time.Second),
//	    )
//	    // ... handle error ...
//
//	    conn, err := mbtcp.NewConnection(ctx, cfg)
//	    // ... handle error ...
//	    defer conn.Disconnect()
//
//	    req := modbus.NewReadHoldingRegistersRequest(0x1000, 4)
//	    if code := conn.Send(req); code != modbus.ResponseSuccess {
//	        // ... inspect code ...
//	    }
//	    values := req.Registers()
//
//	    // ... other exchanges; requests are reusable across sends ...
//	}
package mbtcp
