// Package wire holds the value types that cross the boundary between the
// dispatch engine and the network: the prepared outgoing request, the raw
// response, and the per-request result. It also defines the Transport
// contract and ships a production implementation built on net/http.
package wire
