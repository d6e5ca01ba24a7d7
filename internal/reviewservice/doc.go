// Package reviewservice talks to the remote review service and to the
// content-addressed artifact gateway.
//
// Client submits signed scan requests with POST /scan and parses the response
// into a ScanResponse. Failures are reported as TransportError when no
// response arrived, ServiceRejectedError for non-2xx statuses (carrying the
// service's detail text verbatim), and MalformedResponseError when a 2xx body
// does not have the expected shape. GatewayClient downloads pinned report
// documents by CID.
package reviewservice
