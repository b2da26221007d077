// Package bridge exposes a document's event delegation over a websocket.
//
// A host process that owns the real input (a test driver, a native shell,
// a remote browser) sends one JSON frame per event:
//
//	{"id":"7","type":"click","hid":"h1"}
//
// The bridge resolves the element whose data-hid attribute equals hid,
// dispatches a native event there inside one loop turn, and answers:
//
//	{"id":"7","status":"ok","defaultPrevented":false}
//
// Handler errors raised during the turn, including deferred ones, are
// listed under "errors" with status "handler_error". Frames that cannot be
// dispatched get status "invalid" and a W08x code.
//
// Routes:
//   - GET /ws: websocket endpoint
//   - GET /healthz: liveness
//   - GET /metrics: Prometheus exposition, when Config.Gatherer is set
package bridge
