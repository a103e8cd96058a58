// Package poller drives a single remote report job over HTTP.
//
// This package is internal to milestone-report. It owns the three calls
// the remote service exposes — trigger, status, proposals — and the
// fixed-interval retry loop between them.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts, size
//     limits, and tagged body decoding ([Payload])
//   - [Poller]: trigger + bounded poll loop + results fetch
//   - [Result]: the raw result set of a finished job
//
// Polling is strictly sequential: one request at a time, a constant
// interval between attempts, and a hard attempt cap as the only
// loop-level timeout.
package poller
