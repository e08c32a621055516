// Package discogs implements the release search client.
//
// Each Search issues one GET against the Discogs database search endpoint
// with bounded retries: HTTP 429 honours Retry-After, transport failures
// back off for a fixed delay, and any other non-2xx status fails without
// retry. Every received response feeds the rate limiter exactly once so the
// local window tracks the server's accounting.
package discogs
