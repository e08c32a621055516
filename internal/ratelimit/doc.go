// Package ratelimit enforces the Discogs search budget on outbound calls.
//
// The limiter tracks a fixed budget over a rolling window. Acquire admits a
// call immediately while budget remains and blocks for the rest of the
// window once it is spent. The server is the source of truth: Observe
// overwrites the local counters with the X-Discogs-Ratelimit response
// headers after every call, so local accounting only carries the gap
// between requests and responses (or fills in when headers are missing).
package ratelimit
