// Package ratelimit implements fixed-window admission control keyed by
// client, plus best-effort statistics about its decisions.
//
// Each client keeps a counter per window bucket, where a bucket starts at
// floor(now / window) * window. Buckets older than one window width are
// pruned on every access, so a client never holds more than two.
package ratelimit
