// Package directory keeps the profiles peers have announced for the lifetime
// of the process.
//
// Profiles are never removed when a peer leaves, so a peer that rejoins can
// be messaged without announcing again. A repeated announcement replaces the
// previous profile.
package directory
