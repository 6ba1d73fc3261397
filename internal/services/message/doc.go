// Package message builds and sends outbound payloads: profile announcements,
// encrypted direct messages, public broadcasts, refresh requests and plain
// lobby lines.
//
// Direct messages are sealed with the NaCl box construction for the public
// key the recipient announced in its profile and are addressed to that peer
// only. Sends are fire-and-forget; no acknowledgement is awaited.
package message
