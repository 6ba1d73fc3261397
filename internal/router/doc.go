// Package router classifies inbound transport payloads and dispatches each
// one to exactly one handler: profile update, direct message, public
// broadcast, profile refresh request or plain lobby text.
//
// Per-message failures never escape Route; they are logged and turned into
// a single notice on the relevant display sink.
package router
