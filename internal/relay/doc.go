// Package relay implements the pub/sub transport used by wut: an HTTP relay
// server that fans messages out to the members of a topic, and a client that
// joins a topic and satisfies domain.Transport.
//
// Each member has an inbox on the relay. Senders post to the topic, either
// to everyone else or addressed to one member, and receivers poll their
// inbox and acknowledge what they consumed by sequence number, so events
// queued after a fetch survive the ack even when the inbox overflowed in
// between. Joins and leaves are delivered through the same inboxes as
// events.
//
// Member ids are public. Join also returns a secret token, and every
// request made as a member must present it as a bearer token; the relay
// refuses to publish under, read, ack or remove an id the token does not
// belong to.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors with the HTTP method,
// path, and status text to aid diagnostics.
package relay
