// Package main runs the wut topic relay: an in-memory pub/sub service that
// fans chat payloads out to the members of a topic. It never sees plaintext
// direct messages or private keys; those are sealed end to end by clients.
//
// HTTP API
//
// Every request made as a member carries "Authorization: Bearer <token>"
// with the token returned by join. A missing token is 401; a token that
// belongs to another member is 403.
//
//	POST /topics/{topic}/peers
//	    Join {topic}. Returns {"id": "<uuid>", "token": "<secret>"}; other
//	    members get a join event.
//
//	GET /topics/{topic}/peers
//	    List member ids.
//
//	DELETE /topics/{topic}/peers/{id}
//	    Leave; other members get a leave event.
//
//	POST /topics/{topic}/messages {"from", "to", "data"}
//	    Queue data for every member except the sender, or only for "to" when
//	    set. 404 when the sender or recipient is not a member, 403 when the
//	    token is not the sender's.
//
//	GET /topics/{topic}/peers/{id}/inbox?limit=N
//	    Return up to N queued events without removing them. Each event has
//	    a "seq" that grows by one per event queued for {id}.
//
//	POST /topics/{topic}/peers/{id}/inbox/ack {"upTo": S}
//	    Drop queued events whose seq is at most S.
//
//	GET /metrics, GET /health
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Members that stop polling for longer than --peer-ttl are reaped and
//     announced as leaving.
//   - Each inbox holds at most --inbox-cap events; the oldest are dropped.
//   - The default listen address is :8080.
package main
