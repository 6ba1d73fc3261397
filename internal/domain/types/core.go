package types

// PeerID is the transport-assigned identifier of a remote participant.
type PeerID string

// String returns the string form of the peer identifier.
func (id PeerID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
