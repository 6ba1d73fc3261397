package types

// PeerProfile is what a peer announced about itself in its last profile
// broadcast.
type PeerProfile struct {
	ID        PeerID
	Handle    string
	Bio       string
	PublicKey PublicKey
}
