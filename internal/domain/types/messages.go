package types

// MessageType tags JSON transport payloads.
type MessageType string

const (
	MessageTypeProfile   MessageType = "profile"
	MessageTypeDirect    MessageType = "dm"
	MessageTypeBroadcast MessageType = "broadcast"
)

// RefreshSentinel is the literal, non-JSON payload asking peers to re-send
// their profile to the requester.
const RefreshSentinel = "peer-refresh"

// WireBytes is a byte sequence as carried in JSON: an object mapping the
// decimal index of each byte to its value, e.g. {"0":12,"1":255}.
type WireBytes map[string]int

// ProfileWire is the profile broadcast payload.
type ProfileWire struct {
	MessageType MessageType `json:"messageType"`
	Handle      string      `json:"handle"`
	Bio         string      `json:"bio"`
	PublicKey   WireBytes   `json:"publicKey"`
}

// DirectWire is the encrypted direct message payload.
type DirectWire struct {
	MessageType MessageType `json:"messageType"`
	FromHandle  string      `json:"fromHandle"`
	Nonce       WireBytes   `json:"nonce"`
	Ciphertext  WireBytes   `json:"ciphertext"`
}

// BroadcastWire is the public announcement payload.
type BroadcastWire struct {
	MessageType MessageType `json:"messageType"`
	Content     string      `json:"content"`
}

// Sealed is one box-encrypted payload with the nonce it was sealed under.
type Sealed struct {
	Nonce      Nonce
	Ciphertext []byte
}

// InboundMessage is a single payload delivered by the transport.
type InboundMessage struct {
	From PeerID
	Data string
}
