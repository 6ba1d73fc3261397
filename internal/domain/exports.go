package domain

import (
	interfaces "wut/internal/domain/interfaces"
	types "wut/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PeerID         = types.PeerID
	Fingerprint    = types.Fingerprint
	PublicKey      = types.PublicKey
	SecretKey      = types.SecretKey
	Nonce          = types.Nonce
	KeyPair        = types.KeyPair
	PeerProfile    = types.PeerProfile
	MessageType    = types.MessageType
	WireBytes      = types.WireBytes
	ProfileWire    = types.ProfileWire
	DirectWire     = types.DirectWire
	BroadcastWire  = types.BroadcastWire
	Sealed         = types.Sealed
	InboundMessage = types.InboundMessage
	EventKind      = types.EventKind
	TransportEvent = types.TransportEvent
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore         = interfaces.KeyStore
	Sink             = interfaces.Sink
	SinkFactory      = interfaces.SinkFactory
	Transport        = interfaces.Transport
	IdentityService  = interfaces.IdentityService
	PeerDirectory    = interfaces.PeerDirectory
	SessionTable     = interfaces.SessionTable
	ProfileAnnouncer = interfaces.ProfileAnnouncer
	MessageService   = interfaces.MessageService
)

// Constants re-exported from the types subpackage.
const (
	MessageTypeProfile   = types.MessageTypeProfile
	MessageTypeDirect    = types.MessageTypeDirect
	MessageTypeBroadcast = types.MessageTypeBroadcast
	RefreshSentinel      = types.RefreshSentinel

	EventMessage = types.EventMessage
	EventJoin    = types.EventJoin
	EventLeave   = types.EventLeave
)
