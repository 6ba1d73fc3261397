package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wut/internal/codec"
	"wut/internal/domain"
)

var (
	// ErrMalformed marks a payload that looks like JSON but cannot be parsed
	// into any known message shape.
	ErrMalformed = errors.New("malformed payload")
	// ErrBadProfile marks a profile announcement whose public key is unusable.
	ErrBadProfile = errors.New("profile carries an invalid public key")
)

// legacyBroadcast is a misspelling some older clients still send.
const legacyBroadcast domain.MessageType = "brodcast"

// Message is one decoded inbound payload. The concrete type is one of
// ProfileMessage, DirectMessage, BroadcastMessage, RefreshRequest or
// PlainMessage.
type Message interface {
	isMessage()
}

// ProfileMessage announces a peer's handle, bio and public key.
type ProfileMessage struct {
	Handle    string
	Bio       string
	PublicKey domain.PublicKey
}

// DirectMessage is an encrypted envelope. Nonce and ciphertext are left in
// wire form; they are only validated when the envelope is opened.
type DirectMessage struct {
	FromHandle string
	Nonce      domain.WireBytes
	Ciphertext domain.WireBytes
}

// BroadcastMessage is a tagged public announcement.
type BroadcastMessage struct {
	Content string
}

// RefreshRequest asks us to re-send our profile to the requester.
type RefreshRequest struct{}

// PlainMessage is untagged lobby text, shown verbatim.
type PlainMessage struct {
	Text string
}

func (ProfileMessage) isMessage()   {}
func (DirectMessage) isMessage()    {}
func (BroadcastMessage) isMessage() {}
func (RefreshRequest) isMessage()   {}
func (PlainMessage) isMessage()     {}

// taggedMessage reads only the tag. The tag is kept raw so that a
// non-string messageType leaves the payload untagged instead of failing.
type taggedMessage struct {
	MessageType json.RawMessage `json:"messageType"`
}

// Decode classifies data. The refresh sentinel is matched before anything
// else. Text that does not look like JSON is plain. JSON that fails to
// parse yields ErrMalformed; JSON without a known string messageType is
// plain, whatever its other fields hold.
func Decode(data string) (Message, error) {
	if data == domain.RefreshSentinel {
		return RefreshRequest{}, nil
	}

	trimmed := strings.TrimSpace(data)
	switch {
	case strings.HasPrefix(trimmed, "{"):
	case strings.HasPrefix(trimmed, "["):
		if !json.Valid([]byte(trimmed)) {
			return nil, fmt.Errorf("%w: invalid JSON array", ErrMalformed)
		}
		return PlainMessage{Text: data}, nil
	default:
		return PlainMessage{Text: data}, nil
	}

	var tag taggedMessage
	if err := json.Unmarshal([]byte(trimmed), &tag); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	var kind domain.MessageType
	if len(tag.MessageType) == 0 || json.Unmarshal(tag.MessageType, &kind) != nil {
		return PlainMessage{Text: data}, nil
	}

	switch kind {
	case domain.MessageTypeProfile:
		var w domain.ProfileWire
		if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		pk, err := codec.PublicKey(w.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadProfile, err)
		}
		return ProfileMessage{Handle: strings.TrimSpace(w.Handle), Bio: w.Bio, PublicKey: pk}, nil
	case domain.MessageTypeDirect:
		var w domain.DirectWire
		if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return DirectMessage{FromHandle: w.FromHandle, Nonce: w.Nonce, Ciphertext: w.Ciphertext}, nil
	case domain.MessageTypeBroadcast, legacyBroadcast:
		var w domain.BroadcastWire
		if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return BroadcastMessage{Content: w.Content}, nil
	default:
		return PlainMessage{Text: data}, nil
	}
}
