package ui

import (
	"fmt"
	"slices"
	"strings"

	"wut/internal/domain"
)

// PeerList remembers the last peer list shown so it is only redrawn when
// membership changes.
type PeerList struct {
	last  []domain.PeerID
	shown bool
}

// Update records ids and reports whether they differ from the previous call.
func (p *PeerList) Update(ids []domain.PeerID) bool {
	next := slices.Clone(ids)
	slices.Sort(next)
	if p.shown && slices.Equal(p.last, next) {
		return false
	}
	p.last, p.shown = next, true
	return true
}

// Current returns the last recorded list.
func (p *PeerList) Current() []domain.PeerID { return slices.Clone(p.last) }

// FormatPeers renders ids for the lobby, using handles where known.
func FormatPeers(ids []domain.PeerID, lookup func(domain.PeerID) (domain.PeerProfile, bool)) string {
	if len(ids) == 0 {
		return "*** Peers: nobody else is here"
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if prof, ok := lookup(id); ok && prof.Handle != "" {
			names = append(names, fmt.Sprintf("%s (%s)", prof.Handle, id))
		} else {
			names = append(names, id.String())
		}
	}
	return fmt.Sprintf("*** Peers (%d): %s", len(ids), strings.Join(names, ", "))
}
