package directory

import (
	"sort"
	"strings"

	"wut/internal/domain"
)

// Directory maps peer identifiers to announced profiles.
//
// It is not safe for concurrent use; the chat loop owns it.
type Directory struct {
	profiles map[domain.PeerID]domain.PeerProfile
}

// New returns an empty Directory.
func New() *Directory {
	return &Directory{profiles: make(map[domain.PeerID]domain.PeerProfile)}
}

// Upsert inserts or replaces the profile for p.ID.
func (d *Directory) Upsert(p domain.PeerProfile) {
	d.profiles[p.ID] = p
}

// Lookup returns the profile announced by id, if any.
func (d *Directory) Lookup(id domain.PeerID) (domain.PeerProfile, bool) {
	p, ok := d.profiles[id]
	return p, ok
}

// Resolve finds a peer by identifier, or failing that by handle
// (case-insensitive). Handles are not unique; ok is false when the handle
// matches more than one peer.
func (d *Directory) Resolve(nameOrID string) (domain.PeerProfile, bool) {
	if p, ok := d.profiles[domain.PeerID(nameOrID)]; ok {
		return p, true
	}
	var (
		found domain.PeerProfile
		n     int
	)
	for _, p := range d.profiles {
		if strings.EqualFold(p.Handle, nameOrID) {
			found = p
			n++
		}
	}
	return found, n == 1
}

// List returns every known profile ordered by handle, then identifier.
func (d *Directory) List() []domain.PeerProfile {
	out := make([]domain.PeerProfile, 0, len(d.profiles))
	for _, p := range d.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Handle != out[j].Handle {
			return out[i].Handle < out[j].Handle
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len is the number of known profiles.
func (d *Directory) Len() int { return len(d.profiles) }

// Compile-time assertion that Directory implements domain.PeerDirectory.
var _ domain.PeerDirectory = (*Directory)(nil)
