// Package memzero clears secret material held in memory once it is no
// longer needed.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Key overwrites a 32-byte key in place.
func Key(k *[32]byte) {
	Zero(k[:])
}

// Values zeroes every value of an index-keyed byte object, the form keys
// take while being encoded to or decoded from JSON.
func Values(obj map[string]int) {
	for k := range obj {
		obj[k] = 0
	}
}
