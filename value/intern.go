package value

import (
	"hash/fnv"
	"sync"

	"github.com/josharian/intern"
)

// InternTable is the VM-owned canonicalizer for ObjString values. Two calls
// to Intern with equal contents return the exact same *ObjString pointer,
// which is what lets the VM implement string equality as a pointer compare
// instead of a byte scan.
//
// The underlying character data is deduplicated via
// github.com/josharian/intern, the same string-interning primitive golox
// uses; InternTable adds the canonical *ObjString identity and a
// precomputed hash on top, since intern.String alone only guarantees
// string-level (not pointer-to-struct) canonicalization.
type InternTable struct {
	mu      sync.Mutex
	strings map[string]*ObjString
}

// NewInternTable returns an empty InternTable.
func NewInternTable() *InternTable {
	return &InternTable{strings: make(map[string]*ObjString)}
}

// Intern returns the canonical *ObjString for chars, creating and caching
// one if this is the first time chars has been seen.
func (t *InternTable) Intern(chars string) *ObjString {
	canonical := intern.String(chars)

	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.strings[canonical]; ok {
		return s
	}
	s := &ObjString{Chars: canonical, hash: fnvHash(canonical)}
	t.strings[canonical] = s
	return s
}

// Len reports how many distinct strings have been interned, mainly useful
// for tests asserting on interning behavior.
func (t *InternTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strings)
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
