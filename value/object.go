package value

// Object is the interface satisfied by every heap-allocated value kind.
// Strings are the only Object kind the language exposes today; the
// interface exists so the VM's stack and constant pool can hold any future
// heap type (closures, instances) behind a single Value.Obj slot, the way
// clox's Obj header lets every heap type share one pointer representation.
type Object interface {
	// Equal reports whether this Object is equal to other. For interned
	// strings this degenerates to a pointer comparison; the method exists
	// so non-interned or future Object kinds can define their own notion
	// of equality.
	Equal(other Object) bool
	String() string
}

// ObjString is the heap representation of a nilan string. Instances are
// normally produced and deduplicated by an InternTable so that two equal
// string contents share one *ObjString, making Equal an O(1) pointer
// comparison rather than a byte-for-byte scan.
type ObjString struct {
	Chars string
	hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// Hash returns the precomputed FNV-1a hash of the string's contents.
func (s *ObjString) Hash() uint32 { return s.hash }

// Equal compares by pointer identity first (the fast path for interned
// strings) and falls back to content comparison for ObjStrings that did
// not come from an InternTable.
func (s *ObjString) Equal(other Object) bool {
	o, ok := other.(*ObjString)
	if !ok {
		return false
	}
	if s == o {
		return true
	}
	return s.Chars == o.Chars
}
