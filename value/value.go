// Package value defines the runtime representation of nilan values: the
// tagged Value union stored on the VM stack and in constant pools, and the
// heap-allocated Object kinds a Value can point to.
package value

import "fmt"

// Kind tags which variant of Value is active.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a small tagged union: booleans and numbers are stored inline,
// strings (and any future heap types) are stored as a pointer in Obj. This
// mirrors clox's NaN-boxed-or-tagged-union Value, simplified to a plain Go
// struct since Go gives us a real tag field for free instead of needing to
// steal bits from a float.
type Value struct {
	kind   Kind
	number float64
	obj    Object
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, number: boolToFloat(b)}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Number wraps a float64 into a Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// Obj wraps a heap Object into a Value.
func Obj(o Object) Value {
	return Value{kind: KindObj, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

// AsBool returns the boolean this Value carries. Callers must check IsBool
// first; it does not attempt any coercion.
func (v Value) AsBool() bool { return v.number != 0 }

// AsNumber returns the float64 this Value carries.
func (v Value) AsNumber() float64 { return v.number }

// AsObj returns the Object this Value points to.
func (v Value) AsObj() Object { return v.obj }

// IsString reports whether this Value holds an *ObjString.
func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.kind == KindObj && ok
}

// AsString returns the Go string backing an *ObjString value. Callers must
// check IsString first.
func (v Value) AsString() string {
	return v.obj.(*ObjString).Chars
}

// IsFalsey implements nilan's truthiness rule: nil and false are falsey,
// everything else (including zero and the empty string) is truthy.
func (v Value) IsFalsey() bool {
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return !v.AsBool()
	default:
		return false
	}
}

// Equal implements value equality. Numbers and booleans compare by value;
// objects compare by identity when interned (the common case for strings,
// via InternTable), falling back to the Object's own Equal method
// otherwise.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindNumber:
		return a.number == b.number
	case KindObj:
		return a.obj.Equal(b.obj)
	default:
		return false
	}
}

// String renders a Value the way `print` does.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindNumber:
		return formatNumber(v.number)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
