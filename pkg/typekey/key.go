package typekey

import (
	"reflect"
)

// Key identifies a Go type. Two keys are equal exactly when they were derived
// from the same type, so a Key can be used directly as a map key.
type Key struct {
	t reflect.Type
}

// Of returns the key for T. No value of T is needed, which is what lets a
// consumer holding only a type ask for the relay that publishes it.
func Of[T any]() Key {
	return Key{t: reflect.TypeFor[T]()}
}

// OfValue returns the key for the dynamic type of v.
func OfValue(v any) Key {
	if v == nil {
		return Key{}
	}
	return Key{t: reflect.TypeOf(v)}
}

// IsZero reports whether the key was derived from nothing.
func (k Key) IsZero() bool {
	return k.t == nil
}

// Type returns the underlying reflect.Type.
func (k Key) Type() reflect.Type {
	return k.t
}

// String returns the printable name of the key.
// Named types use their full import path ("github.com/acme/app/counter.Snapshot")
// so that two types sharing a short name in different packages stay distinct.
func (k Key) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return name(k.t)
}

func name(t reflect.Type) string {
	switch {
	case t.Kind() == reflect.Pointer && t.Name() == "":
		return "*" + name(t.Elem())
	case t.Name() != "" && t.PkgPath() != "":
		return t.PkgPath() + "." + t.Name()
	default:
		return t.String()
	}
}
