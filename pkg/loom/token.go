package loom

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Key is an explicit token identity. Two keys are equal only when they are
// the same pointer; the label is purely diagnostic.
type Key struct {
	label string
}

// NewKey creates a new token identity with an optional diagnostic label.
// Every call returns a distinct token, regardless of label.
func NewKey(label string) *Key {
	return &Key{label: label}
}

// Label returns the diagnostic label.
func (k *Key) Label() string {
	return k.label
}

func (k *Key) String() string {
	if k.label != "" {
		return fmt.Sprintf("Key(%s)", k.label)
	}
	return fmt.Sprintf("Key(%p)", k)
}

// Symbol is a process-unique symbolic token. Unlike *Key it is a comparable
// value and survives copying; uniqueness comes from the embedded id, the
// label is purely diagnostic.
type Symbol struct {
	id    uuid.UUID
	label string
}

// NewSymbol creates a new process-unique symbolic token with an optional
// diagnostic label.
func NewSymbol(label string) Symbol {
	return Symbol{id: uuid.New(), label: label}
}

// Label returns the diagnostic label.
func (s Symbol) Label() string {
	return s.label
}

func (s Symbol) String() string {
	if s.label != "" {
		return fmt.Sprintf("Symbol(%s)", s.label)
	}
	return fmt.Sprintf("Symbol(%s)", s.id)
}

// TokenOf returns the type token for T, normalized the same way prototype
// arguments are: interfaces become the interface type itself.
//
//	loom.TokenOf[Logger]()       // the Logger interface type
//	loom.TokenOf[*UserService]() // the *UserService pointer type
func TokenOf[T any]() any {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// normalizeToken maps the accepted token spellings onto their canonical,
// comparable form and rejects everything else.
//
// Accepted: a reflect.Type, a typed-nil prototype such as (*Logger)(nil) or
// (*UserService)(nil), a *Key, or a Symbol. Pointer-to-interface prototypes
// normalize to the interface type so that (*Logger)(nil) and
// TokenOf[Logger]() name the same registration.
func normalizeToken(token any) (any, error) {
	switch t := token.(type) {
	case nil:
		return nil, &InvalidTokenError{Value: token}
	case reflect.Type:
		return normalizeTypeToken(t), nil
	case *Key:
		if t == nil {
			return nil, &InvalidTokenError{Value: token}
		}
		return t, nil
	case Symbol:
		if t.id == uuid.Nil {
			return nil, &InvalidTokenError{Value: token}
		}
		return t, nil
	}

	rt := reflect.TypeOf(token)
	if rt.Kind() == reflect.Ptr {
		return normalizeTypeToken(rt), nil
	}
	return nil, &InvalidTokenError{Value: token}
}

// normalizeTypeToken collapses pointer-to-interface types to the interface
// itself; all other types are their own token.
func normalizeTypeToken(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem()
	}
	return t
}

// isValidToken reports whether token is one of the accepted token flavors.
func isValidToken(token any) bool {
	_, err := normalizeToken(token)
	return err == nil
}

// describeToken renders a token for diagnostics and error messages.
func describeToken(token any) string {
	switch t := token.(type) {
	case *Key:
		return t.String()
	case Symbol:
		return t.String()
	case reflect.Type:
		return t.String()
	default:
		return fmt.Sprintf("%v", token)
	}
}
