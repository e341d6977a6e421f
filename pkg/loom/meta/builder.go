package meta

import (
	"fmt"
	"reflect"
)

// Builder accumulates injection metadata for one constructible type.
// Validation errors are collected and reported by Register, so calls can be
// chained without intermediate checks.
type Builder struct {
	typ    reflect.Type
	token  any
	ctor   any
	params []ParamInjection
	fields []FieldInjection
	errs   []error
}

// Describe starts a metadata record for a constructible type. The prototype
// is a typed nil pointer such as (*UserService)(nil), or the pointer-to-struct
// reflect.Type itself.
func Describe(prototype any) *Builder {
	b := &Builder{}

	typ, ok := prototype.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(prototype)
	}
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		b.errs = append(b.errs, fmt.Errorf("constructible prototype must be a pointer to struct, got %v", typ))
		return b
	}

	b.typ = typ
	return b
}

// ProvideAs records the token this type registers under. Without it the type
// itself is the token.
func (b *Builder) ProvideAs(token any) *Builder {
	b.token = token
	return b
}

// Constructor records the constructor function for this type. Supported
// signatures are func(deps...) T and func(deps...) (T, error), where T is
// assignable to the described pointer type.
func (b *Builder) Constructor(fn any) *Builder {
	b.ctor = fn
	return b
}

// Param records an explicit token injection for constructor parameter i.
func (b *Builder) Param(i int, token any) *Builder {
	b.params = append(b.params, ParamInjection{Index: i, Token: token})
	return b
}

// ParamOptional records an optional token injection for constructor
// parameter i. The parameter stays zero when the token has no provider.
func (b *Builder) ParamOptional(i int, token any) *Builder {
	b.params = append(b.params, ParamInjection{Index: i, Token: token, Optional: true})
	return b
}

// Field records a token injection for the named struct field.
func (b *Builder) Field(name string, token any) *Builder {
	b.fields = append(b.fields, FieldInjection{Field: name, Token: token})
	return b
}

// FieldOptional records an optional token injection for the named struct
// field. The field stays untouched when the token has no provider.
func (b *Builder) FieldOptional(name string, token any) *Builder {
	b.fields = append(b.fields, FieldInjection{Field: name, Token: token, Optional: true})
	return b
}

// Register validates the accumulated record, merges in any inject struct-tag
// fields, and stores it. With no argument the default registry is used.
func (b *Builder) Register(regs ...*Registry) error {
	info, err := b.build()
	if err != nil {
		return err
	}

	reg := Default()
	if len(regs) > 0 {
		reg = regs[0]
	}
	return reg.Register(info)
}

// MustRegister is Register panicking on error, for init-time registration.
func (b *Builder) MustRegister(regs ...*Registry) {
	if err := b.Register(regs...); err != nil {
		panic(fmt.Sprintf("meta: %v", err))
	}
}

// build assembles and validates the TypeInfo.
func (b *Builder) build() (*TypeInfo, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	info := &TypeInfo{
		Type:   b.typ,
		Token:  b.token,
		Params: b.params,
		Fields: b.fields,
	}

	if b.ctor != nil {
		ctor, err := parseConstructor(b.ctor, b.typ)
		if err != nil {
			return nil, fmt.Errorf("type %v: %w", b.typ, err)
		}
		info.Ctor = ctor
	}

	for _, p := range info.Params {
		if p.Index < 0 {
			return nil, fmt.Errorf("type %v: negative constructor parameter index %d", b.typ, p.Index)
		}
		if info.Ctor == nil {
			return nil, fmt.Errorf("type %v: parameter injection at index %d without a constructor", b.typ, p.Index)
		}
		if p.Index >= info.Ctor.NumParams() {
			return nil, fmt.Errorf("type %v: parameter index %d out of range, constructor takes %d",
				b.typ, p.Index, info.Ctor.NumParams())
		}
	}

	structType := b.typ.Elem()
	for _, f := range info.Fields {
		field, ok := structType.FieldByName(f.Field)
		if !ok {
			return nil, fmt.Errorf("type %v has no field %q", b.typ, f.Field)
		}
		if field.PkgPath != "" {
			return nil, fmt.Errorf("type %v: field %q is not exported", b.typ, f.Field)
		}
	}

	tagged, err := scanTagFields(structType)
	if err != nil {
		return nil, fmt.Errorf("type %v: %w", b.typ, err)
	}
	for _, tf := range tagged {
		if !hasFieldRecord(info.Fields, tf.Field) {
			info.Fields = append(info.Fields, tf)
		}
	}

	return info, nil
}

// hasFieldRecord reports whether an explicit record already covers the field;
// explicit builder records win over tag-derived ones.
func hasFieldRecord(fields []FieldInjection, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
