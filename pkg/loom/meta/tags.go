package meta

import (
	"fmt"
	"reflect"

	"github.com/loom-di/loom/internal/tagexpr"
)

// scanTagFields derives field-injection records from inject struct tags.
// The injected token is the field's own type (interfaces injected as the
// interface type). Recognized options: optional, and the bare skip marker.
func scanTagFields(structType reflect.Type) ([]FieldInjection, error) {
	var fields []FieldInjection

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tag, hasTag := field.Tag.Lookup("inject")
		if !hasTag || tagexpr.IsSkip(tag) {
			continue
		}
		if field.PkgPath != "" {
			return nil, fmt.Errorf("inject tag on unexported field %q", field.Name)
		}

		options, err := tagexpr.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}

		record := FieldInjection{Field: field.Name, Token: field.Type}
		for _, opt := range options {
			switch opt.Name {
			case "optional":
				if opt.HasValue {
					return nil, fmt.Errorf("field %q: inject option optional takes no value", field.Name)
				}
				record.Optional = true
			default:
				return nil, fmt.Errorf("field %q: unknown inject option %q", field.Name, opt.Name)
			}
		}

		fields = append(fields, record)
	}

	return fields, nil
}
