package reasoner

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Iron-Ham/monologue/internal/llm"
)

// Enum is implemented by named types whose values form a closed set.
// Extracting into an Enum constrains the model to those values:
//
//	type Mood string
//	func (Mood) EnumValues() []string { return []string{"HAPPY", "SAD"} }
type Enum interface {
	EnumValues() []string
}

var enumType = reflect.TypeFor[Enum]()

// rememberFunction is the name of the function that stores field.
func rememberFunction(field string) string {
	return "remember_" + field
}

// BuildSchema describes the function the model is forced to call when
// extracting a value of type t for the template's field. A struct type
// (other than an Enum) is described by its own fields; every other type is
// wrapped as the single property named field.
//
// BuildSchema keeps no state; each call returns a fresh schema.
func BuildSchema(field, format string, t reflect.Type) llm.FunctionSchema {
	var params map[string]any
	if isComposite(t) {
		params = objectSchema(indirect(t), map[reflect.Type]bool{})
	} else {
		params = map[string]any{
			"type": "object",
			"properties": map[string]any{
				field: typeSchema(t, map[reflect.Type]bool{}),
			},
			"required": []string{field},
		}
	}

	return llm.FunctionSchema{
		Name:        rememberFunction(field),
		Description: fmt.Sprintf("This function stores a piece of information in the format: '%s'.", format),
		Parameters:  params,
	}
}

// isComposite reports whether t is decoded from the whole argument object
// rather than from a single named argument.
func isComposite(t reflect.Type) bool {
	t = indirect(t)
	return t.Kind() == reflect.Struct && enumValues(t) == nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// enumValues returns the allowed values when t (or *t) implements Enum.
func enumValues(t reflect.Type) []string {
	switch {
	case t.Implements(enumType):
		return reflect.Zero(t).Interface().(Enum).EnumValues()
	case reflect.PointerTo(t).Implements(enumType):
		return reflect.New(t).Interface().(Enum).EnumValues()
	}
	return nil
}

func typeSchema(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	t = indirect(t)

	if values := enumValues(t); values != nil {
		return map[string]any{"type": "string", "enum": values}
	}

	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string"}
		}
		return map[string]any{"type": "array", "items": typeSchema(t.Elem(), seen)}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": typeSchema(t.Elem(), seen)}
	case reflect.Struct:
		if seen[t] {
			return map[string]any{"type": "object"}
		}
		return objectSchema(t, seen)
	default:
		return map[string]any{}
	}
}

// objectSchema describes a struct's exported fields. Property names follow
// json tags; fields tagged omitempty or held by pointer are optional. An
// optional `description` tag is passed through to the model.
func objectSchema(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	seen[t] = true
	defer delete(seen, t)

	properties := map[string]any{}
	required := []string{}
	collectFields(t, seen, properties, &required)

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func collectFields(t reflect.Type, seen map[reflect.Type]bool, properties map[string]any, required *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, omitempty, skip := jsonName(f)
		if skip {
			continue
		}

		if f.Anonymous && name == "" && indirect(f.Type).Kind() == reflect.Struct {
			collectFields(indirect(f.Type), seen, properties, required)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}

		prop := typeSchema(f.Type, seen)
		if desc := f.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		if !omitempty && f.Type.Kind() != reflect.Pointer {
			*required = append(*required, name)
		}
	}
}

// jsonName reads a field's json tag.
func jsonName(f reflect.StructField) (name string, omitempty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return parts[0], omitempty, false
}
