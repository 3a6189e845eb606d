package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/voxagent/voxagent/internal/schema"
)

// validateArgs checks args against params and returns a new map holding only
// the declared parameters, coerced to their declared types. Missing optional
// parameters take their default when one is declared.
func validateArgs(tool string, params map[string]schema.ParamSpec, args map[string]any) (map[string]any, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(params))
	var bad []ParamError

	for _, name := range names {
		spec := params[name]
		raw, present := args[name]
		if !present || raw == nil {
			if spec.Required {
				bad = append(bad, ParamError{Name: name, Reason: "missing required parameter"})
				continue
			}
			if spec.Default != nil {
				out[name] = spec.Default
			}
			continue
		}

		v, err := coerce(spec, raw)
		if err != nil {
			bad = append(bad, ParamError{Name: name, Reason: err.Error()})
			continue
		}
		out[name] = v
	}

	if len(bad) > 0 {
		return nil, &InvalidArgumentsError{Tool: tool, Params: bad}
	}
	return out, nil
}

// coerce converts v to the Go type matching spec.Type using weak typing, so a
// model sending "25" for a number or "true" for a boolean is accepted.
func coerce(spec schema.ParamSpec, v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		v = n.String()
	}
	if isBlankString(v) && spec.Type != schema.TypeString {
		return nil, fmt.Errorf("expected %s, got empty string", spec.Type)
	}

	switch spec.Type {
	case schema.TypeString:
		if isComposite(v) {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		var s string
		if err := mapstructure.WeakDecode(v, &s); err != nil {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return matchEnum(spec.Enum, s)

	case schema.TypeNumber:
		var f float64
		if isComposite(v) || mapstructure.WeakDecode(v, &f) != nil {
			return nil, fmt.Errorf("expected number, got %T", v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expected finite number")
		}
		return f, nil

	case schema.TypeInteger:
		if f, ok := v.(float64); ok && f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", f)
		}
		var i int64
		if isComposite(v) || mapstructure.WeakDecode(v, &i) != nil {
			return nil, fmt.Errorf("expected integer, got %T", v)
		}
		return i, nil

	case schema.TypeBoolean:
		var b bool
		if isComposite(v) || mapstructure.WeakDecode(v, &b) != nil {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil

	case schema.TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
		return m, nil

	case schema.TypeArray:
		if a, ok := v.([]any); ok {
			return a, nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil

	default:
		return v, nil
	}
}

// isBlankString reports whether v is a string holding only whitespace. Weak
// decoding would otherwise turn it into 0 or false.
func isBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// matchEnum returns the canonical enum value equal (case-insensitively) to s.
func matchEnum(enum []string, s string) (string, error) {
	if len(enum) == 0 {
		return s, nil
	}
	for _, e := range enum {
		if strings.EqualFold(e, strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("must be one of %s", strings.Join(enum, ", "))
}

func isComposite(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

// Decode copies validated arguments into a struct tagged with `mapstructure`.
func Decode(args map[string]any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
