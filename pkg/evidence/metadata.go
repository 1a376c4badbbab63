package evidence

import "fmt"

// Metadata is a string-keyed mapping of collector-supplied annotations.
//
// Values are restricted to a closed set so every metadata mapping serializes
// deterministically to JSON: string, bool, float64 (all numeric input is
// normalized to float64, matching JSON semantics), lists of those scalars,
// and nested Metadata. Anything else is rejected with a MetadataValueError.
type Metadata map[string]any

// NewMetadata validates and normalizes m into a Metadata mapping. The input
// is deep-copied; a nil input yields a nil mapping.
func NewMetadata(m map[string]any) (Metadata, error) {
	if m == nil {
		return nil, nil
	}
	out := make(Metadata, len(m))
	for key, value := range m {
		normalized, err := normalizeValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = normalized
	}
	return out, nil
}

// MustMetadata is NewMetadata for statically known-good input; it panics on
// invalid values. Intended for literals in tests and convenience wrappers.
func MustMetadata(m map[string]any) Metadata {
	md, err := NewMetadata(m)
	if err != nil {
		panic(err)
	}
	return md
}

func normalizeValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list, nil
	case []any:
		list := make([]any, len(v))
		for i, elem := range v {
			normalized, err := normalizeValue(key, elem)
			if err != nil {
				return nil, err
			}
			if _, nested := normalized.(Metadata); nested {
				return nil, NewMetadataValueError(key, elem)
			}
			list[i] = normalized
		}
		return list, nil
	case map[string]any:
		return NewMetadata(v)
	case Metadata:
		return NewMetadata(map[string]any(v))
	default:
		return nil, NewMetadataValueError(key, value)
	}
}

// Validate checks that every value in m is within the allowed variant set.
func (m Metadata) Validate() error {
	_, err := NewMetadata(m)
	return err
}

// Clone returns a deep copy of the mapping. Nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		list := make([]any, len(v))
		for i, elem := range v {
			list[i] = cloneValue(elem)
		}
		return list
	case Metadata:
		return v.Clone()
	case map[string]any:
		return Metadata(v).Clone()
	default:
		return v
	}
}

// Merge copies every key from other into m, overwriting existing keys.
// The merge is additive: keys absent from other are untouched. Returns m
// for chaining; if m is nil a new mapping is allocated.
func (m Metadata) Merge(other Metadata) Metadata {
	if len(other) == 0 {
		return m
	}
	if m == nil {
		m = make(Metadata, len(other))
	}
	for key, value := range other {
		m[key] = cloneValue(value)
	}
	return m
}

// String renders a compact key=value listing for logs.
func (m Metadata) String() string {
	return fmt.Sprintf("%v", map[string]any(m))
}
