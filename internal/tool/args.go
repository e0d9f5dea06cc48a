package tool

import (
	"slices"
	"strings"

	"github.com/Cyclone1070/lumen/internal/jsonvalue"
)

// Args is a parsed tool argument object with typed extraction helpers.
// Every helper fails with *InvalidArgumentsError on a shape mismatch.
type Args struct {
	v jsonvalue.Value
}

// ParseArgs parses the raw argument payload. An empty payload is treated as {}.
func ParseArgs(arguments string) (Args, error) {
	if strings.TrimSpace(arguments) == "" {
		return Args{v: jsonvalue.Object(nil)}, nil
	}
	v, err := jsonvalue.Parse(arguments)
	if err != nil {
		return Args{}, InvalidArguments("%v", err)
	}
	if v.Kind() != jsonvalue.KindObject {
		return Args{}, InvalidArguments("expected a JSON object, got %s", v.Kind())
	}
	return Args{v: v}, nil
}

// Has reports whether name is present and not null.
func (a Args) Has(name string) bool {
	f, ok := a.v.Get(name)
	return ok && !f.IsNull()
}

// RequiredString returns a non-blank string field.
func (a Args) RequiredString(name string) (string, error) {
	if !a.Has(name) {
		return "", InvalidArguments("%s is required", name)
	}
	s, err := a.OptionalString(name, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", InvalidArguments("%s must not be empty", name)
	}
	return s, nil
}

// OptionalString returns a string field, or def when absent.
func (a Args) OptionalString(name, def string) (string, error) {
	if !a.Has(name) {
		return def, nil
	}
	f, _ := a.v.Get(name)
	s, ok := f.AsString()
	if !ok {
		return "", InvalidArguments("%s must be a string, got %s", name, f.Kind())
	}
	return s, nil
}

// OptionalBool returns a boolean field, or def when absent.
func (a Args) OptionalBool(name string, def bool) (bool, error) {
	if !a.Has(name) {
		return def, nil
	}
	f, _ := a.v.Get(name)
	b, ok := f.AsBool()
	if !ok {
		return false, InvalidArguments("%s must be a boolean, got %s", name, f.Kind())
	}
	return b, nil
}

// IntInRange returns an integer field within [lo, hi], or def when absent.
func (a Args) IntInRange(name string, def, lo, hi int) (int, error) {
	if !a.Has(name) {
		return def, nil
	}
	f, _ := a.v.Get(name)
	n, ok := f.AsInt()
	if !ok {
		if fl, isNum := f.AsFloat(); isNum {
			return 0, InvalidArguments("%s must be an integer, got %v", name, fl)
		}
		return 0, InvalidArguments("%s must be an integer, got %s", name, f.Kind())
	}
	if n < int64(lo) || n > int64(hi) {
		return 0, InvalidArguments("%s must be between %d and %d, got %d", name, lo, hi, n)
	}
	return int(n), nil
}

// Enum returns a string field that must be one of allowed, or def when absent.
func (a Args) Enum(name, def string, allowed []string) (string, error) {
	s, err := a.OptionalString(name, def)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, s) {
		return "", InvalidArguments("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), s)
	}
	return s, nil
}

// StringList accepts either a single string or an array of strings.
// It returns nil when the field is absent.
func (a Args) StringList(name string) ([]string, error) {
	if !a.Has(name) {
		return nil, nil
	}
	f, _ := a.v.Get(name)
	if s, ok := f.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := f.AsArray()
	if !ok {
		return nil, InvalidArguments("%s must be a string or an array of strings, got %s", name, f.Kind())
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, InvalidArguments("%s[%d] must be a string, got %s", name, i, item.Kind())
		}
		out = append(out, s)
	}
	return out, nil
}
