package pipeline

import (
	"encoding/json"
	"fmt"
)

// SourceMap is a tri-state source map setting. An explicit false is kept
// distinct from an unset value.
type SourceMap string

const (
	SourceMapUnset  SourceMap = ""
	SourceMapInline SourceMap = "inline"
	SourceMapTrue   SourceMap = "true"
	SourceMapFalse  SourceMap = "false"
)

// SourceMapBool converts a boolean into an explicit SourceMap value.
func SourceMapBool(enabled bool) SourceMap {
	if enabled {
		return SourceMapTrue
	}
	return SourceMapFalse
}

// Enabled reports whether any source map is emitted.
func (s SourceMap) Enabled() bool {
	return s == SourceMapInline || s == SourceMapTrue
}

func (s SourceMap) value() any {
	switch s {
	case SourceMapInline:
		return "inline"
	case SourceMapTrue:
		return true
	case SourceMapFalse:
		return false
	default:
		return nil
	}
}

// MarshalYAML renders booleans as booleans and inline as a string.
func (s SourceMap) MarshalYAML() (any, error) {
	return s.value(), nil
}

// MarshalJSON renders booleans as booleans and inline as a string.
func (s SourceMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value())
}

// UnmarshalJSON accepts true, false, null and "inline".
func (s *SourceMap) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*s = SourceMapUnset
	case bool:
		*s = SourceMapBool(v)
	case string:
		if v != string(SourceMapInline) {
			return fmt.Errorf("invalid source map mode %q", v)
		}
		*s = SourceMapInline
	default:
		return fmt.Errorf("invalid source map mode %v", raw)
	}
	return nil
}
