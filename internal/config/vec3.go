package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a 3-vector that reads from a yaml or toml array as well as from
// "x y z" or "x,y,z" text (the only form gcfg files have).
type Vec3 [3]float64

func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func FromR3(p r3.Vec) Vec3 { return Vec3{p.X, p.Y, p.Z} }

func (v *Vec3) UnmarshalText(text []byte) error {
	fields := strings.FieldsFunc(string(text), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 3 {
		return fmt.Errorf("vector %q: want 3 components, got %d", text, len(fields))
	}
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("vector %q: %w", text, err)
		}
		v[i] = val
	}
	return nil
}

// UnmarshalJSON accepts an array, as written by encoding/json, or a string.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err == nil {
		*v = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("vector %s: %w", data, err)
	}
	return v.UnmarshalText([]byte(s))
}

// UnmarshalTOML accepts an array of three numbers or a string.
func (v *Vec3) UnmarshalTOML(data any) error {
	switch d := data.(type) {
	case string:
		return v.UnmarshalText([]byte(d))
	case []any:
		if len(d) != 3 {
			return fmt.Errorf("vector: want 3 components, got %d", len(d))
		}
		for i, c := range d {
			switch n := c.(type) {
			case int64:
				v[i] = float64(n)
			case float64:
				v[i] = n
			default:
				return fmt.Errorf("vector component %d: unexpected %T", i, c)
			}
		}
		return nil
	}
	return fmt.Errorf("vector: unexpected %T", data)
}
