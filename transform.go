package xlbind

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TransformRule substitutes a field value before it is written to a cell.
type TransformRule struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Preset rule sets. Callers prepend them to their own rules.
var (
	PresetCheckbox = []TransformRule{
		{From: "true", To: "☑"},
		{From: "false", To: "□"},
	}
	PresetGender = []TransformRule{
		{From: "male", To: "男"},
		{From: "M", To: "男"},
		{From: "男", To: "男"},
		{From: "female", To: "女"},
		{From: "F", To: "女"},
		{From: "女", To: "女"},
	}
)

var presets = map[string][]TransformRule{
	"checkbox": PresetCheckbox,
	"gender":   PresetGender,
}

// Preset returns a copy of a named preset rule set.
func Preset(name string) ([]TransformRule, bool) {
	rules, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return append([]TransformRule(nil), rules...), true
}

// PresetNames lists the registered presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyTransformRules stringifies raw and returns the To of the first rule
// whose From matches exactly; failing that, the first case-insensitive match.
// With no match, raw is returned unchanged.
func ApplyTransformRules(raw any, rules []TransformRule) any {
	if len(rules) == 0 {
		return raw
	}
	s := Stringify(raw)
	for _, r := range rules {
		if r.From == s {
			return r.To
		}
	}
	for _, r := range rules {
		if strings.EqualFold(r.From, s) {
			return r.To
		}
	}
	return raw
}

// Stringify renders a field value as text: nil is empty, numbers use the
// shortest exact form, structured values are serialized.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case *Scalar:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return stringifyStructured(v)
	}
}
