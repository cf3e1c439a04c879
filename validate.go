package xlbind

import (
	"fmt"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Binding is ignored at reconcile time
	SeverityWarning                 // Binding works but may not do what was intended
)

// String returns "ERROR" or "WARN".
func (s Severity) String() string {
	if s == SeverityWarning {
		return "WARN"
	}
	return "ERROR"
}

// MarshalText renders the severity for JSON responses.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "ERROR" or "WARN".
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "ERROR":
		*s = SeverityError
	case "WARN", "WARNING":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// ValidationIssue represents a single problem found in a binding table.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Index    int      `json:"index"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// String formats the issue as "[ERROR] #2 goals.short: message".
func (v ValidationIssue) String() string {
	return fmt.Sprintf("[%s] #%d %s: %s", v.Severity, v.Index+1, v.Path, v.Message)
}

// ValidateBindings checks a binding table without touching any workbook.
// Errors mark bindings the engine will treat as unbound.
func ValidateBindings(bindings []FieldBinding) []ValidationIssue {
	var issues []ValidationIssue
	add := func(sev Severity, i int, msg string, args ...any) {
		issues = append(issues, ValidationIssue{
			Severity: sev,
			Index:    i,
			Path:     bindings[i].Path,
			Message:  fmt.Sprintf(msg, args...),
		})
	}

	paths := make(map[string]int)
	targets := make(map[CellAddress]int)
	for i, b := range bindings {
		if strings.TrimSpace(b.Path) == "" {
			add(SeverityError, i, "empty path")
			continue
		}
		if !IsPlainPath(b.Path) {
			if err := CheckExpression(b.Path); err != nil {
				add(SeverityError, i, "invalid path expression: %v", err)
			}
		}
		if first, dup := paths[b.Path]; dup {
			add(SeverityError, i, "duplicate path, binding #%d takes precedence", first+1)
		} else {
			paths[b.Path] = i
		}

		if b.TargetCell == "" {
			add(SeverityWarning, i, "no target cell, binding is unbound")
		} else if addr, err := DecodeAddress(b.TargetCell); err != nil {
			add(SeverityError, i, "target cell: %v", err)
		} else if b.Active {
			if first, dup := targets[addr]; dup {
				add(SeverityWarning, i, "target %s is also bound by #%d", addr, first+1)
			} else {
				targets[addr] = i
			}
		}

		seen := make(map[string]bool)
		for _, r := range b.TransformRules {
			if seen[r.From] {
				add(SeverityWarning, i, "transform rule from %q repeats and is never reached", r.From)
			}
			seen[r.From] = true
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// NormalizeBindings returns a copy of bindings with target cells in
// canonical A1 form. An invalid target is rejected, never coerced.
func NormalizeBindings(bindings []FieldBinding) ([]FieldBinding, error) {
	out := make([]FieldBinding, len(bindings))
	for i, b := range bindings {
		if b.TargetCell != "" {
			norm, err := NormalizeAddress(b.TargetCell)
			if err != nil {
				return nil, fmt.Errorf("binding %q: %w", b.Path, err)
			}
			b.TargetCell = norm
		}
		b.TransformRules = append([]TransformRule(nil), b.TransformRules...)
		out[i] = b
	}
	return out, nil
}
