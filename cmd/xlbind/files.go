package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/javajack/xlbind"
)

// bindingEntry is one binding as written in a bindings file. Preset names
// a stock rule list placed ahead of the explicit rules.
type bindingEntry struct {
	Path           string                 `yaml:"path"`
	TargetCell     string                 `yaml:"targetCell"`
	TransformRules []xlbind.TransformRule `yaml:"transformRules"`
	Preset         string                 `yaml:"preset"`
	Active         *bool                  `yaml:"active"`
}

// readBindings loads a YAML (or JSON) bindings file: either a bare list or
// a document with a top-level "bindings" list.
func readBindings(path string) ([]xlbind.FieldBinding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings: %w", err)
	}

	var entries []bindingEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		var doc struct {
			Bindings []bindingEntry `yaml:"bindings"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("failed to parse bindings %s: %w", path, err)
		}
		entries = doc.Bindings
	}

	bindings := make([]xlbind.FieldBinding, 0, len(entries))
	for _, e := range entries {
		b := xlbind.FieldBinding{Path: e.Path, TargetCell: e.TargetCell, Active: e.Active == nil || *e.Active}
		if e.Preset != "" {
			rules, ok := xlbind.Preset(e.Preset)
			if !ok {
				return nil, fmt.Errorf("binding %q: unknown preset %q (known: %s)",
					e.Path, e.Preset, strings.Join(xlbind.PresetNames(), ", "))
			}
			b.TransformRules = rules
		}
		b.TransformRules = append(b.TransformRules, e.TransformRules...)
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// readRecord loads a domain record from JSON or YAML.
func readRecord(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	var record any
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	return record, nil
}

// readWorkbook loads a workbook from an xlsx file or a snapshot JSON file.
func readWorkbook(path string, opts ...xlbind.Option) (*xlbind.Workbook, []xlbind.ConversionIssue, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		var book xlbind.Workbook
		if err := json.Unmarshal(data, &book); err != nil {
			return nil, nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
		}
		return &book, nil, nil
	}
	res, err := xlbind.ImportPath(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	return res.Workbook, res.Issues, nil
}

// output opens path for writing, or returns stdout for "" and "-".
func output(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
