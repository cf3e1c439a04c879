package xlbind

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormulaRef is a cell reference found in a formula. Sheet is empty when the
// reference points at the formula's own sheet.
type FormulaRef struct {
	Sheet string
	Cell  CellAddress
}

// formulaRefPattern matches A1, $A$1, Sheet1!A1 and 'My Sheet'!A1.
var formulaRefPattern = regexp.MustCompile(`(?:('(?:[^']|'')+'|[\p{L}_][\p{L}\p{N}_.]*)!)?\$?([A-Za-z]{1,3})\$?([0-9]+)`)

var plainSheetName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_.]*$`)

type refMatch struct {
	start, end           int
	sheetStart, sheetEnd int // -1 when unqualified
	ref                  FormulaRef
}

// FormulaRefs lists the cell references of a formula in order of appearance.
// Function names and text inside string literals are not references.
func FormulaRefs(formula string) []FormulaRef {
	matches := scanFormulaRefs(formula)
	refs := make([]FormulaRef, len(matches))
	for i, m := range matches {
		refs[i] = m.ref
	}
	return refs
}

// RenameFormulaSheets rewrites sheet-qualified references using renames
// (old name -> new name), quoting new names where needed.
func RenameFormulaSheets(formula string, renames map[string]string) string {
	if len(renames) == 0 {
		return formula
	}
	matches := scanFormulaRefs(formula)
	result := formula
	// Replace back to front so earlier indices stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m.sheetStart < 0 {
			continue
		}
		to, ok := renames[m.ref.Sheet]
		if !ok {
			continue
		}
		result = result[:m.sheetStart] + quoteSheetName(to) + result[m.sheetEnd:]
	}
	return result
}

func scanFormulaRefs(formula string) []refMatch {
	inString := literalMask(formula)
	var out []refMatch
	for _, idx := range formulaRefPattern.FindAllStringSubmatchIndex(formula, -1) {
		start, end := idx[0], idx[1]
		if inString[start] || !refBoundary(formula, start, end) {
			continue
		}
		addr, err := DecodeAddress(formula[idx[4]:idx[5]] + formula[idx[6]:idx[7]])
		if err != nil {
			continue
		}
		m := refMatch{start: start, end: end, sheetStart: -1, sheetEnd: -1, ref: FormulaRef{Cell: addr}}
		if idx[2] >= 0 {
			m.sheetStart, m.sheetEnd = idx[2], idx[3]
			m.ref.Sheet = unquoteSheetName(formula[idx[2]:idx[3]])
		}
		out = append(out, m)
	}
	return out
}

// literalMask marks the bytes that sit inside double-quoted string literals.
func literalMask(formula string) []bool {
	mask := make([]bool, len(formula)+1)
	in := false
	for i := 0; i < len(formula); i++ {
		if formula[i] == '"' {
			in = !in
			mask[i] = true
			continue
		}
		mask[i] = in
	}
	return mask
}

// refBoundary rejects matches glued to identifiers, such as LOG10( or A1B.
func refBoundary(formula string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(formula[:start])
		if prev == '_' || prev == '.' || prev == '$' || unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			return false
		}
	}
	if end < len(formula) {
		next, _ := utf8.DecodeRuneInString(formula[end:])
		if next == '(' || next == '_' || unicode.IsLetter(next) || unicode.IsDigit(next) {
			return false
		}
	}
	return true
}

func unquoteSheetName(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func quoteSheetName(name string) string {
	if plainSheetName.MatchString(name) {
		if _, err := DecodeAddress(name); err != nil {
			return name
		}
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
