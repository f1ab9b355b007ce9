package dm

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
)

// literal is the normalized input every rule inspects.
type literal struct {
	dataType string // trimmed, upper-cased declared type
	expr     string // trimmed raw value
	upper    string // upper-cased expr
}

func newLiteral(dataType, raw string) *literal {
	expr := strings.TrimSpace(raw)
	return &literal{
		dataType: core.NormalizeType(dataType),
		expr:     expr,
		upper:    strings.ToUpper(expr),
	}
}

// literalRule pairs a predicate with its renderer. Rules are evaluated in
// order and the first match wins, because the categories overlap lexically.
type literalRule struct {
	name   string
	match  func(l *literal) bool
	render func(l *literal) string
}

// defaultRules classifies column default expressions. The last rule always
// matches, so rendering is total.
var defaultRules = []literalRule{
	{name: "null", match: isNullKeyword, render: passThrough},
	{name: "quoted", match: isQuoted, render: renderQuoted},
	{name: "national-or-hex", match: isNationalOrHex, render: passThrough},
	{name: "typed-literal", match: isTypedLiteral, render: passThrough},
	{name: "expression", match: isCompositeExpression, render: passThrough},
	{name: "sequence", match: isSequenceReference, render: passThrough},
	{name: "keyword", match: isKeywordExpression, render: passThrough},
	{name: "arithmetic", match: isArithmetic, render: passThrough},
	{name: "type-family", match: always, render: renderByFamily},
}

// sqlKeywords are never quoted when they appear as a default.
var sqlKeywords = []string{
	"SYSDATE",
	"SYSTIMESTAMP",
	"CURRENT_DATE",
	"CURRENT_TIME",
	"CURRENT_TIMESTAMP",
	"LOCALTIMESTAMP",
	"LOCALTIME",
	"USER",
	"CURRENT_USER",
	"CURRENT USER",
	"SESSION_USER",
	"SESSION USER",
	"CURRENT_SCHEMA",
	"CURRENT SCHEMA",
	"CURRENT_ROLE",
	"CURRENT ROLE",
	"DBTIMEZONE",
	"SESSIONTIMEZONE",
	"TRUE",
	"FALSE",
}

// FormatDefault renders a raw catalog default expression for a column of
// the given declared type. It never fails and never drops user SQL.
func (g *Generator) FormatDefault(dataType, raw string) string {
	_, rendered := classifyDefault(dataType, raw)
	return rendered
}

func classifyDefault(dataType, raw string) (string, string) {
	l := newLiteral(dataType, raw)
	for _, rule := range defaultRules {
		if rule.match(l) {
			return rule.name, rule.render(l)
		}
	}
	// unreachable: the type-family rule always matches
	return "type-family", renderByFamily(l)
}

// FormatValue renders a fetched row value. Row values are data, not SQL, so
// only the type-family conversions apply and anything unrecognized is quoted.
func (g *Generator) FormatValue(dataType, raw string) string {
	l := newLiteral(dataType, raw)
	switch core.FamilyOf(l.dataType) {
	case core.FamilyNumeric:
		if isNumericLiteral(l.expr) {
			return l.expr
		}
	case core.FamilyDate:
		if isDateLiteral(l.expr) {
			return toDate(l.expr)
		}
	case core.FamilyTimestamp:
		if isDateLiteral(l.expr) || isTimestampLiteral(l.expr) {
			return toTimestamp(l.dataType, l.expr)
		}
	case core.FamilyBinary:
		hex := strings.TrimPrefix(strings.TrimPrefix(l.expr, "0x"), "0X")
		if isHex(hex) {
			return fmt.Sprintf("HEXTORAW('%s')", strings.ToUpper(hex))
		}
	}
	return quoteString(raw)
}

func always(*literal) bool { return true }

func passThrough(l *literal) string { return l.expr }

func isNullKeyword(l *literal) bool { return l.upper == "NULL" }

func isQuoted(l *literal) bool {
	return len(l.expr) >= 2 && strings.HasPrefix(l.expr, "'") && strings.HasSuffix(l.expr, "'")
}

// renderQuoted re-wraps quoted date-like text in an explicit conversion so
// the result does not depend on session NLS settings.
func renderQuoted(l *literal) string {
	inner := l.expr[1 : len(l.expr)-1]
	switch core.FamilyOf(l.dataType) {
	case core.FamilyDate:
		if isDateLiteral(inner) {
			return toDate(inner)
		}
	case core.FamilyTimestamp:
		if isDateLiteral(inner) || isTimestampLiteral(inner) {
			return toTimestamp(l.dataType, inner)
		}
	}
	return l.expr
}

func isNationalOrHex(l *literal) bool {
	if strings.HasPrefix(l.upper, "N'") && strings.HasSuffix(l.expr, "'") {
		return true
	}
	if strings.HasPrefix(l.upper, "X'") && strings.HasSuffix(l.expr, "'") {
		return true
	}
	return strings.HasPrefix(l.upper, "0X")
}

func isTypedLiteral(l *literal) bool {
	return strings.HasPrefix(l.upper, "DATE ") ||
		strings.HasPrefix(l.upper, "TIMESTAMP ") ||
		strings.HasPrefix(l.upper, "INTERVAL ")
}

func isCompositeExpression(l *literal) bool {
	return strings.Contains(l.expr, "(") ||
		strings.Contains(l.expr, "||") ||
		strings.HasPrefix(l.upper, "CASE ") ||
		strings.Contains(l.upper, " CASE ")
}

func isSequenceReference(l *literal) bool {
	return strings.HasPrefix(l.upper, "NEXT VALUE FOR") || strings.Contains(l.upper, ".NEXTVAL")
}

func isKeywordExpression(l *literal) bool {
	for _, kw := range sqlKeywords {
		if !strings.HasPrefix(l.upper, kw) {
			continue
		}
		rest := l.upper[len(kw):]
		if rest == "" || strings.ContainsAny(rest[:1], " +-*/") {
			return true
		}
	}
	return false
}

// isArithmetic detects operator expressions. A '+' followed by 0 or 1 is read
// as a timezone offset and a '-' only counts after a space, ')' or a letter.
func isArithmetic(l *literal) bool {
	if isDateLiteral(l.expr) {
		return false
	}
	var prev rune
	for i, c := range l.expr {
		switch {
		case c == '*' || c == '/':
			return true
		case c == '+' && i > 0:
			rest := l.expr[i:]
			if !strings.HasPrefix(rest, "+0") && !strings.HasPrefix(rest, "+1") {
				return true
			}
		case c == '-' && i > 0:
			if prev == ' ' || prev == ')' || isASCIILetter(prev) {
				return true
			}
		}
		prev = c
	}
	return false
}

func renderByFamily(l *literal) string {
	switch core.FamilyOf(l.dataType) {
	case core.FamilyString:
		if looksLikeExpression(l.expr) {
			return l.expr
		}
		return quoteString(l.expr)
	case core.FamilyNumeric:
		// numbers and opaque expressions are both emitted unchanged
		return l.expr
	case core.FamilyDate:
		if isDateLiteral(l.expr) {
			return toDate(l.expr)
		}
		return l.expr
	case core.FamilyTimestamp:
		if isDateLiteral(l.expr) || isTimestampLiteral(l.expr) {
			return toTimestamp(l.dataType, l.expr)
		}
		return l.expr
	case core.FamilyBinary:
		if strings.HasPrefix(l.upper, "HEXTORAW") || strings.HasPrefix(l.upper, "X'") {
			return l.expr
		}
		if isHex(l.expr) {
			return fmt.Sprintf("HEXTORAW('%s')", l.expr)
		}
		return l.expr
	default:
		return quoteString(l.expr)
	}
}

func toDate(value string) string {
	format := "YYYY-MM-DD"
	if strings.Contains(value, ":") {
		format = "YYYY-MM-DD HH24:MI:SS"
	}
	return fmt.Sprintf("TO_DATE('%s','%s')", EscapeLiteral(value), format)
}

func toTimestamp(dataType, value string) string {
	normalized := normalizeISOTimestamp(value)
	withTZ := strings.Contains(dataType, "TIME ZONE")
	if !withTZ {
		normalized = stripTimezone(normalized)
	}
	format := buildTimestampFormat(normalized, withTZ)
	if withTZ && hasTimezone(normalized) {
		return fmt.Sprintf("TO_TIMESTAMP_TZ('%s','%s')", EscapeLiteral(normalized), format)
	}
	return fmt.Sprintf("TO_TIMESTAMP('%s','%s')", EscapeLiteral(normalized), format)
}
