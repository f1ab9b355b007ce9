package dm

import "strings"

// isDateLiteral reports whether s starts with a YYYY-M[M]-D[D] date,
// optionally followed by a time part.
func isDateLiteral(s string) bool {
	parts := splitDateParts(s)
	if len(parts) < 3 {
		return false
	}
	if len(parts[0]) != 4 || !allDigits(parts[0]) {
		return false
	}
	for _, p := range parts[1:3] {
		if len(p) == 0 || len(p) > 2 || !allDigits(p) {
			return false
		}
	}
	return true
}

// splitDateParts splits on date/time separators, keeping empty fields.
func splitDateParts(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '-', ' ', ':', '.', 'T':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// isTimestampLiteral reports a date literal that also carries a time part.
func isTimestampLiteral(s string) bool {
	if !isDateLiteral(s) {
		return false
	}
	return strings.Contains(s, ":") || strings.Contains(s, "T")
}

// hasTimezone looks for a trailing +HH:MM / -HH:MM offset after the time part.
func hasTimezone(s string) bool {
	if pos := strings.LastIndexByte(s, '+'); pos >= 0 {
		rest := s[pos:]
		return len(rest) >= 5 && isDigit(rest[1])
	}
	if pos := strings.LastIndexByte(s, '-'); pos >= 0 && strings.Contains(s[:pos], ":") {
		rest := s[pos:]
		return len(rest) >= 5 && isDigit(rest[1])
	}
	return false
}

// stripTimezone drops a trailing offset so the value matches a format
// without TZH:TZM. The wall-clock time is kept as written.
func stripTimezone(s string) string {
	if !hasTimezone(s) {
		return s
	}
	pos := strings.LastIndexAny(s, "+-")
	return strings.TrimRight(s[:pos], " ")
}

// normalizeISOTimestamp rewrites ISO-8601 separators into the form DM8's
// conversion functions accept.
func normalizeISOTimestamp(s string) string {
	s = strings.ReplaceAll(s, "T", " ")
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	return normalizeOffset(s)
}

// normalizeOffset expands +HH and +HHMM offsets to +HH:MM.
func normalizeOffset(s string) string {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return s
	}
	pos := strings.LastIndexAny(s, "+-")
	if pos <= colon {
		return s
	}
	offset := s[pos+1:]
	if !allDigits(offset) {
		return s
	}
	switch len(offset) {
	case 2:
		return s[:pos+1] + offset + ":00"
	case 4:
		return s[:pos+1] + offset[:2] + ":" + offset[2:]
	default:
		return s
	}
}

func buildTimestampFormat(s string, withTimezone bool) string {
	format := "YYYY-MM-DD HH24:MI:SS"
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 && strings.Contains(s[:dot], ":") {
		format += ".FF"
	}
	if withTimezone && hasTimezone(s) {
		format += " TZH:TZM"
	}
	return format
}

// isNumericLiteral accepts an optionally signed decimal number with an
// optional exponent.
func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	hasDigit, hasDot, hasExp := false, false, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c):
			hasDigit = true
		case c == '.' && !hasDot && !hasExp:
			hasDot = true
		case (c == 'e' || c == 'E') && hasDigit && !hasExp:
			hasExp = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
			hasDigit = false
		default:
			return false
		}
	}
	return hasDigit
}

// looksLikeExpression guards string-family defaults that are SQL rather
// than plain text.
func looksLikeExpression(s string) bool {
	upper := strings.ToUpper(s)
	return strings.Contains(upper, "||") ||
		strings.Contains(upper, " AND ") ||
		strings.Contains(upper, " OR ") ||
		strings.Contains(upper, " CASE ") ||
		strings.HasPrefix(upper, "CASE ") ||
		strings.Contains(upper, ".NEXTVAL") ||
		strings.Contains(upper, ".CURRVAL") ||
		strings.ContainsAny(s, "()")
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
