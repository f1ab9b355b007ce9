package verify

import "strings"

// SplitStatements splits a script on ';' outside string literals, quoted
// identifiers, and line comments. Comment-only fragments and '/' delimiter
// lines are dropped.
func SplitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inSingle   bool
		inDouble   bool
		inComment  bool
	)

	emit := func() {
		if stmt := cleanStatement(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
				current.WriteByte(c)
			}
			continue
		case inSingle:
			current.WriteByte(c)
			if c == '\'' {
				if i+1 < len(script) && script[i+1] == '\'' {
					current.WriteByte('\'')
					i++
					continue
				}
				inSingle = false
			}
			continue
		case inDouble:
			current.WriteByte(c)
			if c == '"' {
				inDouble = false
			}
			continue
		}

		switch c {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '-':
			if i+1 < len(script) && script[i+1] == '-' {
				inComment = true
				continue
			}
		case ';':
			current.WriteByte(c)
			emit()
			continue
		}
		current.WriteByte(c)
	}
	emit()
	return statements
}

func cleanStatement(s string) string {
	var kept []string
	for line := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(line) == "/" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
