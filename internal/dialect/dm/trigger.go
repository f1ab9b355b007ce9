package dm

import (
	"fmt"
	"strings"

	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/dialect"
)

// GenerateTriggers emits CREATE OR REPLACE TRIGGER statements. Bodies read
// from the catalog are repaired so they run as-is: NEW./OLD. references gain
// their colon, missing statement semicolons are added, and bodies without a
// BEGIN or DECLARE are wrapped in BEGIN ... END.
func (g *Generator) GenerateTriggers(schema string, triggers []core.TriggerDefinition, mode dialect.TriggerTerminator) []string {
	mode = mode.Effective()

	stmts := make([]string, 0, len(triggers))
	for _, tr := range triggers {
		stmts = append(stmts, g.generateTrigger(schema, tr, mode))
	}
	return stmts
}

func (g *Generator) generateTrigger(schema string, tr core.TriggerDefinition, mode dialect.TriggerTerminator) string {
	body := strings.TrimSpace(tr.Body)
	upper := strings.ToUpper(body)
	if strings.HasPrefix(upper, "CREATE TRIGGER") || strings.HasPrefix(upper, "CREATE OR REPLACE TRIGGER") {
		return applyTriggerTerminator(normalizeTriggerBody(body), mode)
	}

	when := ""
	if tr.EachRow {
		when, body = extractWhenClause(body)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE TRIGGER %s.%s\n%s %s ON %s",
		QuoteIdentifier(schema),
		QuoteIdentifier(tr.Name),
		tr.Timing,
		strings.Join(tr.Events, " OR "),
		QuoteIdentifier(qualify(schema, tr.TableName)),
	)
	if tr.EachRow {
		b.WriteString(" REFERENCING OLD AS OLD NEW AS NEW\nFOR EACH ROW")
	}
	if when = normalizeTriggerReferences(when); when != "" {
		fmt.Fprintf(&b, "\nWHEN (%s)", when)
	}
	b.WriteByte('\n')

	normalized := strings.TrimSpace(normalizeTriggerBody(normalizeTriggerReferences(body)))
	start := strings.ToUpper(normalized)
	if strings.HasPrefix(start, "BEGIN") || strings.HasPrefix(start, "DECLARE") {
		b.WriteString(normalized)
	} else {
		b.WriteString("BEGIN\n" + normalized + "\nEND")
	}

	stmt := b.String()
	if !strings.HasSuffix(strings.TrimRight(stmt, " \t\r\n"), ";") {
		stmt += ";"
	}
	return applyTriggerTerminator(stmt, mode)
}

// applyTriggerTerminator guarantees a trailing ';' and, in script mode, a
// closing '/' line.
func applyTriggerTerminator(stmt string, mode dialect.TriggerTerminator) string {
	trimmed := strings.TrimRight(stmt, " \t\r\n")
	if strings.HasSuffix(trimmed, "/") {
		return stmt
	}
	if !strings.HasSuffix(trimmed, ";") {
		stmt += ";"
	}
	if mode != dialect.TerminatorScript {
		return stmt
	}
	if !strings.HasSuffix(stmt, "\n") {
		stmt += "\n"
	}
	return stmt + "/"
}

// extractWhenClause removes a leading "WHEN (...)" line group from body and
// returns the condition without its outer parentheses. The condition may
// span several lines and contain nested parentheses.
func extractWhenClause(body string) (string, string) {
	var (
		clause    strings.Builder
		bodyLines []string
		inWhen    bool
		depth     int
	)

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inWhen && strings.HasPrefix(strings.ToUpper(trimmed), "WHEN") {
			rest := strings.TrimLeft(trimmed[len("WHEN"):], " \t")
			if strings.HasPrefix(rest, "(") {
				inWhen = true
				depth = 0
				for _, ch := range rest {
					switch {
					case ch == '(':
						depth++
						if depth > 1 {
							clause.WriteRune(ch)
						}
					case ch == ')':
						depth--
						if depth == 0 {
							inWhen = false
						} else {
							clause.WriteRune(ch)
						}
					case depth > 0:
						clause.WriteRune(ch)
					}
					if !inWhen {
						break
					}
				}
				continue
			}
		}

		if !inWhen {
			bodyLines = append(bodyLines, line)
			continue
		}

		for _, ch := range trimmed {
			if ch == '(' {
				depth++
			} else if ch == ')' {
				depth--
				if depth == 0 {
					inWhen = false
					break
				}
			}
			clause.WriteRune(ch)
		}
		if inWhen {
			clause.WriteByte(' ')
		}
	}

	return strings.TrimSpace(clause.String()), strings.Join(bodyLines, "\n")
}

// normalizeTriggerReferences rewrites NEW.x and OLD.x to :NEW.x and :OLD.x
// unless the name is already prefixed or is part of a longer identifier.
func normalizeTriggerReferences(input string) string {
	var b strings.Builder
	b.Grow(len(input) + 8)

	for i := 0; i < len(input); i++ {
		if i+4 <= len(input) && input[i+3] == '.' {
			word := strings.ToUpper(input[i : i+3])
			if word == "NEW" || word == "OLD" {
				prevWord, prevColon := false, false
				if i > 0 {
					prev := input[i-1]
					prevWord = prev == '_' || isDigit(prev) || isASCIILetter(rune(prev))
					prevColon = prev == ':'
				}
				if !prevWord && !prevColon {
					b.WriteString(":" + word + ".")
					i += 3
					continue
				}
			}
		}
		b.WriteByte(input[i])
	}
	return b.String()
}

// blockKeywords start lines that never take a trailing semicolon.
var blockKeywords = []string{
	"CREATE ", "DECLARE", "WHEN ", "IF ", "ELSIF ", "ELSE", "FOR ", "WHILE ",
	"LOOP", "BEGIN", "END", "EXCEPTION", "THEN",
}

// statementStarts begin lines that are complete statements at depth zero.
var statementStarts = []string{
	"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "INTO ", "NULL", "RAISE",
}

var selectIntoTerminators = []string{"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "END"}

// normalizeTriggerBody adds semicolons the catalog text lost. Multi-line
// SELECT ... INTO statements are terminated on their last line only, and
// lines inside open parentheses are left alone.
func normalizeTriggerBody(body string) string {
	lines := strings.Split(body, "\n")
	selectInto := markSelectInto(lines)

	out := make([]string, 0, len(lines))
	depth := 0
	for idx, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		upper := strings.ToUpper(strings.TrimLeft(trimmed, " \t"))
		if upper == "" {
			out = append(out, trimmed)
			continue
		}

		prevDepth := depth
		depth += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")

		lastSelectInto := selectInto[idx] && (idx+1 >= len(lines) || !selectInto[idx+1])

		needs := !strings.HasSuffix(upper, ";") &&
			prevDepth == 0 && depth == 0 &&
			(!selectInto[idx] || lastSelectInto) &&
			!hasAnyPrefix(upper, blockKeywords) &&
			(hasAnyPrefix(upper, statementStarts) ||
				strings.Contains(upper, ":NEW.") ||
				strings.Contains(upper, ":OLD.") ||
				strings.Contains(upper, ":=") ||
				lastSelectInto)
		if needs {
			trimmed += ";"
		}
		out = append(out, trimmed)
	}

	if n := len(out); n > 0 {
		last := out[n-1]
		if strings.ToUpper(strings.TrimSpace(last)) == "END" && !strings.HasSuffix(last, ";") {
			out[n-1] = last + ";"
		}
	}
	return strings.Join(out, "\n")
}

// markSelectInto flags every line belonging to a SELECT statement that has
// an INTO line before its terminating semicolon. A line that already ends
// the statement is part of the span, so normalizing twice is a no-op.
func markSelectInto(lines []string) []bool {
	marked := make([]bool, len(lines))
	for i, line := range lines {
		if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "SELECT ") {
			continue
		}

		into := -1
		for j := i + 1; j < len(lines); j++ {
			next := strings.ToUpper(strings.TrimSpace(lines[j]))
			if strings.HasPrefix(next, "INTO ") {
				into = j
				break
			}
			if strings.HasSuffix(next, ";") || strings.HasPrefix(next, "SELECT ") {
				break
			}
		}
		if into < 0 {
			continue
		}

		end, depth := into, 0
		for j := into + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			upper := strings.ToUpper(next)
			depth += strings.Count(next, "(") - strings.Count(next, ")")
			if depth == 0 && strings.HasSuffix(upper, ";") {
				end = j
				break
			}
			if depth == 0 && (hasAnyPrefix(upper, selectIntoTerminators) ||
				strings.Contains(upper, ":NEW.") ||
				strings.Contains(upper, ":OLD.") ||
				strings.Contains(upper, ":=")) {
				break
			}
			end = j
		}
		for k := i; k <= end; k++ {
			marked[k] = true
		}
	}
	return marked
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
