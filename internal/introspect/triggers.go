package introspect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Amerone/dabase-tool/internal/core"
)

const maxTriggerAttempts = 3

var eventSeparator = regexp.MustCompile(`(?i)\s+OR\s+|,`)

// triggerRow is one ALL_TRIGGERS row; fields absent at the active level stay
// empty.
type triggerRow struct {
	name        string
	triggerType string
	event       string
	when        string
	body        string
	description string
}

func triggerQuery(level int, owner, table string) string {
	var columns string
	switch level {
	case LevelFull:
		columns = "TRIGGER_NAME, TRIGGER_TYPE, TRIGGERING_EVENT, WHEN_CLAUSE, TRIGGER_BODY, DESCRIPTION"
	case LevelNoType:
		columns = "TRIGGER_NAME, TRIGGERING_EVENT, WHEN_CLAUSE, TRIGGER_BODY"
	default:
		columns = "TRIGGER_NAME, TRIGGERING_EVENT, TRIGGER_BODY"
	}
	return fmt.Sprintf(
		"SELECT %s FROM ALL_TRIGGERS WHERE OWNER = %s AND TABLE_NAME = %s ORDER BY TRIGGER_NAME",
		columns, lit(owner), lit(table))
}

func scanTriggerRow(level int, row []*string) (triggerRow, error) {
	name, err := requireText(row, 0, "trigger")
	if err != nil {
		return triggerRow{}, err
	}
	r := triggerRow{name: name}
	switch level {
	case LevelFull:
		r.triggerType = text(row, 1)
		r.event = text(row, 2)
		r.when = text(row, 3)
		r.body = text(row, 4)
		r.description = text(row, 5)
	case LevelNoType:
		r.event = text(row, 1)
		r.when = text(row, 2)
		r.body = text(row, 3)
	default:
		r.event = text(row, 1)
		r.body = text(row, 2)
	}
	return r, nil
}

// nextTriggerLevel picks the level that omits the column named in err. It
// returns -1 when err does not name a column a later level can drop.
func nextTriggerLevel(level int, err error) int {
	msg := strings.ToUpper(err.Error())
	switch {
	case level < LevelNoType && (strings.Contains(msg, "TRIGGER_TYPE") || strings.Contains(msg, "DESCRIPTION")):
		return LevelNoType
	case level < LevelNoWhen && strings.Contains(msg, "WHEN_CLAUSE"):
		return LevelNoWhen
	default:
		return -1
	}
}

func (i *Introspector) fetchTriggers(ctx context.Context, owner, table string) ([]core.TriggerDefinition, error) {
	var lastErr error
	for attempt := 0; attempt < maxTriggerAttempts; attempt++ {
		level := i.level.Load()
		rows, err := i.query(ctx, triggerQuery(level, owner, table))
		if err == nil {
			return buildTriggers(level, table, rows)
		}
		lastErr = err

		next := nextTriggerLevel(level, err)
		if next < 0 {
			if level == LevelNoWhen {
				return nil, fmt.Errorf("%w: trigger query failed at level %s: %w", core.ErrCatalogShape, levelName(level), err)
			}
			return nil, fmt.Errorf("failed to query triggers: %w", err)
		}
		if i.level.Advance(level, next) {
			i.log.Warn("trigger catalog column missing, falling back",
				zap.String("from", levelName(level)),
				zap.String("to", levelName(next)),
				zap.Error(err))
			i.metrics.SetTriggerQueryLevel(next)
		}
	}
	return nil, fmt.Errorf("%w: trigger query failed after %d attempts: %w",
		core.ErrCatalogShape, maxTriggerAttempts, lastErr)
}

func buildTriggers(level int, table string, rows [][]*string) ([]core.TriggerDefinition, error) {
	triggers := make([]core.TriggerDefinition, 0, len(rows))
	for _, row := range rows {
		r, err := scanTriggerRow(level, row)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, r.definition(table))
	}
	return triggers, nil
}

func (r triggerRow) definition(table string) core.TriggerDefinition {
	header := strings.ToUpper(bodyHeader(r.body))

	timingSource := r.triggerType
	if strings.TrimSpace(timingSource) == "" {
		timingSource = r.event + " " + header
	}

	def := core.TriggerDefinition{
		Name:      r.name,
		TableName: table,
		Timing:    classifyTiming(timingSource),
		Events:    splitEvents(r.event),
		EachRow:   containsEachRow(r.triggerType) || containsEachRow(r.description) || containsEachRow(header),
		Body:      r.body,
	}
	if when := strings.TrimSpace(r.when); when != "" {
		def.Body = "WHEN (" + when + ")\n" + r.body
	}
	return def
}

// bodyHeader returns the text preceding the first BEGIN or DECLARE, which
// holds the timing and FOR EACH ROW clauses when the body is a full
// statement.
func bodyHeader(body string) string {
	upper := strings.ToUpper(body)
	end := len(body)
	for _, kw := range []string{"BEGIN", "DECLARE"} {
		if idx := strings.Index(upper, kw); idx >= 0 && idx < end {
			end = idx
		}
	}
	return body[:end]
}

func classifyTiming(s string) core.TriggerTiming {
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "INSTEAD OF"):
		return core.TimingInsteadOf
	case strings.Contains(upper, "AFTER"):
		return core.TimingAfter
	default:
		return core.TimingBefore
	}
}

func containsEachRow(s string) bool {
	return strings.Contains(strings.Join(strings.Fields(strings.ToUpper(s)), " "), "EACH ROW")
}

func splitEvents(s string) []string {
	parts := eventSeparator.Split(strings.TrimSpace(s), -1)
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			events = append(events, p)
		}
	}
	return events
}
