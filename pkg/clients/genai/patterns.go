package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
)

const patternsInstruction = `You are an assistant for a recycling center scheduler.
Generate a JSON list of time slot patterns from the user's request and the provided date range.
Each object is a weekly pattern applied within the date range.

Schema:
- dayOffset: number (0 = Monday, 1 = Tuesday, ... 6 = Sunday)
- startHour: number (0-23)
- startMinute: number (0-59)
- endHour: number (0-23)
- endMinute: number (0-59)
- title: string (the label of the slot)

Example: "Monday and Tuesday from 2pm to 4pm for 'Sorting'" ->
[{"dayOffset": 0, "startHour": 14, "startMinute": 0, "endHour": 16, "endMinute": 0, "title": "Sorting"}, {"dayOffset": 1, ...}]`

var patternsSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"dayOffset":   map[string]any{"type": "INTEGER"},
			"startHour":   map[string]any{"type": "INTEGER"},
			"startMinute": map[string]any{"type": "INTEGER"},
			"endHour":     map[string]any{"type": "INTEGER"},
			"endMinute":   map[string]any{"type": "INTEGER"},
			"title":       map[string]any{"type": "STRING"},
		},
		"required": []string{"dayOffset", "startHour", "endHour", "title"},
	},
}

// rawPattern is the wire shape returned by the model
type rawPattern struct {
	DayOffset   *int   `json:"dayOffset"`
	StartHour   *int   `json:"startHour"`
	StartMinute int    `json:"startMinute"`
	EndHour     *int   `json:"endHour"`
	EndMinute   int    `json:"endMinute"`
	Title       string `json:"title"`
}

// GenerateWeeklyPatterns asks the model for weekly slot patterns matching instruction.
// It returns an empty list when the service is not configured, fails or answers
// something unusable; invalid patterns are dropped individually.
func (c *Client) GenerateWeeklyPatterns(ctx context.Context, rangeStart, rangeEnd time.Time, instruction string) []model.Pattern {
	prompt := fmt.Sprintf("Date range context: From %s to %s.\nUser Request: %q",
		rangeStart.In(c.loc).Format("Mon Jan 02 2006"),
		rangeEnd.In(c.loc).Format("Mon Jan 02 2006"),
		instruction)

	text, err := c.generateJSON(ctx, patternsInstruction, prompt, patternsSchema)
	if err != nil {
		c.logger.Error("Slot pattern generation failed", zap.Error(err))
		return []model.Pattern{}
	}
	if text == "" {
		c.logger.Warn("Slot pattern generation returned no content")
		return []model.Pattern{}
	}

	return c.parsePatterns(text)
}

func (c *Client) parsePatterns(text string) []model.Pattern {
	var raw []rawPattern
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		c.logger.Error("Failed to parse slot patterns", zap.Error(err), zap.String("text", text))
		return []model.Pattern{}
	}

	patterns := make([]model.Pattern, 0, len(raw))
	for i, r := range raw {
		if r.DayOffset == nil || r.StartHour == nil || r.EndHour == nil {
			c.logger.Warn("Dropping incomplete slot pattern", zap.Int("index", i))
			continue
		}
		p := model.Pattern{
			DayOfWeek:   *r.DayOffset,
			StartHour:   *r.StartHour,
			StartMinute: r.StartMinute,
			EndHour:     *r.EndHour,
			EndMinute:   r.EndMinute,
			Title:       r.Title,
		}
		if err := p.Validate(); err != nil {
			c.logger.Warn("Dropping invalid slot pattern", zap.Int("index", i), zap.Error(err))
			continue
		}
		patterns = append(patterns, p)
	}

	c.logger.Debug("Slot patterns generated", zap.Int("count", len(patterns)))
	return patterns
}
