package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/db"
)

const (
	MessageMissingConfig = "Configuration API manquante."
	MessageAnalysisError = "Erreur d'analyse IA."
	MessageNotUnderstood = "Je n'ai pas compris."
	MessageProcessed     = "Commande traitée."
)

const voiceInstruction = `You are a helper matching a volunteer's spoken wish to available time slots.
You have a list of available slots with IDs.

Determine if the user wants to REGISTER ('add') or CANCEL/UNSUBSCRIBE ('remove').
Keywords for 'remove': "annuler", "désinscrire", "enlever", "supprimer", "cancel", "unsubscribe".
Default action is 'add'.

Return a JSON object with:
1. 'matchedIds': array of strings (IDs of the slots that match the user's intent).
2. 'action': string ("add" or "remove").
3. 'message': a polite confirmation message in French summarizing what was understood (e.g. "Je vous inscris pour mardi..." or "J'annule votre créneau de mardi...").

If the user says "All mornings", select all slots in the morning.
If the user names a day and an activity, select that specific slot.
If the user refers to a later date (e.g. "next week", "in two weeks"), use the dates given in the list.`

var voiceSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"matchedIds": map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"action":     map[string]any{"type": "STRING", "enum": []string{"add", "remove"}},
		"message":    map[string]any{"type": "STRING"},
	},
}

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}

// promptSlot is the minified slot sent to the model
type promptSlot struct {
	ID    string `json:"id"`
	Day   string `json:"day"`
	Time  string `json:"time"`
	Title string `json:"title"`
}

type rawInterpretation struct {
	MatchedIDs []string `json:"matchedIds"`
	Action     string   `json:"action"`
	Message    string   `json:"message"`
}

// InterpretSpokenCommand matches a transcript against the available slots.
// Failures resolve to an empty "add" interpretation carrying an apologetic message.
func (c *Client) InterpretSpokenCommand(ctx context.Context, transcript string, weekStart time.Time, slots []db.Slot) model.Interpretation {
	c.logger.Info("Interpreting spoken command", zap.String("transcript", transcript), zap.Int("slots", len(slots)))

	if !c.Enabled() {
		c.logger.Error("Spoken command interpretation unavailable: API key missing")
		return neutralInterpretation(MessageMissingConfig)
	}

	minified := c.minifySlots(slots)
	slotsJSON, err := json.Marshal(minified)
	if err != nil {
		c.logger.Error("Failed to encode slots for prompt", zap.Error(err))
		return neutralInterpretation(MessageAnalysisError)
	}

	prompt := fmt.Sprintf("Context: Available slots starting from %s.\nAvailable Slots: %s\nUser Voice Transcript: %q",
		weekStart.In(c.loc).Format("02/01/2006"), slotsJSON, transcript)

	text, err := c.generateJSON(ctx, voiceInstruction, prompt, voiceSchema)
	if err != nil {
		c.logger.Error("Spoken command interpretation failed", zap.Error(err))
		return neutralInterpretation(MessageAnalysisError)
	}
	if text == "" {
		return neutralInterpretation(MessageNotUnderstood)
	}

	var raw rawInterpretation
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		c.logger.Error("Failed to parse interpretation", zap.Error(err), zap.String("text", text))
		return neutralInterpretation(MessageAnalysisError)
	}

	interpretation := model.Interpretation{
		MatchedSlotIDs:      knownIDs(raw.MatchedIDs, slots),
		Action:              model.ParseAction(raw.Action),
		ConfirmationMessage: raw.Message,
	}
	if interpretation.ConfirmationMessage == "" {
		interpretation.ConfirmationMessage = MessageProcessed
	}

	c.logger.Info("Spoken command interpreted",
		zap.Strings("matched_ids", interpretation.MatchedSlotIDs),
		zap.String("action", string(interpretation.Action)))
	return interpretation
}

func neutralInterpretation(message string) model.Interpretation {
	return model.Interpretation{
		MatchedSlotIDs:      []string{},
		Action:              model.ActionAdd,
		ConfirmationMessage: message,
	}
}

func (c *Client) minifySlots(slots []db.Slot) []promptSlot {
	minified := make([]promptSlot, 0, len(slots))
	for _, s := range slots {
		start := s.Start.In(c.loc)
		end := s.End.In(c.loc)
		minified = append(minified, promptSlot{
			ID:    s.ID,
			Day:   frenchDayLabel(start),
			Time:  fmt.Sprintf("%dh-%dh", start.Hour(), end.Hour()),
			Title: s.Title,
		})
	}
	return minified
}

// frenchDayLabel renders "mardi 4 mars"
func frenchDayLabel(t time.Time) string {
	return fmt.Sprintf("%s %d %s", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1])
}

// knownIDs keeps the ids that belong to the offered slots, in the model's order, without duplicates
func knownIDs(ids []string, slots []db.Slot) []string {
	offered := make(map[string]bool, len(slots))
	for _, s := range slots {
		offered[s.ID] = true
	}

	kept := []string{}
	seen := make(map[string]bool)
	for _, id := range ids {
		if offered[id] && !seen[id] {
			kept = append(kept, id)
			seen[id] = true
		}
	}
	return kept
}
