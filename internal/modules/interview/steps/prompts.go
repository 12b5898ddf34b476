package steps

import (
	"strings"

	"github.com/yungbote/carebridge-backend/internal/catalog"
)

var routeExpandSystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You expand one utterance from a person managing a progressive illness",
	"into assessment keywords.",
	"Return 3-8 short lowercase keywords describing the needs or symptoms",
	"the utterance touches (e.g. breathing, mobility, sleep, isolation).",
	"Keywords only; no sentences, no diagnoses.",
	"Return ONLY JSON matching the schema.",
}, "\n"))

var scoringSystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You score one interview answer from a person managing a progressive",
	"illness on a 0-7 self-report scale.",
	"The scale reflects awareness, understanding, coping, and action, NOT",
	"medical severity:",
	"- 0-1: no awareness or engagement with the topic",
	"- 2-3: aware of the problem but little understanding or coping",
	"- 4-5: understands the situation and has partial coping strategies",
	"- 6-7: actively managing with concrete strategies and support",
	"Score only what the answer itself supports. Do not diagnose.",
	"Return ONLY JSON matching the schema.",
}, "\n"))

func scoringSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"score": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 7,
			},
			"rationale": map[string]any{
				"type":      "string",
				"maxLength": 400,
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"required": []string{"score", "rationale", "confidence"},
	}
}

func buildScoringUserPrompt(q *catalog.Question, answer, recent string) string {
	prompt := "(open conversation)"
	topic := "(unrouted)"
	if q != nil {
		prompt = q.Prompt
		topic = q.Dimension + " / " + q.Term
	}
	return strings.TrimSpace(strings.Join([]string{
		"TOPIC: " + topic,
		"QUESTION:",
		prompt,
		"",
		"RECENT_TURNS:",
		defaultString(recent, "(none)"),
		"",
		"ANSWER:",
		answer,
	}, "\n"))
}

var transitionSystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You judge whether a person chatting with a care companion is ready to",
	"move from open conversation into a structured needs assessment.",
	"Ready means: they have shared enough context, their messages circle a",
	"concrete concern, or they ask for guidance.",
	"Not ready means: still venting, still building trust, or clearly",
	"wanting open conversation.",
	"This judgment is advisory. Return ONLY JSON matching the schema.",
}, "\n"))

func transitionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"ready": map[string]any{"type": "boolean"},
			"reason": map[string]any{
				"type":      "string",
				"maxLength": 200,
			},
		},
		"required": []string{"ready", "reason"},
	}
}

var termDoneSystemPrompt = strings.TrimSpace(strings.Join([]string{
	"You judge whether an interview topic is exhausted for this person.",
	"Exhausted means: the recent answers repeat earlier content, are",
	"perfunctory, or signal a wish to move on.",
	"Return ONLY JSON matching the schema.",
}, "\n"))

func termDoneSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"done": map[string]any{"type": "boolean"},
			"reason": map[string]any{
				"type":      "string",
				"maxLength": 200,
			},
		},
		"required": []string{"done", "reason"},
	}
}
