package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/qri-io/jsonschema"
)

// RoadmapSchema is the JSON schema a generated roadmap must satisfy.
const RoadmapSchema = `{
  "type": "object",
  "required": ["title", "milestones"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "category": {"type": "string"},
    "difficulty": {"type": "string"},
    "milestones": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "tasks"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "tasks": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["title"],
              "properties": {
                "title": {"type": "string", "minLength": 1},
                "description": {"type": "string"},
                "resources": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    }
  }
}`

var roadmapSchema = mustCompile(RoadmapSchema)

func mustCompile(src string) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(src), rs); err != nil {
		panic(fmt.Sprintf("aiclient: invalid roadmap schema: %v", err))
	}
	return rs
}

// DraftTask is a generated task
type DraftTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
}

// DraftMilestone is a generated milestone
type DraftMilestone struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tasks       []DraftTask `json:"tasks"`
}

// RoadmapDraft is a validated roadmap produced by the generator
type RoadmapDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Difficulty  string           `json:"difficulty"`
	Milestones  []DraftMilestone `json:"milestones"`
}

// BuildRoadmapPrompt renders the generation prompt for a topic
func BuildRoadmapPrompt(topic, level string, weeks int) string {
	if level == "" {
		level = "beginner"
	}
	if weeks <= 0 {
		weeks = 4
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-week learning roadmap about %q for a %s learner.\n", weeks, topic, level)
	b.WriteString("Respond with a JSON object of this exact shape:\n")
	b.WriteString(`{"title": string, "description": string, "category": string, "difficulty": "beginner"|"intermediate"|"advanced", `)
	b.WriteString(`"milestones": [{"title": string, "description": string, "tasks": [{"title": string, "description": string, "resources": [url]}]}]}`)
	b.WriteString("\nEvery milestone needs at least one task and every task needs a title.")
	return b.String()
}

// stripFences removes an optional markdown code fence around the text.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop an info string such as "json", on its own line or not
	if end := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '{' || r == '['
	}); end > 0 {
		s = s[end:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseRoadmap extracts and validates a roadmap from generated text
func ParseRoadmap(ctx context.Context, text string) (*RoadmapDraft, error) {
	body := []byte(stripFences(text))
	if !json.Valid(body) {
		return nil, &ParseError{Raw: text, Reason: "response is not valid JSON"}
	}

	keyErrs, err := roadmapSchema.ValidateBytes(ctx, body)
	if err != nil {
		return nil, &ParseError{Raw: text, Reason: err.Error()}
	}
	if len(keyErrs) > 0 {
		reasons := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			reasons = append(reasons, ke.Error())
		}
		return nil, &ParseError{Raw: text, Reason: strings.Join(reasons, "; ")}
	}

	var draft RoadmapDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, &ParseError{Raw: text, Reason: err.Error()}
	}
	return &draft, nil
}

// GenerateRoadmap asks gen for a roadmap and validates the answer
func GenerateRoadmap(ctx context.Context, gen Generator, topic, level string, weeks int) (*RoadmapDraft, error) {
	text, err := gen.Generate(ctx, BuildRoadmapPrompt(topic, level, weeks))
	if err != nil {
		return nil, err
	}
	return ParseRoadmap(ctx, text)
}
