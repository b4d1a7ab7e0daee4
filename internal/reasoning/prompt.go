package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
)

const responseShape = `Return a JSON response with the following structure:
{
  "action": "add_hole" | "extrude" | "fillet" | etc,
  "parameters": { ... action specific parameters ... },
  "reasoning": "explanation of what will be done"
}`

// BuildPrompt renders the instruction for the model.
func BuildPrompt(req Request) string {
	selected := req.Face.String()
	if req.FaceName != "" && !req.Face.IsNone() {
		selected = fmt.Sprintf("%s (%s)", selected, req.FaceName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Process this CAD model modification command: %q. Selected face: %s.\n", req.Instruction, selected)
	b.WriteString(responseShape)
	return b.String()
}

// ParseDecision extracts the JSON object from a model reply. Models often
// wrap the object in prose or code fences, so everything outside the
// outermost braces is ignored.
func ParseDecision(text string) (Decision, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return Decision{}, fmt.Errorf("%w: no JSON object in reply", ErrUnparseable)
	}

	var d Decision
	if err := json.Unmarshal([]byte(text[start:end+1]), &d); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if strings.TrimSpace(d.Action) == "" {
		return Decision{}, fmt.Errorf("%w: reply has no action", ErrUnparseable)
	}
	if d.Parameters == nil {
		d.Parameters = map[string]any{}
	}
	return d, nil
}
