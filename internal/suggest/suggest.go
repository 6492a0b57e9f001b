// Package suggest renders the field-templated safe-rewrite write-ups that
// internal/analysis substitutes for a rule's inline SafeRewrite recipe,
// for the rule IDs that have a template. Rule-ID-to-template data is
// authored in suggestions.yaml and loaded once at init.
package suggest

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var suggestionsYAML []byte

// Data is the flexible field set a suggestion template may reference, such
// as {{.TableName}} or {{.ColumnName}}.
type Data map[string]interface{}

// Suggestion is a rendered, rule-specific write-up.
type Suggestion struct {
	RuleID      string
	Description string
	Steps       []string
}

type ruleDef struct {
	Description string   `yaml:"description"`
	Steps       []string `yaml:"steps"`
}

type yamlRoot struct {
	Rules map[string]ruleDef `yaml:"rules"`
}

var rulesByID map[string]ruleDef

func init() {
	var root yamlRoot
	if err := yaml.Unmarshal(suggestionsYAML, &root); err != nil {
		panic(fmt.Sprintf("failed to parse suggestions.yaml: %v", err))
	}
	rulesByID = root.Rules
}

// ErrNoSuggestion is returned when ruleID has no authored template.
var ErrNoSuggestion = fmt.Errorf("no suggestion available for this rule")

// Suggester renders a rule's safe-rewrite write-up with caller-supplied
// data substituted into its templated steps.
type Suggester interface {
	HasSuggestion(ruleID string) bool
	GetSuggestion(ruleID string, data Data) (*Suggestion, error)
}

type suggester struct{}

// New returns the default Suggester, backed by the embedded
// suggestions.yaml.
func New() Suggester { return &suggester{} }

func (s *suggester) HasSuggestion(ruleID string) bool {
	_, ok := rulesByID[ruleID]
	return ok
}

func (s *suggester) GetSuggestion(ruleID string, data Data) (*Suggestion, error) {
	def, ok := rulesByID[ruleID]
	if !ok {
		return nil, ErrNoSuggestion
	}

	steps := make([]string, 0, len(def.Steps))
	for _, raw := range def.Steps {
		rendered, err := renderTemplate(raw, data)
		if err != nil {
			return nil, fmt.Errorf("rendering suggestion for %s: %w", ruleID, err)
		}
		steps = append(steps, rendered)
	}

	return &Suggestion{RuleID: ruleID, Description: def.Description, Steps: steps}, nil
}

func renderTemplate(raw string, data Data) (string, error) {
	tmpl, err := template.New("suggestion").Parse(raw)
	if err != nil {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
