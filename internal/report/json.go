package report

import (
	"encoding/json"

	"github.com/pgfence/pgfence/internal/analysis"
)

type jsonEnvelope struct {
	Version  string           `json:"version"`
	Coverage Coverage         `json:"coverage"`
	Results  []jsonFileResult `json:"results"`
}

type jsonFileResult struct {
	File       string          `json:"file"`
	RunID      string          `json:"runId"`
	MaxRisk    string          `json:"maxRisk"`
	AutoCommit bool            `json:"autoCommit"`
	Findings   []jsonFinding   `json:"findings"`
	Violations []jsonViolation `json:"violations"`
}

type jsonFinding struct {
	RuleID  string            `json:"ruleId"`
	Table   string            `json:"table,omitempty"`
	Lock    string            `json:"lock"`
	Risk    string            `json:"risk"`
	Message string            `json:"message"`
	Preview string            `json:"preview"`
	Blocked jsonBlocked       `json:"blocked"`
	Rewrite *jsonSafeRewrite  `json:"safeRewrite,omitempty"`
}

type jsonBlocked struct {
	Reads    bool `json:"reads"`
	Writes   bool `json:"writes"`
	OtherDDL bool `json:"otherDdl"`
}

type jsonSafeRewrite struct {
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

type jsonViolation struct {
	RuleID       string `json:"ruleId"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	SuggestedFix string `json:"suggestedFix,omitempty"`
}

func renderJSON(results []analysis.Result, coverages map[string]Coverage, w Writer) error {
	var total, dynamic int
	for _, c := range coverages {
		total += c.TotalStatements
		dynamic += c.DynamicStatements
	}

	env := jsonEnvelope{
		Version:  "1.0",
		Coverage: NewCoverage(total, dynamic),
	}

	for _, r := range results {
		fr := jsonFileResult{
			File:       r.File,
			RunID:      r.RunID,
			MaxRisk:    r.MaxRisk.String(),
			AutoCommit: r.AutoCommit,
		}
		for _, f := range r.Findings {
			table := ""
			if f.Table != nil {
				table = *f.Table
			}
			jf := jsonFinding{
				RuleID:  f.RuleID,
				Table:   table,
				Lock:    f.Lock.String(),
				Risk:    f.EffectiveRisk().String(),
				Message: f.Message,
				Preview: f.Preview,
				Blocked: jsonBlocked{Reads: f.Blocked.Reads, Writes: f.Blocked.Writes, OtherDDL: f.Blocked.OtherDDL},
			}
			if f.SafeRewrite != nil {
				jf.Rewrite = &jsonSafeRewrite{Description: f.SafeRewrite.Description, Steps: f.SafeRewrite.Steps}
			}
			fr.Findings = append(fr.Findings, jf)
		}
		for _, v := range r.Violations {
			fr.Violations = append(fr.Violations, jsonViolation{
				RuleID:       v.RuleID,
				Severity:     v.Severity.String(),
				Message:      v.Message,
				SuggestedFix: v.SuggestedFix,
			})
		}
		env.Results = append(env.Results, fr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
