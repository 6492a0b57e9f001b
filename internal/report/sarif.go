package report

import (
	"encoding/json"
	"sort"

	"github.com/pgfence/pgfence/internal/analysis"
	"github.com/pgfence/pgfence/internal/risk"
)

// No SARIF library exists anywhere in the reference corpus, so the 2.1.0
// envelope is hand-rolled as plain structs.

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID  string          `json:"ruleId"`
	Level   string          `json:"level"`
	Message sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

func sarifLevelForRisk(level risk.Level) string {
	switch level {
	case risk.Critical, risk.High:
		return "error"
	case risk.Medium:
		return "warning"
	default:
		return "note"
	}
}

func sarifLevelForPolicy(severity string) string {
	if severity == "error" {
		return "error"
	}
	return "warning"
}

func renderSARIF(results []analysis.Result, w Writer) error {
	ruleIDs := map[string]bool{}
	var sarifResults []sarifResult

	for _, r := range results {
		for _, f := range r.Findings {
			ruleIDs[f.RuleID] = true
			sarifResults = append(sarifResults, sarifResult{
				RuleID:  f.RuleID,
				Level:   sarifLevelForRisk(f.EffectiveRisk()),
				Message: sarifMessage{Text: f.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: r.File},
					},
				}},
			})
		}
		for _, v := range r.Violations {
			ruleID := "policy-" + v.RuleID
			ruleIDs[ruleID] = true
			sarifResults = append(sarifResults, sarifResult{
				RuleID:  ruleID,
				Level:   sarifLevelForPolicy(v.Severity.String()),
				Message: sarifMessage{Text: v.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: r.File},
					},
				}},
			})
		}
	}

	rules := make([]sarifRule, 0, len(ruleIDs))
	for id := range ruleIDs {
		rules = append(rules, sarifRule{ID: id})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	doc := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "pgfence", Rules: rules}},
			Results: sarifResults,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
