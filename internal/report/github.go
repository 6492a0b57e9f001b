package report

import (
	"fmt"

	"github.com/pgfence/pgfence/internal/analysis"
)

// renderGitHub renders a Markdown report suitable for posting as a GitHub
// pull-request comment: one section per file, a findings table, and a
// policy-violations list.
func renderGitHub(results []analysis.Result, coverages map[string]Coverage, w Writer) error {
	fmt.Fprintln(w, "## pgfence migration safety report")
	fmt.Fprintln(w)

	for _, r := range results {
		fmt.Fprintf(w, "### `%s` — max risk **%s**\n\n", r.File, r.MaxRisk)

		if cov, ok := coverages[r.File]; ok {
			fmt.Fprintf(w, "_%d%% of %d statements statically analyzed_\n\n", cov.CoveragePercent, cov.TotalStatements)
		}

		if len(r.Findings) > 0 {
			fmt.Fprintln(w, "| Risk | Rule | Table | Lock | Statement |")
			fmt.Fprintln(w, "|---|---|---|---|---|")
			for _, f := range r.Findings {
				table := "-"
				if f.Table != nil {
					table = *f.Table
				}
				fmt.Fprintf(w, "| %s | `%s` | %s | %s | `%s` |\n", f.EffectiveRisk(), f.RuleID, table, f.Lock, f.Preview)
			}
			fmt.Fprintln(w)
		} else {
			fmt.Fprintln(w, "No rule findings.")
			fmt.Fprintln(w)
		}

		if len(r.Violations) > 0 {
			fmt.Fprintln(w, "**Policy violations**")
			fmt.Fprintln(w)
			for _, v := range r.Violations {
				fmt.Fprintf(w, "- **%s** `%s`: %s\n", v.Severity, v.RuleID, v.Message)
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}
