package report

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/pgfence/pgfence/internal/analysis"
	"github.com/pgfence/pgfence/internal/risk"
)

func riskPrinter(level risk.Level) pterm.PrefixPrinter {
	switch level {
	case risk.Critical, risk.High:
		return pterm.Error
	case risk.Medium:
		return pterm.Warning
	case risk.Low:
		return pterm.Info
	default:
		return pterm.Success
	}
}

// renderCLI renders each file's findings and policy violations as colored
// terminal output, falling back to pterm's own --no-color detection (via
// pterm.DisableColor, toggled by the caller from the --no-color flag).
func renderCLI(results []analysis.Result, coverages map[string]Coverage, w Writer) error {
	for _, r := range results {
		pterm.DefaultSection.WithWriter(w).Println(r.File)

		if len(r.Findings) == 0 {
			pterm.Success.WithWriter(w).Println("no findings")
		}

		for _, f := range r.Findings {
			table := ""
			if f.Table != nil {
				table = fmt.Sprintf(" on %s", *f.Table)
			}
			p := riskPrinter(f.EffectiveRisk())
			p.WithWriter(w).Printfln("%s%s (%s): %s", f.RuleID, table, f.Lock, f.Message)
		}

		for _, v := range r.Violations {
			p := pterm.Warning
			if v.Severity.String() == "error" {
				p = pterm.Error
			}
			p.WithWriter(w).Printfln("policy %s: %s", v.RuleID, v.Message)
		}

		if cov, ok := coverages[r.File]; ok {
			pterm.DefaultBasicText.WithWriter(w).Printfln("coverage: %d%% (%d/%d statements)", cov.CoveragePercent, cov.TotalStatements-cov.DynamicStatements, cov.TotalStatements)
		}

		pterm.DefaultBasicText.WithWriter(w).Printfln("max risk: %s", r.MaxRisk)
		fmt.Fprintln(w)
	}
	return nil
}
