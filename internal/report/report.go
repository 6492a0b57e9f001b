// Package report renders an analysis.Result into one of the four output
// formats spec §6 defines: cli (pterm), json, github (Markdown), sarif.
package report

import (
	"fmt"

	"github.com/pgfence/pgfence/internal/analysis"
)

// Format names an output target, matching the --output CLI flag.
type Format string

const (
	FormatCLI    Format = "cli"
	FormatJSON   Format = "json"
	FormatGitHub Format = "github"
	FormatSARIF  Format = "sarif"
)

// Coverage is the trust-signal summary from spec §6/§7: how much of the
// file's statements the extractor could actually resolve statically.
type Coverage struct {
	TotalStatements  int `json:"totalStatements"`
	DynamicStatements int `json:"dynamicStatements"`
	CoveragePercent  int `json:"coveragePercent"`
}

// NewCoverage computes the coverage percentage per spec §7:
// P = round((N-W)/N*100), with P = 100 when N = 0.
func NewCoverage(totalStatements, dynamicStatements int) Coverage {
	if totalStatements == 0 {
		return Coverage{CoveragePercent: 100}
	}
	resolved := totalStatements - dynamicStatements
	percent := int((resolved*100 + totalStatements/2) / totalStatements)
	return Coverage{
		TotalStatements:   totalStatements,
		DynamicStatements: dynamicStatements,
		CoveragePercent:   percent,
	}
}

// Render writes result in format to w.
func Render(format Format, results []analysis.Result, coverages map[string]Coverage, w Writer) error {
	switch format {
	case FormatJSON:
		return renderJSON(results, coverages, w)
	case FormatGitHub:
		return renderGitHub(results, coverages, w)
	case FormatSARIF:
		return renderSARIF(results, w)
	case FormatCLI, "":
		return renderCLI(results, coverages, w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Writer is the minimal sink every renderer writes to; satisfied by
// *os.File, bytes.Buffer, and so on.
type Writer interface {
	Write(p []byte) (n int, err error)
}
