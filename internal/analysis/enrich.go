package analysis

import (
	"github.com/pgfence/pgfence/internal/metadata"
	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/rules"
	"github.com/pgfence/pgfence/internal/suggest"
)

var (
	extractor = metadata.NewExtractor()
	suggester = suggest.New()
)

// enrichSafeRewrite replaces a finding's static inline SafeRewrite with a
// templated one rendered from the matched statement's own AST field values
// (table/column/constraint names, the literal DEFAULT expression, ...), for
// the subset of rule IDs suggestions.yaml carries a template for. Rules
// without an authored template keep the SafeRewrite their Func set, so a
// plugin-contributed or not-yet-templated rule ID degrades gracefully to
// its static recipe rather than losing its rewrite guidance.
func enrichSafeRewrite(r *rules.CheckResult, stmt parser.Statement) {
	if !suggester.HasSuggestion(r.RuleID) || stmt.Node == nil {
		return
	}
	data := extractor.Extract(stmt.Node, r.RuleID)
	rendered, err := suggester.GetSuggestion(r.RuleID, data)
	if err != nil {
		return
	}
	r.SafeRewrite = &rules.SafeRewrite{Description: rendered.Description, Steps: rendered.Steps}
}
