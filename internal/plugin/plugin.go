// Package plugin loads out-of-tree rule and policy contributors via
// --plugin <paths...>. Each path is a Go plugin (.so) built with
// `go build -buildmode=plugin` that exports a package-level variable named
// Plugin implementing the Plugin interface below. No third-party dynamic
// loading library exists anywhere in the reference corpus, and Go has
// exactly one way to load native code at runtime, so the standard
// library's plugin package is used directly rather than a stdlib
// workaround for something a dependency could otherwise do.
package plugin

import (
	goplugin "plugin"
	"strings"

	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/pgferr"
	"github.com/pgfence/pgfence/internal/policy"
	"github.com/pgfence/pgfence/internal/rules"
)

// RulePrefix is the mandatory namespace every plugin-contributed rule ID
// must carry, per spec §4.7/§6.
const RulePrefix = "plugin:"

// PolicyFunc is a plugin's contribution to the policy engine: a pure,
// per-statement check with no access to the core transaction state
// machine, which spec §9 keeps as a core-only abstraction.
type PolicyFunc func(stmt parser.Statement) []policy.Violation

// Plugin is the interface a loaded .so's exported Plugin variable must
// satisfy.
type Plugin interface {
	Name() string
	Rules() []rules.Rule
	Policies() []PolicyFunc
}

// Load opens each path in paths as a Go plugin, resolves its exported
// Plugin symbol, and validates the plugin.Rules ID namespace. Collisions
// between two plugins' rule IDs, or a rule ID missing the "plugin:"
// prefix, are rejected at load time rather than allowed to silently
// shadow a built-in or sibling-plugin rule.
func Load(paths []string) ([]Plugin, error) {
	seen := map[string]bool{}
	var loaded []Plugin

	for _, path := range paths {
		p, err := goplugin.Open(path)
		if err != nil {
			return nil, pgferr.IO("open plugin "+path, err)
		}
		sym, err := p.Lookup("Plugin")
		if err != nil {
			return nil, pgferr.Argument("lookup Plugin symbol in "+path, err)
		}
		pl, ok := sym.(Plugin)
		if !ok {
			ref, ok := sym.(*Plugin)
			if !ok {
				return nil, pgferr.Argument(path, errNotAPlugin)
			}
			pl = *ref
		}

		if err := registerRuleIDs(pl, seen); err != nil {
			return nil, pgferr.Argument(path, err)
		}

		loaded = append(loaded, pl)
	}

	return loaded, nil
}

// registerRuleIDs validates pl's rule ID namespace against seen (the set
// of rule IDs already claimed by earlier plugins) and records pl's own IDs
// into it.
func registerRuleIDs(pl Plugin, seen map[string]bool) error {
	for _, r := range pl.Rules() {
		if !strings.HasPrefix(r.ID, RulePrefix) {
			return errMissingPrefix(r.ID)
		}
		if seen[r.ID] {
			return errCollision(r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// RunPolicies runs every plugin policy function against stmt, isolating
// each call behind a recover so a plugin panic (PluginFault, spec §7)
// is swallowed rather than propagated: the plugin's partial findings for
// that statement are discarded and analysis continues.
func RunPolicies(plugins []Plugin, stmt parser.Statement) []policy.Violation {
	var out []policy.Violation
	for _, pl := range plugins {
		for _, fn := range pl.Policies() {
			out = append(out, safeRunPolicy(fn, stmt)...)
		}
	}
	return out
}

func safeRunPolicy(fn PolicyFunc, stmt parser.Statement) (violations []policy.Violation) {
	defer func() {
		if recover() != nil {
			violations = nil
		}
	}()
	return fn(stmt)
}
