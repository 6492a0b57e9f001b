package config

import "github.com/pgfence/pgfence/internal/rules"

// FilterRules applies --enable-rules and --disable-rules to the full rule
// catalogue (built-in plus loaded plugin rules). A non-empty enable list
// narrows the set to exactly those IDs; disable always removes a matching
// ID afterwards, so a rule named in both lists ends up disabled.
func FilterRules(all []rules.Rule, enable, disable []string) []rules.Rule {
	enabled := all
	if len(enable) > 0 {
		want := toSet(enable)
		enabled = enabled[:0:0]
		for _, r := range all {
			if want[r.ID] {
				enabled = append(enabled, r)
			}
		}
	}

	if len(disable) == 0 {
		return enabled
	}
	drop := toSet(disable)
	out := make([]rules.Rule, 0, len(enabled))
	for _, r := range enabled {
		if !drop[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
