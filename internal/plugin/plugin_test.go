package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgfence/pgfence/internal/parser"
	"github.com/pgfence/pgfence/internal/policy"
	"github.com/pgfence/pgfence/internal/rules"
)

type fakePlugin struct {
	name     string
	rules    []rules.Rule
	policies []PolicyFunc
}

func (f fakePlugin) Name() string            { return f.name }
func (f fakePlugin) Rules() []rules.Rule     { return f.rules }
func (f fakePlugin) Policies() []PolicyFunc  { return f.policies }

func TestRegisterRuleIDsRejectsMissingPrefix(t *testing.T) {
	pl := fakePlugin{name: "demo", rules: []rules.Rule{{ID: "no-prefix"}}}
	err := registerRuleIDs(pl, map[string]bool{})
	assert.Error(t, err)
}

func TestRegisterRuleIDsRejectsCollision(t *testing.T) {
	seen := map[string]bool{"plugin:foo": true}
	pl := fakePlugin{name: "demo", rules: []rules.Rule{{ID: "plugin:foo"}}}
	err := registerRuleIDs(pl, seen)
	assert.Error(t, err)
}

func TestRegisterRuleIDsAccepts(t *testing.T) {
	pl := fakePlugin{name: "demo", rules: []rules.Rule{{ID: "plugin:foo"}, {ID: "plugin:bar"}}}
	seen := map[string]bool{}
	require.NoError(t, registerRuleIDs(pl, seen))
	assert.True(t, seen["plugin:foo"])
	assert.True(t, seen["plugin:bar"])
}

func TestRunPoliciesIsolatesPanic(t *testing.T) {
	panics := PolicyFunc(func(stmt parser.Statement) []policy.Violation {
		panic("boom")
	})
	ok := PolicyFunc(func(stmt parser.Statement) []policy.Violation {
		return []policy.Violation{{RuleID: "plugin:ok", Severity: policy.SeverityWarning}}
	})
	pl := fakePlugin{name: "demo", policies: []PolicyFunc{panics, ok}}

	violations := RunPolicies([]Plugin{pl}, parser.Statement{})
	require.Len(t, violations, 1)
	assert.Equal(t, "plugin:ok", violations[0].RuleID)
}
